// Package jsonfile implements stores backed by JSON files on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/core/recent"
)

// recentFile is the root JSON structure stored on disk.
type recentFile struct {
	Rooms []recent.Room `json:"rooms"`
}

// RecentStore implements recent.Store using a JSON file for persistence.
type RecentStore struct {
	path     string
	maxRooms int
	mu       sync.RWMutex
}

// NewRecentStore creates a new JSON file store at the given path.
// maxRooms limits stored entries (0 means unlimited).
func NewRecentStore(path string, maxRooms int) *RecentStore {
	return &RecentStore{path: path, maxRooms: maxRooms}
}

// List returns recent rooms, most recently joined first.
func (s *RecentStore) List(ctx context.Context) ([]recent.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}

	sort.Slice(f.Rooms, func(i, j int) bool {
		return f.Rooms[i].LastJoined.After(f.Rooms[j].LastJoined)
	})
	return f.Rooms, nil
}

// Save records a join, replacing any previous entry for the same room.
func (s *RecentStore) Save(ctx context.Context, room recent.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}

	rooms := make([]recent.Room, 0, len(f.Rooms)+1)
	rooms = append(rooms, room)
	for _, r := range f.Rooms {
		if r.RoomID != room.RoomID {
			rooms = append(rooms, r)
		}
	}

	if s.maxRooms > 0 && len(rooms) > s.maxRooms {
		rooms = rooms[:s.maxRooms]
	}

	return s.save(recentFile{Rooms: rooms})
}

// Clear removes all entries.
func (s *RecentStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(recentFile{Rooms: []recent.Room{}})
}

// load reads the file from disk. Returns an empty recentFile if the
// file doesn't exist.
func (s *RecentStore) load() (recentFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return recentFile{}, nil
		}
		return recentFile{}, fmt.Errorf("read recent rooms file: %w", err)
	}

	if len(data) == 0 {
		return recentFile{}, nil
	}

	var f recentFile
	if err := json.Unmarshal(data, &f); err != nil {
		return recentFile{}, fmt.Errorf("recent rooms file corrupted (run 'hongyeon rooms --clear' to reset): %w", err)
	}

	return f, nil
}

// save writes the file to disk atomically.
func (s *RecentStore) save(f recentFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal recent rooms: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write recent rooms temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename recent rooms file: %w", err)
	}

	return nil
}
