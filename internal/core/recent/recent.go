// Package recent defines the recently-joined-rooms domain types and
// store interface.
package recent

import (
	"context"
	"time"
)

// Room is one recently joined chat room.
type Room struct {
	RoomID     int       `json:"room_id"`
	Name       string    `json:"name,omitempty"`
	LastJoined time.Time `json:"last_joined"`
}

// Store defines persistence operations for recently joined rooms.
type Store interface {
	// List returns recent rooms, most recently joined first.
	List(ctx context.Context) ([]Room, error)
	// Save records a join, replacing any existing entry for the same
	// room and pruning oldest entries past the configured maximum.
	Save(ctx context.Context, room Room) error
	// Clear removes all entries.
	Clear(ctx context.Context) error
}
