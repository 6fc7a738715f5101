package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrHistoryLoad indicates the room history fetch failed. The session must
// not open a transport connection afterwards because ownership tagging
// depends on the member id carried in the history response.
var ErrHistoryLoad = errors.New("history load failed")

// ChatMessage is one historical message as returned by the backend.
// CreatedAt is server-assigned; Owner is computed server-side against the
// authenticated viewer.
type ChatMessage struct {
	ChatRoomID int    `json:"chatRoomId"`
	MemberID   int    `json:"memberId"`
	Nickname   string `json:"nickname"`
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
	Owner      bool   `json:"owner"`
}

// ChatMember is one membership slot in the room's roster.
type ChatMember struct {
	ChatRoomMemberID int    `json:"chatRoomMemberId"`
	ChatRoomID       int    `json:"chatRoomId"`
	Nickname         string `json:"nickname"`
}

// RoomHistory is the full history response for a room: prior messages in
// server order, the member roster, the room's display name, and the
// caller's own membership id within the room.
type RoomHistory struct {
	ChatMessages        []ChatMessage `json:"chatMessages"`
	ChatMembers         []ChatMember  `json:"chatMembers"`
	Name                string        `json:"name"`
	CurrentChatMemberID int           `json:"currentChatMemberId"`
}

// RoomHistory fetches the history for roomID. Any non-2xx status or
// transport error is reported as ErrHistoryLoad; callers treat this as
// terminal for the session rather than retrying.
func (c *Client) RoomHistory(ctx context.Context, roomID int) (*RoomHistory, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/api/v1/chatRoom/history/%d", roomID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryLoad, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: status %d", ErrHistoryLoad, resp.StatusCode)
	}

	var history RoomHistory
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrHistoryLoad, err)
	}

	c.log.Debug().
		Int("room_id", roomID).
		Int("messages", len(history.ChatMessages)).
		Int("members", len(history.ChatMembers)).
		Msg("room history loaded")

	return &history, nil
}
