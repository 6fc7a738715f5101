// Package chat implements the room session core: domain types, the
// message reconciler merging history with live traffic, and the session
// controller orchestrating history load, transport lifecycle and teardown.
package chat

import (
	"encoding/json"
	"fmt"
	"time"
)

// SendDestination is the broker destination for outbound chat messages.
const SendDestination = "/app/chat/message"

// TopicForRoom returns the broker topic carrying a room's live messages.
func TopicForRoom(roomID int) string {
	return fmt.Sprintf("/topic/chat/%d", roomID)
}

// RoomIdentity identifies the caller's place in a room. It is populated
// once from the history response and never mutated afterwards. The
// participant id is the caller's membership slot in this room, distinct
// from the account id.
type RoomIdentity struct {
	RoomID            int
	RoomName          string
	SelfParticipantID int
}

// Participant is one membership slot in a room. Nicknames are set at join
// time and are not assumed unique.
type Participant struct {
	ParticipantID int
	Nickname      string
}

// Message is one reconciled chat message. Own is derived locally, never
// transmitted: history entries carry an owner flag computed server-side,
// live events are compared against the session's own participant id.
//
// CreatedAt is server-assigned for history entries and client receipt
// time for live entries; the asymmetry comes from the bus not carrying a
// server timestamp and is preserved deliberately.
type Message struct {
	RoomID              int
	SenderParticipantID int // zero for history entries; their wire shape carries only the account id
	SenderAccountID     int
	Nickname            string
	Body                string
	CreatedAt           time.Time
	Own                 bool
}

// LivePayload is the tagged wire shape of one live event pushed on a
// room topic. It is validated at the transport boundary before it
// reaches the reconciler.
type LivePayload struct {
	ChatRoomID       int    `json:"chatRoomId"`
	Nickname         string `json:"nickname"`
	Content          string `json:"content"`
	ChatRoomMemberID int    `json:"chatRoomMemberId"`
	MemberID         int    `json:"memberId"`
}

// ParseLivePayload decodes and validates a live event body. Events that
// do not carry the fields ownership tagging depends on are rejected
// rather than guessed at.
func ParseLivePayload(data []byte) (LivePayload, error) {
	var p LivePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return LivePayload{}, fmt.Errorf("decode live event: %w", err)
	}
	if p.ChatRoomID <= 0 {
		return LivePayload{}, fmt.Errorf("live event missing chatRoomId")
	}
	if p.ChatRoomMemberID <= 0 {
		return LivePayload{}, fmt.Errorf("live event missing chatRoomMemberId")
	}
	return p, nil
}

// OutboundMessage is the wire shape of a message published by this
// client.
type OutboundMessage struct {
	ChatRoomID       int    `json:"chatRoomId"`
	Nickname         string `json:"nickname"`
	Content          string `json:"content"`
	ChatRoomMemberID int    `json:"chatRoomMemberId"`
}

// historyTimeLayouts covers the timestamp forms the backend emits:
// zoned RFC 3339 and Java's zone-less LocalDateTime serialization.
var historyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseHistoryTime(s string) time.Time {
	for _, layout := range historyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
