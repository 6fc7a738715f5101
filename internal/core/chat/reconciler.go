package chat

import (
	"sync"
	"time"

	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/api"
)

// Reconciler merges history entries and live events into one ordered,
// ownership-tagged message sequence. Ordering is arrival order: all
// history messages first, in server order, then live messages in receipt
// order. Messages are never removed, edited or reordered.
//
// The transport goroutine appends while the renderer reads, so access is
// guarded and reads return snapshots.
type Reconciler struct {
	mu     sync.Mutex
	roomID int
	selfID int
	msgs   []Message
}

// NewReconciler creates a reconciler for a room. selfID is the caller's
// participant id from the history response; live ownership tagging
// compares against it.
func NewReconciler(roomID, selfID int) *Reconciler {
	return &Reconciler{roomID: roomID, selfID: selfID}
}

// LoadHistory maps server history entries into messages, preserving
// server order. Ownership for history entries is taken from the server's
// owner flag; the server already knows who is viewing.
func (r *Reconciler) LoadHistory(entries []api.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		r.msgs = append(r.msgs, Message{
			RoomID:          e.ChatRoomID,
			SenderAccountID: e.MemberID,
			Nickname:        e.Nickname,
			Body:            e.Content,
			CreatedAt:       parseHistoryTime(e.CreatedAt),
			Own:             e.Owner,
		})
	}
}

// ApplyLive appends one live event. Ownership is derived by comparing the
// event's participant id to the session's own; the timestamp is the
// client receipt time since the bus carries none. Senders missing from
// the roster (joined after history load) are rendered from the event's
// embedded nickname, so no roster lookup happens here.
func (r *Reconciler) ApplyLive(p LivePayload, receivedAt time.Time) Message {
	msg := Message{
		RoomID:              p.ChatRoomID,
		SenderParticipantID: p.ChatRoomMemberID,
		SenderAccountID:     p.MemberID,
		Nickname:            p.Nickname,
		Body:                p.Content,
		CreatedAt:           receivedAt,
		Own:                 p.ChatRoomMemberID == r.selfID,
	}

	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	return msg
}

// Messages returns a snapshot of the reconciled sequence.
func (r *Reconciler) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Len returns the number of reconciled messages.
func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}
