package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/api"
)

// ErrEmptyMessage is returned by SendMessage for whitespace-only input.
// It is a local validation no-op, not a user-visible error.
var ErrEmptyMessage = errors.New("chat: empty message")

// State is the lifecycle state of a room session.
type State string

const (
	StateUninitialized  State = "uninitialized"
	StateLoadingHistory State = "loading_history"
	StateHistoryFailed  State = "history_failed"
	StateHistoryLoaded  State = "history_loaded"
	StateConnecting     State = "connecting"
	StateReady          State = "ready"
	StateClosing        State = "closing"
	StateClosed         State = "closed"
)

// HistoryLoader fetches a room's history, roster and the caller's own
// participant id. Implemented by api.Client.
type HistoryLoader interface {
	RoomHistory(ctx context.Context, roomID int) (*api.RoomHistory, error)
}

// Transport is the persistent pub/sub connection to the message bus.
// Implemented by stomp.Client. onConnect fires after every successful
// handshake including reconnects; subscriptions are re-registered there.
type Transport interface {
	Activate(onConnect func(), onError func(error))
	Subscribe(destination string, handler func(body []byte)) error
	Publish(destination string, body []byte) error
	Disconnect() error
}

// EventKind tags events emitted by a Controller.
type EventKind int

const (
	// EventState signals a lifecycle state change.
	EventState EventKind = iota
	// EventMessage signals a newly reconciled live message.
	EventMessage
	// EventWarning carries a transient, user-visible warning.
	EventWarning
)

// Event is one session event delivered to the presentation layer.
type Event struct {
	Kind    EventKind
	State   State
	Message Message
	Warning string
}

// Controller orchestrates one room session: it loads history exactly
// once, opens the transport only after the caller's participant id is
// known, registers the reconciler on the room topic, and tears
// everything down on Close. The controller owns the transport for the
// session's duration; no other component touches the connection.
type Controller struct {
	roomID    int
	history   HistoryLoader
	transport Transport
	log       zerolog.Logger

	mu       sync.Mutex
	state    State
	identity RoomIdentity
	roster   map[int]Participant
	rec      *Reconciler
	closed   bool

	events chan Event
}

// NewController creates a controller for the given room. Start must be
// called before SendMessage.
func NewController(roomID int, history HistoryLoader, transport Transport, log zerolog.Logger) *Controller {
	return &Controller{
		roomID:    roomID,
		history:   history,
		transport: transport,
		log:       log,
		state:     StateUninitialized,
		events:    make(chan Event, 64),
	}
}

// Events returns the session event stream consumed by the presentation
// layer. Events are dropped, not blocked on, if the consumer lags.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Start runs the session startup sequence: fetch history, build the
// room identity and roster, then activate the transport. History is
// fetched exactly once per session and never retried; on failure the
// session is terminally failed and the transport is never opened,
// because ownership tagging depends on the participant id the history
// response carries.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUninitialized {
		c.mu.Unlock()
		return fmt.Errorf("session already started (state %s)", c.state)
	}
	c.state = StateLoadingHistory
	c.mu.Unlock()
	c.emitState(StateLoadingHistory)

	hist, err := c.history.RoomHistory(ctx, c.roomID)
	if err != nil {
		c.setState(StateHistoryFailed)
		c.log.Error().Err(err).Int("room_id", c.roomID).Msg("history load failed")
		return err
	}

	roster := make(map[int]Participant, len(hist.ChatMembers))
	for _, m := range hist.ChatMembers {
		roster[m.ChatRoomMemberID] = Participant{
			ParticipantID: m.ChatRoomMemberID,
			Nickname:      m.Nickname,
		}
	}

	c.mu.Lock()
	c.identity = RoomIdentity{
		RoomID:            c.roomID,
		RoomName:          hist.Name,
		SelfParticipantID: hist.CurrentChatMemberID,
	}
	c.roster = roster
	c.rec = NewReconciler(c.roomID, hist.CurrentChatMemberID)
	c.state = StateHistoryLoaded
	c.mu.Unlock()

	c.rec.LoadHistory(hist.ChatMessages)
	c.emitState(StateHistoryLoaded)

	c.log.Info().
		Int("room_id", c.roomID).
		Int("self_participant_id", hist.CurrentChatMemberID).
		Int("history", len(hist.ChatMessages)).
		Msg("session initialized")

	c.setState(StateConnecting)
	c.transport.Activate(c.onTransportConnect, c.onTransportError)
	return nil
}

// onTransportConnect registers the room subscription. It runs after
// every handshake, so roster and identity persist across reconnects
// without a fresh history fetch.
func (c *Controller) onTransportConnect() {
	if err := c.transport.Subscribe(TopicForRoom(c.roomID), c.onLiveEvent); err != nil {
		c.log.Error().Err(err).Msg("subscribe failed")
		c.onTransportError(err)
		return
	}
	c.setState(StateReady)
}

// onTransportError reflects a broken transport session; the transport
// itself retries with its fixed delay until Close.
func (c *Controller) onTransportError(err error) {
	c.mu.Lock()
	if c.closed || c.state == StateClosing || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	c.log.Warn().Err(err).Int("room_id", c.roomID).Msg("transport session lost")
	c.emit(Event{Kind: EventState, State: StateConnecting})
	c.emit(Event{Kind: EventWarning, Warning: "connection lost, reconnecting"})
}

// onLiveEvent validates one bus event and hands it to the reconciler.
// Malformed payloads are dropped at the boundary.
func (c *Controller) onLiveEvent(body []byte) {
	payload, err := ParseLivePayload(body)
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping malformed live event")
		return
	}

	msg := c.rec.ApplyLive(payload, time.Now())
	c.emit(Event{Kind: EventMessage, Message: msg})
}

// SendMessage publishes body to the room. Whitespace-only input is
// rejected as a no-op with ErrEmptyMessage and no state change. If the
// transport is not in a subscribed session the message is dropped, not
// queued, and the transport error is returned for a transient warning.
func (c *Controller) SendMessage(body string) error {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.state != StateReady {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("not connected (state %s)", state)
	}
	identity := c.identity
	nickname := "anonymous"
	if p, ok := c.roster[identity.SelfParticipantID]; ok {
		nickname = p.Nickname
	}
	c.mu.Unlock()

	payload, err := json.Marshal(OutboundMessage{
		ChatRoomID:       identity.RoomID,
		Nickname:         nickname,
		Content:          body,
		ChatRoomMemberID: identity.SelfParticipantID,
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	if err := c.transport.Publish(SendDestination, payload); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close tears the session down from any state and is idempotent. The
// transport disconnect runs even when startup never finished.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateClosing
	c.mu.Unlock()

	err := c.transport.Disconnect()

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()

	c.log.Debug().Int("room_id", c.roomID).Msg("session closed")
	return err
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the room identity. Zero until history has loaded.
func (c *Controller) Identity() RoomIdentity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Roster returns the room's participants as loaded at session start,
// sorted by participant id. Participants who join mid-session are not
// reflected; live events embed enough identity to render without them.
func (c *Controller) Roster() []Participant {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Participant, 0, len(c.roster))
	for _, p := range c.roster {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out
}

// Messages returns a snapshot of the reconciled message sequence.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	rec := c.rec
	c.mu.Unlock()

	if rec == nil {
		return nil
	}
	return rec.Messages()
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()
	c.emitState(s)
}

func (c *Controller) emitState(s State) {
	c.emit(Event{Kind: EventState, State: s})
}

func (c *Controller) emit(ev Event) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		c.log.Warn().Msg("event channel full, dropping event")
	}
}
