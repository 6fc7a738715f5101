package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/api"
)

// mockHistory implements HistoryLoader for testing.
type mockHistory struct {
	history *api.RoomHistory
	err     error
	calls   int
}

func (m *mockHistory) RoomHistory(_ context.Context, _ int) (*api.RoomHistory, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.history, nil
}

// mockTransport implements Transport for testing. Activate captures the
// callbacks so tests can drive connect/error sequences by hand.
type mockTransport struct {
	mu sync.Mutex

	activated   bool
	onConnect   func()
	onError     func(error)
	subscribes  []string
	handlers    map[string]func([]byte)
	published   []published
	publishErr  error
	disconnects int
}

type published struct {
	destination string
	body        []byte
}

func newMockTransport() *mockTransport {
	return &mockTransport{handlers: make(map[string]func([]byte))}
}

func (m *mockTransport) Activate(onConnect func(), onError func(error)) {
	m.mu.Lock()
	m.activated = true
	m.onConnect = onConnect
	m.onError = onError
	m.mu.Unlock()
}

func (m *mockTransport) Subscribe(destination string, handler func([]byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribes = append(m.subscribes, destination)
	m.handlers[destination] = handler
	return nil
}

func (m *mockTransport) Publish(destination string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, published{destination: destination, body: body})
	return nil
}

func (m *mockTransport) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnects++
	return nil
}

// connect simulates a completed broker handshake.
func (m *mockTransport) connect() {
	m.mu.Lock()
	cb := m.onConnect
	m.mu.Unlock()
	cb()
}

// fail simulates a broken broker session.
func (m *mockTransport) fail(err error) {
	m.mu.Lock()
	cb := m.onError
	m.mu.Unlock()
	cb(err)
}

// deliver pushes a live event body at the registered topic handler.
func (m *mockTransport) deliver(t *testing.T, destination string, body string) {
	t.Helper()
	m.mu.Lock()
	handler := m.handlers[destination]
	m.mu.Unlock()
	require.NotNil(t, handler, "no handler registered for %s", destination)
	handler([]byte(body))
}

func testHistory() *api.RoomHistory {
	return &api.RoomHistory{
		ChatMessages: []api.ChatMessage{
			{ChatRoomID: 1, MemberID: 100, Nickname: "me", Content: "hello", CreatedAt: "2024-03-01T10:00:00", Owner: true},
			{ChatRoomID: 1, MemberID: 200, Nickname: "partner", Content: "hi", CreatedAt: "2024-03-01T10:01:00", Owner: false},
		},
		ChatMembers: []api.ChatMember{
			{ChatRoomMemberID: 7, ChatRoomID: 1, Nickname: "me"},
			{ChatRoomMemberID: 9, ChatRoomID: 1, Nickname: "partner"},
		},
		Name:                "mentoring",
		CurrentChatMemberID: 7,
	}
}

func newTestController(t *testing.T, hist *mockHistory, trans *mockTransport) *Controller {
	t.Helper()
	return NewController(1, hist, trans, zerolog.Nop())
}

func TestController_Start_SubscribeOnlyAfterHistory(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Start(context.Background()))

	// The transport is activated only after the history resolved, and
	// no subscription exists until the handshake completes.
	assert.True(t, trans.activated)
	assert.Empty(t, trans.subscribes)

	trans.connect()

	require.Equal(t, []string{"/topic/chat/1"}, trans.subscribes)
	assert.Equal(t, StateReady, ctrl.State())
	assert.Equal(t, 7, ctrl.Identity().SelfParticipantID)
	assert.Equal(t, "mentoring", ctrl.Identity().RoomName)
}

func TestController_Start_HistoryFailureIsTerminal(t *testing.T) {
	hist := &mockHistory{err: api.ErrHistoryLoad}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	err := ctrl.Start(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrHistoryLoad)
	assert.Equal(t, StateHistoryFailed, ctrl.State())
	assert.False(t, trans.activated, "transport must not open without a participant id")
	assert.Equal(t, 1, hist.calls)
}

func TestController_Start_Twice(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Start(context.Background()))
	assert.Error(t, ctrl.Start(context.Background()))
	assert.Equal(t, 1, hist.calls, "history runs exactly once per session")
}

func TestController_LiveEventAppended(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Start(context.Background()))
	trans.connect()

	trans.deliver(t, "/topic/chat/1", `{"chatRoomId":1,"nickname":"me","content":"live one","chatRoomMemberId":7,"memberId":100}`)

	msgs := ctrl.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "live one", msgs[2].Body)
	assert.True(t, msgs[2].Own)
	assert.False(t, msgs[2].CreatedAt.IsZero())
}

func TestController_MalformedLiveEventDropped(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Start(context.Background()))
	trans.connect()

	trans.deliver(t, "/topic/chat/1", `{"nickname":"ghost","content":"boo"}`)

	assert.Len(t, ctrl.Messages(), 2, "event without identity fields is dropped at the boundary")
}

func TestController_SendMessage(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Start(context.Background()))
	trans.connect()

	require.NoError(t, ctrl.SendMessage("hello there"))

	require.Len(t, trans.published, 1)
	assert.Equal(t, SendDestination, trans.published[0].destination)

	var out OutboundMessage
	require.NoError(t, json.Unmarshal(trans.published[0].body, &out))
	assert.Equal(t, OutboundMessage{
		ChatRoomID:       1,
		Nickname:         "me",
		Content:          "hello there",
		ChatRoomMemberID: 7,
	}, out)
}

func TestController_SendMessage_WhitespaceOnlyIsNoOp(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Start(context.Background()))
	trans.connect()
	before := ctrl.State()

	err := ctrl.SendMessage("   ")

	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, trans.published, "no publish for whitespace-only input")
	assert.Equal(t, before, ctrl.State(), "no state change")
}

func TestController_SendMessage_NotReady(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Start(context.Background()))
	// Handshake never completed.

	err := ctrl.SendMessage("hello")

	require.Error(t, err)
	assert.Empty(t, trans.published, "message is dropped, not queued")
}

func TestController_ReconnectKeepsIdentity(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Start(context.Background()))
	trans.connect()
	require.Equal(t, StateReady, ctrl.State())

	trans.fail(errors.New("broker went away"))
	assert.Equal(t, StateConnecting, ctrl.State())

	trans.connect()

	assert.Equal(t, StateReady, ctrl.State())
	assert.Equal(t, 1, hist.calls, "no fresh history fetch across reconnects")
	assert.Equal(t, 7, ctrl.Identity().SelfParticipantID)
	assert.Equal(t, []string{"/topic/chat/1", "/topic/chat/1"}, trans.subscribes, "re-subscribed after reconnect")
}

func TestController_ConnectFailsTwiceThenSucceeds(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Start(context.Background()))

	trans.fail(errors.New("refused"))
	trans.fail(errors.New("refused"))
	assert.Equal(t, StateConnecting, ctrl.State())

	trans.connect()

	assert.Equal(t, StateReady, ctrl.State())
	assert.Equal(t, []string{"/topic/chat/1"}, trans.subscribes, "exactly one active subscription")
}

func TestController_CloseIsIdempotent(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Start(context.Background()))
	trans.connect()

	require.NoError(t, ctrl.Close())
	require.NoError(t, ctrl.Close())

	assert.Equal(t, StateClosed, ctrl.State())
	assert.Equal(t, 1, trans.disconnects, "disconnect side effect runs once")
}

func TestController_CloseBeforeStart(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Close())
	assert.Equal(t, StateClosed, ctrl.State())
}

func TestController_EventsCarryLiveMessages(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Start(context.Background()))
	trans.connect()
	trans.deliver(t, "/topic/chat/1", `{"chatRoomId":1,"nickname":"partner","content":"ping","chatRoomMemberId":9,"memberId":200}`)

	var got []Event
	for {
		select {
		case ev := <-ctrl.Events():
			got = append(got, ev)
			continue
		default:
		}
		break
	}

	var messages []Message
	var states []State
	for _, ev := range got {
		switch ev.Kind {
		case EventMessage:
			messages = append(messages, ev.Message)
		case EventState:
			states = append(states, ev.State)
		}
	}

	require.Len(t, messages, 1)
	assert.Equal(t, "ping", messages[0].Body)
	assert.False(t, messages[0].Own)
	assert.Contains(t, states, StateReady)
}

func TestController_RosterSorted(t *testing.T) {
	hist := &mockHistory{history: testHistory()}
	trans := newMockTransport()
	ctrl := newTestController(t, hist, trans)

	require.NoError(t, ctrl.Start(context.Background()))

	roster := ctrl.Roster()
	require.Len(t, roster, 2)
	assert.Equal(t, 7, roster[0].ParticipantID)
	assert.Equal(t, 9, roster[1].ParticipantID)
}
