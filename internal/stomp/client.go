package stomp

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrNotConnected is returned by Subscribe and Publish when the client has
// no established broker session.
var ErrNotConnected = errors.New("stomp: not connected")

// State is the lifecycle state of the broker connection.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
	StateSubscribed State = "subscribed"
	StateError      State = "error"
	StateClosed     State = "closed"
)

// MessageHandler receives the body of a MESSAGE frame for a destination.
type MessageHandler func(body []byte)

// Options configures a Client.
type Options struct {
	// URL is the websocket endpoint of the broker, e.g.
	// ws://localhost:8080/ws-stomp.
	URL string

	// ReconnectDelay is the fixed delay between connection attempts.
	// Retries continue until Disconnect is called; there is no attempt
	// cap and no backoff growth.
	ReconnectDelay time.Duration

	Logger zerolog.Logger
}

type subscription struct {
	id      string
	handler MessageHandler
}

// Client maintains a STOMP session over a websocket connection. It owns
// the underlying connection exclusively; callers interact only through
// Subscribe, Publish and Disconnect.
type Client struct {
	opts Options

	mu    sync.Mutex
	conn  *websocket.Conn
	state State
	subs  map[string]subscription // destination -> active subscription
	byID  map[string]string       // subscription id -> destination

	onConnect func()
	onError   func(error)

	closed    chan struct{}
	closeOnce sync.Once
	done      sync.WaitGroup
}

// New creates a client for the given options. The connection is not
// opened until Activate is called.
func New(opts Options) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 5 * time.Second
	}
	return &Client{
		opts:   opts,
		state:  StateIdle,
		subs:   make(map[string]subscription),
		byID:   make(map[string]string),
		closed: make(chan struct{}),
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// setState transitions the connection state. A closed client stays
// closed so a session attempt racing Disconnect cannot resurrect it.
func (c *Client) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.state = s
}

// Activate opens the connection and keeps it alive until Disconnect.
// onConnect fires after every successful CONNECT handshake, including
// reconnects, and is where callers register subscriptions. onError fires
// once per failed attempt or broken session before the next retry.
func (c *Client) Activate(onConnect func(), onError func(error)) {
	c.mu.Lock()
	c.onConnect = onConnect
	c.onError = onError
	c.mu.Unlock()

	c.done.Add(1)
	go c.run()
}

func (c *Client) run() {
	defer c.done.Done()

	for {
		err := c.runSession()

		select {
		case <-c.closed:
			return
		default:
		}

		c.setState(StateError)
		c.opts.Logger.Warn().Err(err).
			Dur("retry_in", c.opts.ReconnectDelay).
			Msg("broker session ended, reconnecting")
		if c.onError != nil {
			c.onError(err)
		}

		select {
		case <-c.closed:
			return
		case <-time.After(c.opts.ReconnectDelay):
		}
	}
}

// runSession performs one full connect/handshake/read cycle and returns
// when the session breaks or the client is disconnected.
func (c *Client) runSession() error {
	c.setState(StateConnecting)

	conn, _, err := websocket.DefaultDialer.Dial(c.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}

	host := "localhost"
	if u, err := url.Parse(c.opts.URL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	connect := NewFrame(CmdConnect,
		HdrAcceptVersion, "1.2",
		HdrHost, host,
		HdrHeartBeat, "0,0",
	)
	if err := conn.WriteMessage(websocket.TextMessage, connect.Marshal()); err != nil {
		conn.Close()
		return fmt.Errorf("write CONNECT: %w", err)
	}

	frame, err := c.readFrame(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("read CONNECTED: %w", err)
	}
	switch frame.Command {
	case CmdConnected:
	case CmdError:
		conn.Close()
		return fmt.Errorf("broker rejected connect: %s", frame.Headers[HdrMessage])
	default:
		conn.Close()
		return fmt.Errorf("expected CONNECTED, got %s", frame.Command)
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.state = StateConnected
	// Subscriptions do not survive a new broker session; callers
	// re-register from onConnect.
	c.subs = make(map[string]subscription)
	c.byID = make(map[string]string)
	c.mu.Unlock()

	c.opts.Logger.Info().Str("url", c.opts.URL).Msg("stomp session established")

	if c.onConnect != nil {
		c.onConnect()
	}

	err = c.readLoop(conn)

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.Close()
	return err
}

func (c *Client) readFrame(conn *websocket.Conn) (*Frame, error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if IsHeartbeat(data) {
			continue
		}
		return Unmarshal(data)
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		frame, err := c.readFrame(conn)
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		switch frame.Command {
		case CmdMessage:
			c.dispatch(frame)
		case CmdError:
			return fmt.Errorf("broker error: %s", frame.Headers[HdrMessage])
		case CmdReceipt:
			// No receipts are requested; tolerate them anyway.
		default:
			c.opts.Logger.Debug().Str("command", frame.Command).Msg("ignoring frame")
		}
	}
}

// dispatch routes a MESSAGE frame to the handler registered for its
// subscription, falling back to the destination header when the broker
// omits the subscription id.
func (c *Client) dispatch(frame *Frame) {
	c.mu.Lock()
	var handler MessageHandler
	if dest, ok := c.byID[frame.Headers[HdrSubscription]]; ok {
		handler = c.subs[dest].handler
	} else if sub, ok := c.subs[frame.Headers[HdrDestination]]; ok {
		handler = sub.handler
	}
	c.mu.Unlock()

	if handler == nil {
		c.opts.Logger.Debug().
			Str("destination", frame.Headers[HdrDestination]).
			Msg("message for unknown subscription")
		return
	}
	handler(frame.Body)
}

// Subscribe registers handler for a destination and issues a SUBSCRIBE
// frame. At most one handler is active per destination; subscribing to
// the same destination again replaces the previous registration so
// duplicate delivery cannot occur.
func (c *Client) Subscribe(destination string, handler func(body []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || (c.state != StateConnected && c.state != StateSubscribed) {
		return ErrNotConnected
	}

	if prev, ok := c.subs[destination]; ok {
		unsub := NewFrame(CmdUnsubscribe, HdrID, prev.id)
		if err := c.conn.WriteMessage(websocket.TextMessage, unsub.Marshal()); err != nil {
			return fmt.Errorf("write UNSUBSCRIBE: %w", err)
		}
		delete(c.byID, prev.id)
	}

	sub := subscription{id: uuid.NewString(), handler: handler}
	frame := NewFrame(CmdSubscribe,
		HdrID, sub.id,
		HdrDestination, destination,
	)
	if err := c.conn.WriteMessage(websocket.TextMessage, frame.Marshal()); err != nil {
		return fmt.Errorf("write SUBSCRIBE: %w", err)
	}

	c.subs[destination] = sub
	c.byID[sub.id] = destination
	c.state = StateSubscribed
	return nil
}

// Publish sends body to a destination, fire-and-forget. A nil return
// means the frame was handed to the transport, not that it was delivered.
func (c *Client) Publish(destination string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || (c.state != StateConnected && c.state != StateSubscribed) {
		return ErrNotConnected
	}

	frame := NewFrame(CmdSend,
		HdrDestination, destination,
		HdrContentType, "application/json",
	)
	frame.Body = body
	if err := c.conn.WriteMessage(websocket.TextMessage, frame.Marshal()); err != nil {
		return fmt.Errorf("write SEND: %w", err)
	}
	return nil
}

// Disconnect closes the session and stops reconnecting. It is idempotent;
// calls after the first are no-ops.
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		close(c.closed)

		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.state = StateClosed
		c.mu.Unlock()

		if conn != nil {
			// Best effort: tell the broker we are leaving before
			// tearing down the socket.
			_ = conn.WriteMessage(websocket.TextMessage, NewFrame(CmdDisconnect).Marshal())
			_ = conn.Close()
		}

		c.done.Wait()
		c.opts.Logger.Debug().Msg("stomp client closed")
	})
	return nil
}
