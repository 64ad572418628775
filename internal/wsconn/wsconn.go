// Package wsconn provides a WebSocket client with keep-alive pings and
// automatic reconnection, built on coder/websocket.
package wsconn

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL  string
	Name string

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite

	PingInterval time.Duration // 0 disables pings
	ReadTimeout  time.Duration // 0 waits forever
	WriteTimeout time.Duration

	// MaxMessageSize caps a single inbound message. Larger messages drop the connection.
	MaxMessageSize int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0,
		PingInterval:   30 * time.Second,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// MessageHandler receives every inbound message.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler observes state transitions. err is set when a failure caused the transition.
type StateHandler func(state State, err error)

// Client is safe for concurrent use.
type Client struct {
	config Config

	mu    sync.RWMutex
	conn  *websocket.Conn
	state State

	handlersMu sync.RWMutex
	onMessage  MessageHandler
	onState    StateHandler

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New validates cfg and creates a disconnected client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("wsconn: empty url"))
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config: cfg,
		state:  StateDisconnected,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// OnMessage sets the inbound message handler.
func (c *Client) OnMessage(h MessageHandler) {
	c.handlersMu.Lock()
	c.onMessage = h
	c.handlersMu.Unlock()
}

// OnStateChange sets the state observer.
func (c *Client) OnStateChange(h StateHandler) {
	c.handlersMu.Lock()
	c.onState = h
	c.handlersMu.Unlock()
}

// Connect dials once. On failure the client stays disconnected.
func (c *Client) Connect(ctx context.Context) error {
	if c.State() == StateClosed {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
	}

	c.setState(StateConnecting, nil)
	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected, err)
		return err
	}
	return nil
}

// ConnectWithRetry dials until it succeeds, ctx ends or MaxReconnects attempts fail.
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	b := c.newBackoff()
	for attempt := 1; ; attempt++ {
		err := c.Connect(ctx)
		if err == nil {
			return nil
		}
		if c.config.MaxReconnects > 0 && attempt >= c.config.MaxReconnects {
			return err
		}
		if apperror.HasCode(err, apperror.CodeWebSocketClosed) {
			return err
		}

		select {
		case <-ctx.Done():
			return apperror.New(apperror.CodeWebSocketConnectionError,
				apperror.WithContext(c.config.Name), apperror.WithCause(ctx.Err()))
		case <-c.ctx.Done():
			return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
		case <-time.After(b.NextBackOff()):
		}
	}
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithContext(c.config.Name), apperror.WithCause(err))
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "client closed")
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
	}
	c.conn = conn
	c.mu.Unlock()

	c.setState(StateConnected, nil)

	go c.readLoop(conn)
	if c.config.PingInterval > 0 {
		go c.pingLoop(conn)
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		ctx := c.ctx
		var cancel context.CancelFunc = func() {}
		if c.config.ReadTimeout > 0 {
			ctx, cancel = context.WithTimeout(c.ctx, c.config.ReadTimeout)
		}
		_, data, err := conn.Read(ctx)
		cancel()

		if err != nil {
			c.dropped(conn, err)
			return
		}

		c.handlersMu.RLock()
		h := c.onMessage
		c.handlersMu.RUnlock()
		if h != nil {
			h(c.ctx, data)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if c.current() != conn {
				return
			}
			ctx, cancel := context.WithTimeout(c.ctx, c.config.WriteTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				_ = conn.Close(websocket.StatusGoingAway, "ping failed")
				return
			}
		}
	}
}

// dropped handles a dead connection: state goes to disconnected and a reconnect starts.
func (c *Client) dropped(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()

	_ = conn.CloseNow()
	c.setState(StateDisconnected, cause)
	go c.reconnect()
}

func (c *Client) reconnect() {
	b := c.newBackoff()
	for attempt := 1; c.config.MaxReconnects == 0 || attempt <= c.config.MaxReconnects; attempt++ {
		c.setState(StateReconnecting, nil)

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(b.NextBackOff()):
		}

		ctx, cancel := context.WithTimeout(c.ctx, c.config.MaxBackoff)
		err := c.dial(ctx)
		cancel()
		if err == nil {
			return
		}
		if apperror.HasCode(err, apperror.CodeWebSocketClosed) {
			return
		}
		c.setState(StateDisconnected, err)
	}
}

func (c *Client) newBackoff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     c.config.InitialBackoff,
		RandomizationFactor: 0.2,
		Multiplier:          2,
		MaxInterval:         c.config.MaxBackoff,
	}
	b.Reset()
	return b
}

// Send writes a text message.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	conn := c.current()
	if conn == nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext(c.config.Name+": not connected"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.WriteTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext(c.config.Name), apperror.WithCause(err))
	}
	return nil
}

// SendJSON encodes v as JSON and writes it.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	conn := c.current()
	if conn == nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext(c.config.Name+": not connected"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.WriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, v); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext(c.config.Name), apperror.WithCause(err))
	}
	return nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether a connection is up.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close stops reconnection and closes the connection. It is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()

		c.setState(StateClosed, nil)

		if conn != nil {
			// The peer may already be gone; a failed close handshake is not actionable.
			_ = conn.Close(websocket.StatusNormalClosure, "client closed")
		}
	})
	return nil
}

func (c *Client) current() *websocket.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// setState records a transition. Closed is terminal.
func (c *Client) setState(s State, cause error) {
	c.mu.Lock()
	if c.state == StateClosed || c.state == s && cause == nil {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()

	c.handlersMu.RLock()
	h := c.onState
	c.handlersMu.RUnlock()
	if h != nil {
		h(s, cause)
	}
}
