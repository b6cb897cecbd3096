package connection

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures a WebSocket transport.
type WSConfig struct {
	URL              string        // WebSocket URL (e.g., ws://localhost:8080/api/chat)
	HandshakeTimeout time.Duration // Max time for the opening handshake
	WriteTimeout     time.Duration // Write deadline for sends and pings
	PingInterval     time.Duration // How often we ping the server
	PingTimeout      time.Duration // Max time without ping/pong before considering connection stale
	ReadLimit        int64         // Max inbound frame size (0 = unlimited)
	UserAgent        string        // Sent with the handshake when set
}

// DefaultWSConfig returns sensible defaults.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		URL:              "ws://localhost:8080/api/chat",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      90 * time.Second,
		ReadLimit:        1 << 20,
	}
}

// WSTransport is a Transport over gorilla/websocket.
type WSTransport struct {
	cfg    WSConfig
	logger *slog.Logger

	onOpen    func()
	onMessage func(string)
	onError   func(error)
	onClose   func()

	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{} // closed when the connection has ended

	// Write serialization
	writeMu sync.Mutex

	// State
	mu         sync.RWMutex
	opened     bool
	connected  bool
	closed     bool
	lastPingAt time.Time

	failed    atomic.Bool
	closeOnce sync.Once
}

// NewWSTransport creates an unopened WebSocket transport.
func NewWSTransport(cfg WSConfig, logger *slog.Logger) *WSTransport {
	if logger == nil {
		logger = slog.Default()
	}

	return &WSTransport{
		cfg:    cfg,
		logger: logger,
		done:   make(chan struct{}),
	}
}

func (t *WSTransport) OnOpen(fn func())               { t.onOpen = fn }
func (t *WSTransport) OnMessage(fn func(data string)) { t.onMessage = fn }
func (t *WSTransport) OnError(fn func(err error))     { t.onError = fn }
func (t *WSTransport) OnClose(fn func())              { t.onClose = fn }

// Open starts dialing in the background.
func (t *WSTransport) Open(ctx context.Context) {
	t.mu.Lock()
	if t.opened || t.closed {
		t.mu.Unlock()
		return
	}
	t.opened = true
	ctx, t.cancel = context.WithCancel(ctx)
	t.mu.Unlock()

	go t.run(ctx)
}

// Close gracefully closes the connection. OnClose fires without OnError.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.connected = false
	conn := t.conn
	cancel := t.cancel
	opened := t.opened
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !opened {
		t.finish()
		return nil
	}

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}

	return nil
}

// Send writes one text frame.
func (t *WSTransport) Send(text string) error {
	t.mu.RLock()
	closed, connected, conn := t.closed, t.connected, t.conn
	t.mu.RUnlock()

	if closed {
		return ErrAlreadyClosed
	}
	if !connected {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// IsConnected returns the current connection state.
func (t *WSTransport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

func (t *WSTransport) run(ctx context.Context) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: t.cfg.HandshakeTimeout,
	}

	header := http.Header{}
	if t.cfg.UserAgent != "" {
		header.Set("User-Agent", t.cfg.UserAgent)
	}

	conn, _, err := dialer.DialContext(ctx, t.cfg.URL, header)
	if err != nil {
		if !t.isClosed() {
			t.emitError(fmt.Errorf("%w: dial %s: %w", ErrTransport, t.cfg.URL, err))
		}
		t.finish()
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		t.finish()
		return
	}
	t.conn = conn
	t.connected = true
	t.lastPingAt = time.Now()
	t.mu.Unlock()

	if t.cfg.ReadLimit > 0 {
		conn.SetReadLimit(t.cfg.ReadLimit)
	}

	// Server sends ping, we respond with pong
	conn.SetPingHandler(func(data string) error {
		t.touch()
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	// Server responds to our ping
	conn.SetPongHandler(func(string) error {
		t.touch()
		return nil
	})

	t.logger.Debug("websocket connected", "url", t.cfg.URL)
	if t.onOpen != nil {
		t.onOpen()
	}

	go t.heartbeatLoop(conn)
	t.readLoop(conn)
}

// readLoop delivers frames until the connection ends, then fires OnClose.
func (t *WSTransport) readLoop(conn *websocket.Conn) {
	defer t.finish()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Errors after Close() are expected
			if !t.isClosed() {
				t.emitError(fmt.Errorf("%w: read: %w", ErrTransport, err))
			}
			return
		}

		if t.onMessage != nil {
			t.onMessage(string(data))
		}
	}
}

// heartbeatLoop pings the server and closes stale connections.
func (t *WSTransport) heartbeatLoop(conn *websocket.Conn) {
	interval := t.cfg.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(t.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				t.logger.Debug("failed to send ping", "error", err)
			}

			if t.cfg.PingTimeout <= 0 {
				continue
			}

			t.mu.RLock()
			lastPing := t.lastPingAt
			t.mu.RUnlock()

			if time.Since(lastPing) > t.cfg.PingTimeout {
				t.logger.Warn("no ping received, connection stale",
					"last_ping", lastPing,
					"timeout", t.cfg.PingTimeout,
				)
				t.emitError(fmt.Errorf("%w: %w", ErrTransport, ErrStaleConnection))
				conn.Close()
				return
			}
		}
	}
}

func (t *WSTransport) touch() {
	t.mu.Lock()
	t.lastPingAt = time.Now()
	t.mu.Unlock()
}

func (t *WSTransport) isClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// emitError reports the first failure only.
func (t *WSTransport) emitError(err error) {
	if !t.failed.CompareAndSwap(false, true) {
		return
	}
	t.logger.Debug("websocket error", "url", t.cfg.URL, "error", err)
	if t.onError != nil {
		t.onError(err)
	}
}

func (t *WSTransport) finish() {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.connected = false
		cancel := t.cancel
		t.mu.Unlock()

		close(t.done)
		if cancel != nil {
			cancel()
		}
		if t.onClose != nil {
			t.onClose()
		}
	})
}

// WSDialer creates a WSTransport per connection attempt.
type WSDialer struct {
	cfg    WSConfig
	logger *slog.Logger
}

// NewWSDialer creates a dialer for the given endpoint.
func NewWSDialer(cfg WSConfig, logger *slog.Logger) *WSDialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSDialer{cfg: cfg, logger: logger}
}

// NewTransport returns a fresh, unopened transport.
func (d *WSDialer) NewTransport() Transport {
	return NewWSTransport(d.cfg, d.logger)
}
