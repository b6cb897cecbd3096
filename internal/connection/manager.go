package connection

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rickgao/easybook-chat/internal/format"
	"github.com/rickgao/easybook-chat/internal/metrics"
	"github.com/rickgao/easybook-chat/internal/session"
)

// Manager owns the chat connection and the session history it feeds.
type Manager interface {
	// Run loads history, opens the first connection and processes events
	// until ctx is cancelled. It must be called exactly once.
	Run(ctx context.Context) error

	// Send transmits user text. Blank text is ignored.
	Send(text string)

	// SendQuick sends a canned quick-action prompt.
	SendQuick(text string)

	// Announce displays a system message and records it in the current session.
	Announce(text string)

	// Restart resets the attempt counter and dials immediately.
	Restart()

	// NewSession starts a new current session and returns it.
	NewSession() (session.Session, bool)

	// SelectSession makes an existing session current and returns it.
	SelectSession(index int) (session.Session, bool)

	// History returns the session history. It is safe for concurrent reads.
	History() *session.History

	// Stats returns current connection statistics.
	Stats() ManagerStats
}

// Option configures a manager.
type Option func(*manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records connection metrics.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *manager) { m.metrics = mt }
}

// WithScheduler replaces time.AfterFunc for reconnect timers.
func WithScheduler(after func(d time.Duration, fn func())) Option {
	return func(m *manager) {
		if after != nil {
			m.after = after
		}
	}
}

// manager implements the Manager interface.
type manager struct {
	cfg      ManagerConfig
	dialer   Dialer
	consumer Consumer
	history  *session.History
	metrics  *metrics.Metrics
	logger   *slog.Logger
	after    func(time.Duration, func())

	queue  *eventQueue
	exited chan struct{}

	// Owned by the loop goroutine
	ctx        context.Context
	state      State
	transport  Transport
	generation uint64
	closeSeen  bool // close already handled for the current generation
	attempts   int
	exhausted  bool
	stopped    bool

	// Snapshot for other goroutines
	statsMu sync.RWMutex
	stats   ManagerStats
}

// NewManager creates a manager. Nothing is dialed until Run.
func NewManager(cfg ManagerConfig, dialer Dialer, consumer Consumer, history *session.History, opts ...Option) Manager {
	if cfg.MaxReconnectAttempts < 1 {
		cfg.MaxReconnectAttempts = DefaultManagerConfig().MaxReconnectAttempts
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = DefaultManagerConfig().ReconnectBaseDelay
	}
	if history == nil {
		history = session.NewHistory(nil, session.DefaultKey, nil)
	}

	m := &manager{
		cfg:      cfg,
		dialer:   dialer,
		consumer: consumer,
		history:  history,
		logger:   slog.Default(),
		after:    func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		queue:    newEventQueue(64),
		exited:   make(chan struct{}),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.publish()
	return m
}

// Run processes events until ctx is cancelled.
func (m *manager) Run(ctx context.Context) error {
	m.ctx = ctx

	go func() {
		select {
		case <-ctx.Done():
			m.queue.close()
		case <-m.exited:
		}
	}()

	m.history.Load(ctx)
	if m.history.Len() == 0 {
		m.history.NewSession(ctx)
	}
	m.connect()

	for {
		fn, ok := m.queue.pop()
		if !ok || ctx.Err() != nil {
			break
		}
		fn()
	}

	m.shutdown()
	return ctx.Err()
}

func (m *manager) shutdown() {
	m.queue.close()
	m.stopped = true
	m.generation++

	if m.transport != nil {
		if err := m.transport.Close(); err != nil {
			m.logger.Debug("close transport", "error", err)
		}
		m.transport = nil
	}
	m.setState(StateClosed)
	m.logger.Info("connection manager stopped")
	close(m.exited)
}

// post queues fn on the loop. Events arriving after shutdown are dropped.
func (m *manager) post(fn func()) {
	m.queue.push(fn)
}

// call runs fn on the loop and waits for it. It must not be called from a
// Consumer callback.
func (m *manager) call(fn func()) bool {
	done := make(chan struct{})
	if !m.queue.push(func() { fn(); close(done) }) {
		return false
	}
	select {
	case <-done:
		return true
	case <-m.exited:
		return false
	}
}

func (m *manager) Send(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	m.post(func() { m.send(text) })
}

func (m *manager) SendQuick(text string) {
	m.Send(text)
}

func (m *manager) Announce(text string) {
	m.post(func() { m.display(text) })
}

func (m *manager) Restart() {
	m.post(func() {
		if m.stopped {
			return
		}
		m.logger.Info("restarting connection", "attempts", m.attempts)
		m.attempts = 0
		m.exhausted = false
		m.connect()
	})
}

func (m *manager) NewSession() (session.Session, bool) {
	var s session.Session
	ok := m.call(func() { s = m.history.NewSession(m.ctx) })
	return s, ok
}

func (m *manager) SelectSession(index int) (session.Session, bool) {
	var (
		s     session.Session
		found bool
	)
	if !m.call(func() { s, found = m.history.Select(index) }) {
		return session.Session{}, false
	}
	return s, found
}

func (m *manager) History() *session.History {
	return m.history
}

func (m *manager) Stats() ManagerStats {
	m.statsMu.RLock()
	stats := m.stats
	m.statsMu.RUnlock()

	stats.Sessions = m.history.Len()
	return stats
}

// connect replaces any live transport with a fresh one and opens it.
func (m *manager) connect() {
	if m.transport != nil {
		old := m.transport
		m.transport = nil
		if err := old.Close(); err != nil {
			m.logger.Debug("close superseded transport", "error", err)
		}
	}

	m.generation++
	gen := m.generation
	m.closeSeen = false

	t := m.dialer.NewTransport()
	t.OnOpen(func() { m.post(func() { m.handleOpen(gen) }) })
	t.OnMessage(func(data string) { m.post(func() { m.handleMessage(gen, data) }) })
	t.OnError(func(err error) { m.post(func() { m.handleError(gen, err) }) })
	t.OnClose(func() { m.post(func() { m.handleClose(gen) }) })
	m.transport = t

	m.setState(StateConnecting)
	m.logger.Debug("connecting", "generation", gen, "attempt", m.attempts)
	t.Open(m.ctx)
}

func (m *manager) handleOpen(gen uint64) {
	if gen != m.generation {
		return
	}

	m.logger.Info("chat connection open", "generation", gen, "after_attempts", m.attempts)
	m.attempts = 0
	m.exhausted = false
	m.setState(StateOpen)
	m.consumer.OnStatusChange(true)
}

func (m *manager) handleError(gen uint64, err error) {
	if gen != m.generation {
		return
	}

	m.logger.Warn("chat connection error", "generation", gen, "error", err)
	if m.state != StateClosed {
		m.setState(StateClosed)
		m.consumer.OnStatusChange(false)
	}
}

func (m *manager) handleClose(gen uint64) {
	if gen != m.generation || m.closeSeen {
		return
	}
	m.closeSeen = true
	m.transport = nil

	m.logger.Info("chat connection closed", "generation", gen)
	if m.state != StateClosed {
		m.setState(StateClosed)
		m.consumer.OnStatusChange(false)
	}
	m.scheduleReconnect()
}

func (m *manager) scheduleReconnect() {
	if m.stopped {
		return
	}

	if m.attempts >= m.cfg.MaxReconnectAttempts {
		if !m.exhausted {
			m.exhausted = true
			m.publish()
			m.metrics.ObserveExhausted()
			m.logger.Error("giving up on chat connection",
				"error", ErrReconnectExhausted,
				"attempts", m.attempts,
			)
			m.display(MsgReconnectFailed)
		}
		return
	}

	m.attempts++
	delay := ReconnectDelay(m.cfg.ReconnectBaseDelay, m.attempts)
	gen := m.generation
	m.publish()
	m.metrics.ObserveReconnect()

	m.logger.Info("scheduling reconnect",
		"attempt", m.attempts,
		"max", m.cfg.MaxReconnectAttempts,
		"delay", delay,
	)
	m.after(delay, func() { m.post(func() { m.handleTimer(gen) }) })
}

func (m *manager) handleTimer(gen uint64) {
	if gen != m.generation || m.state != StateClosed || m.stopped {
		m.logger.Debug("dropping superseded reconnect timer", "generation", gen)
		return
	}
	m.connect()
}

func (m *manager) handleMessage(gen uint64, data string) {
	if gen != m.generation {
		return
	}

	m.consumer.OnHideTyping()

	in := decodeInbound(data)
	if in.err != nil {
		m.logger.Debug("showing payload verbatim", "error", in.err)
	}
	m.metrics.ObserveReceived(string(in.kind))

	m.display(in.text)
	if in.chart != nil {
		m.consumer.OnChartData(*in.chart)
	}
}

func (m *manager) send(text string) {
	if m.state != StateOpen || m.transport == nil {
		m.metrics.ObserveRejected()
		m.logger.Warn("send rejected", "error", ErrSendRejected, "state", m.state)
		m.display(MsgConnectionLost)
		m.reconnectNow()
		return
	}

	m.history.Append(m.ctx, text, session.DirectionUser)
	m.consumer.OnShowTyping()

	if err := m.transport.Send(text); err != nil {
		m.logger.Warn("send failed", "error", err)
		m.consumer.OnHideTyping()
		return
	}
	m.metrics.ObserveSent()
}

// reconnectNow dials immediately unless a dial is already in flight.
// The attempt counter is left alone.
func (m *manager) reconnectNow() {
	if m.stopped || m.state == StateConnecting {
		return
	}
	m.exhausted = false
	m.connect()
}

// display shows a system message and records it in the current session.
func (m *manager) display(text string) {
	m.consumer.OnDisplayMessage(text, format.Classify(text))
	m.history.Append(m.ctx, text, session.DirectionSystem)
}

func (m *manager) setState(s State) {
	m.state = s
	m.metrics.ObserveState(s.String(), stateNames)
	m.publish()
}

func (m *manager) publish() {
	m.statsMu.Lock()
	m.stats = ManagerStats{
		State:       m.state,
		Attempts:    m.attempts,
		MaxAttempts: m.cfg.MaxReconnectAttempts,
		Exhausted:   m.exhausted,
	}
	m.statsMu.Unlock()
}
