package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// History is the ordered list of sessions plus the index of the current one.
// Sessions are only ever appended; records are only ever appended to a session.
type History struct {
	store  Store
	key    string
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions []*Session
	current  int // -1 when there is no current session
}

// NewHistory creates an empty history backed by store. A nil store keeps
// history in memory only.
func NewHistory(store Store, key string, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		key = DefaultKey
	}

	return &History{
		store:   store,
		key:     key,
		logger:  logger,
		now:     time.Now,
		current: -1,
	}
}

// Load replaces the in-memory list with the persisted snapshot. The newest
// session becomes current. Absent or corrupt snapshots leave the history empty.
func (h *History) Load(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions = nil
	h.current = -1

	if h.store == nil {
		return
	}

	data, err := h.store.Load(ctx, h.key)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			h.logger.Warn("unable to load chat history", "key", h.key, "error", err)
		}
		return
	}

	var sessions []*Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		h.logger.Warn("discarding corrupt chat history", "key", h.key, "error", err)
		return
	}

	for _, s := range sessions {
		if s != nil {
			h.sessions = append(h.sessions, s)
		}
	}
	h.current = len(h.sessions) - 1

	h.logger.Debug("chat history loaded", "sessions", len(h.sessions))
}

// NewSession appends an empty session, makes it current and persists.
func (h *History) NewSession(ctx context.Context) Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &Session{
		ID:        SessionID(uuid.NewString()),
		Records:   []Record{},
		CreatedAt: h.now().UTC(),
	}
	h.sessions = append(h.sessions, s)
	h.current = len(h.sessions) - 1
	h.persistLocked(ctx)

	return s.clone()
}

// Append adds a record to the current session and persists. It reports
// false when there is no current session.
func (h *History) Append(ctx context.Context, text string, dir Direction) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current < 0 {
		return false
	}

	s := h.sessions[h.current]
	s.Records = append(s.Records, Record{
		Text:      text,
		Direction: dir,
		Timestamp: h.now().UTC(),
	})
	h.persistLocked(ctx)
	return true
}

// Select makes the session at index current and returns a copy of it.
func (h *History) Select(index int) (Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if index < 0 || index >= len(h.sessions) {
		return Session{}, false
	}
	h.current = index
	return h.sessions[index].clone(), true
}

// Current returns a copy of the current session.
func (h *History) Current() (Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.current < 0 {
		return Session{}, false
	}
	return h.sessions[h.current].clone(), true
}

// CurrentIndex returns the index of the current session, or -1.
func (h *History) CurrentIndex() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Sessions returns a copy of every session in order.
func (h *History) Sessions() []Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Session, len(h.sessions))
	for i, s := range h.sessions {
		out[i] = s.clone()
	}
	return out
}

// Len returns the number of sessions.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// persistLocked writes the snapshot. Failures are logged and dropped.
func (h *History) persistLocked(ctx context.Context) {
	if h.store == nil {
		return
	}

	data, err := json.Marshal(h.sessions)
	if err != nil {
		h.logger.Warn("unable to encode chat history", "error", err)
		return
	}

	if err := h.store.Save(ctx, h.key, data); err != nil {
		h.logger.Warn("unable to save chat history", "key", h.key, "error", err)
	}
}
