package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultKey is the storage key of the history snapshot.
const DefaultKey = "easybook_chat_history"

// ErrNoSnapshot is returned by a Store when nothing is stored under a key.
var ErrNoSnapshot = errors.New("no snapshot")

// Direction records who produced a message.
type Direction string

const (
	DirectionUser   Direction = "user"
	DirectionSystem Direction = "bot"
)

// Record is one chat message.
type Record struct {
	Text      string    `json:"message"`
	Direction Direction `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionID identifies a session. New sessions use UUIDs; snapshots written
// by the browser widget carry a millisecond timestamp number instead.
type SessionID string

// UnmarshalJSON accepts a JSON string or a JSON number.
func (id *SessionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = SessionID(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("session id must be a string or number: %w", err)
	}
	*id = SessionID(n.String())
	return nil
}

// Session is one conversation.
type Session struct {
	ID        SessionID `json:"id"`
	Records   []Record  `json:"messages"`
	CreatedAt time.Time `json:"timestamp"`
}

// Store persists opaque snapshots under string keys.
type Store interface {
	// Load returns the snapshot stored under key, or ErrNoSnapshot.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the snapshot stored under key.
	Save(ctx context.Context, key string, data []byte) error
}

func (s *Session) clone() Session {
	c := *s
	c.Records = append([]Record(nil), s.Records...)
	return c
}
