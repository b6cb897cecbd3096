package connection

import (
	"errors"
	"time"

	"github.com/rickgao/easybook-chat/internal/format"
)

// Errors
var (
	ErrTransport          = errors.New("transport failure")
	ErrDecode             = errors.New("payload is not structured")
	ErrSendRejected       = errors.New("send rejected: connection not open")
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// Fixed user-visible texts.
const (
	MsgReconnectFailed = "❌ Unable to connect to EasyBook AI. Please refresh the page."
	MsgConnectionLost  = "❌ Connection lost. Trying to reconnect..."
	MsgSentimentDone   = "📊 Sentiment Analysis Complete"
	MsgErrorPrefix     = "❌ "
)

// State is the lifecycle state of the manager's connection.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

var stateNames = []string{"idle", "connecting", "open", "closed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ChartData is a sentiment distribution reported by the backend.
type ChartData struct {
	Positive float64
	Negative float64
	Neutral  float64
}

// Consumer receives UI updates from the manager. Callbacks run on the
// manager's loop goroutine and must not block.
type Consumer interface {
	OnStatusChange(connected bool)
	OnDisplayMessage(text string, category format.Category)
	OnShowTyping()
	OnHideTyping()
	OnChartData(data ChartData)
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	ReconnectBaseDelay   time.Duration // delay before attempt n is n * base
	MaxReconnectAttempts int           // scheduled attempts before giving up
}

// DefaultManagerConfig returns the browser widget's settings.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ReconnectBaseDelay:   3 * time.Second,
		MaxReconnectAttempts: 5,
	}
}

// ManagerStats is a point-in-time view of the manager.
type ManagerStats struct {
	State       State
	Attempts    int
	MaxAttempts int
	Exhausted   bool
	Sessions    int
}

// ReconnectDelay returns the wait before the given 1-based attempt.
func ReconnectDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return base * time.Duration(attempt)
}
