package connection

import "context"

// Transport is a single duplex text connection. A Transport is used for one
// attempt only; reconnecting asks the Dialer for a new one.
//
// Callbacks must be registered before Open. Open returns immediately and the
// outcome is reported through the callbacks: OnOpen once the handshake
// succeeds, OnMessage per inbound text frame, OnError on failure. OnClose
// fires exactly once when the connection ends for any reason, including a
// failed dial and an explicit Close, and always after OnError.
type Transport interface {
	OnOpen(fn func())
	OnMessage(fn func(data string))
	OnError(fn func(err error))
	OnClose(fn func())

	Open(ctx context.Context)
	Send(text string) error
	Close() error
}

// Dialer creates a fresh, unopened Transport for every connection attempt.
type Dialer interface {
	NewTransport() Transport
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func() Transport

// NewTransport calls f.
func (f DialerFunc) NewTransport() Transport { return f() }
