// Package metrics provides Prometheus metrics for monitoring the chat client.
//
// Key metrics:
//   - connection state and reconnect attempts
//   - inbound messages by payload kind
//   - outbound messages and rejected sends
//
// A nil *Metrics is valid and records nothing.
package metrics
