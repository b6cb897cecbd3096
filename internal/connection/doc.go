// Package connection implements the chat Connection Manager.
//
// The Connection Manager:
//   - Keeps one WebSocket connection to the EasyBook chat backend
//   - Reconnects with linear backoff (base delay * attempt) up to a ceiling
//   - Decodes inbound payloads and hands display text, typing and chart
//     updates to a Consumer
//   - Records every exchange into the current chat session
//
// All manager state is owned by a single event-loop goroutine started with
// Run. Transport callbacks, reconnect timers and public calls are queued as
// closures and executed in order on that goroutine.
package connection
