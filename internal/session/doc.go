// Package session holds the chat history: an append-only list of sessions,
// each an ordered list of user and assistant records.
//
// The whole list is persisted as one JSON snapshot under a fixed key after
// every mutation and read back once at startup. A missing or unreadable
// snapshot means "no history".
package session
