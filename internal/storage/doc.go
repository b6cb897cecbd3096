// Package storage implements session.Store backends.
//
//   - FileStore:     one JSON file per key in a directory (the default)
//   - SQLiteStore:   a key/value table in a local SQLite database
//   - PostgresStore: a key/value table in PostgreSQL
//
// Every backend stores the snapshot as an opaque blob; none of them
// interpret or migrate its contents.
package storage
