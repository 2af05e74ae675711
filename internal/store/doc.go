// Package store provides the SQLite-backed query journal.
//
// A journal is an append-only record of REPL sessions:
//   - Sessions: one row per process run (schema hash, endpoint, start/end)
//   - Queries: one row per query line with its printed output
//
// # Ordering
//
// Queries are ordered by their per-session seq (a logical counter starting
// at 1), never by timestamp. Reads use ORDER BY seq ASC so listing a session
// reproduces its transcript line for line.
//
// # Versions
//
// PRAGMA user_version records the last migration applied. Open migrates older
// journals forward one version at a time and refuses journals from a newer
// build. Connection pragmas are set through the driver DSN; see dsn.
package store
