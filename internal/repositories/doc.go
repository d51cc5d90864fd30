// Package repositories implements SQLite persistence for cached songs.
//
// Key Implementations:
//   - [SongRepository] : every song seen in a batch, keyed by uri, with seen counts
//   - [SongCacheAdapter] : session.SongCacher over [SongRepository]
//
// Sequence numbers provide stable, human-readable ordering (e.g., song #42) independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
