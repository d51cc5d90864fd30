// Package tasks runs batch operations against the recommender with progress reporting.
//
// # Sweeps
//
// [SweepEngine.Sweep] fetches one sample batch per genre and writes each batch to its own file:
//
//   - Sample requests are made one at a time and paced by a [rate.Limiter]
//   - Fetched batches are handed to a pool of workers that render and write the files
//   - A manifest.json summarizing every genre is written last
//
// A failed genre does not stop the sweep; it is reported in the result and the manifest.
//
// # Progress Reporting
//
// Progress is sent on an optional [ProgressUpdate] channel. Updates use select with default
// so a slow reader never blocks the sweep.
//
// # Song Caching
//
// The optional [SongCacher] records every fetched batch. Cache errors are logged and ignored.
package tasks
