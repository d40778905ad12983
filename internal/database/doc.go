// Package database provides SQLite-based storage for link processing results.
//
// This package implements the LinkDB, which stores:
//   - Per-URL outcome records (downloaded, skipped, empty, error)
//   - Per-hosting aggregate statistics derived from those records
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// Records are keyed by URL so re-running a batch over the same candidate
// set is idempotent: already-processed URLs are skipped up front and a
// re-probe of a known URL replaces its previous record.
package database
