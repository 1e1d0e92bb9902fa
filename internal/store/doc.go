// Package store keeps a SQLite history of compile runs.
//
// Every compile attempt is one row in builds, failed attempts included, with
// the hashes of its config source and production set. Rendered output goes to
// artifacts keyed by its content hash, so recompiling an unchanged config adds
// a build row but no new artifact.
//
// Builds are ordered by seq, assigned at insert. created_at is wall time for
// display and is never used for ordering.
package store
