// Package repositories implements persistence for the reconciler's snapshot and run history.
//
// Key Implementations:
//   - [FileSnapshotRepository] : the snapshot as one JSON document ({"Table": ..., "LastTrackId": ...})
//   - [SQLiteSnapshotRepository] : the snapshot as uid_tracks rows plus a single-row checkpoint table
//   - [RunRepository] : one row per reconcile run, keyed by uuid
//
// Both snapshot repositories replace the stored snapshot wholesale on every Save.
// A snapshot that cannot be decoded fails with [shared.ErrMalformedSnapshot] and is never repaired.
package repositories
