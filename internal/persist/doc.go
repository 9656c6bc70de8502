// Package persist writes the worker's in-memory ledger state back to disk.
//
// Two artefacts are maintained:
//
//   - one account file per partition, rewritten in full on every call to
//     PersistAccounts. Each account's destination is recomputed from the
//     partition map, so an account loaded from one file may land in another
//     when the range table says so.
//   - a single shared journal, appended to by AppendEntry.
//
// Account files are written to a temporary file in the same directory and
// renamed over the target. Two concurrent rewrites of the same partition
// file both succeed and the last rename wins; a later rewrite repairs any
// stale snapshot.
//
// Journal appends and transaction id generation share one process-wide
// mutex, which is never held together with an account lock in the other
// order. Account file rewrites take no lock beyond each account's short
// value guard.
//
// Failures are returned and logged here but callers treat them as
// non-fatal: a balance change already applied in memory is not rolled back.
// There is no write-ahead log, so a crash between the in-memory commit and a
// successful persist loses that change on disk.
package persist
