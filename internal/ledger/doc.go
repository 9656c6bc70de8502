// Package ledger implements the worker's two operations: balance query and
// two-party transfer.
//
// # Transfer protocol
//
// A transfer is fully validated before any lock is taken: parameter count,
// integer ids, a positive amount with at most two decimal places, existence
// of both accounts, and distinct accounts. Any violation returns an *Error
// whose Kind reports Validation() == true and has no side effects.
//
// Locks are then acquired in ascending account id order, each with the
// configured timeout. Because every transfer orders its two locks the same
// way, no pair of transfers can wait on each other in a cycle. If the second
// acquisition times out the first lock is released before returning.
//
// Under both locks the origin balance is checked, the amounts are moved,
// a transaction id is drawn from the Persister, account files are rewritten
// and the journal entry is appended. Locks are released in reverse order.
//
// # Durability
//
// The in-memory mutation is never rolled back. If the Persister fails the
// transfer is still reported as committed and the failure is logged with
// KindPersistence. Memory and disk then disagree until the next successful
// rewrite of the affected partition file; a journal append failure leaves a
// balance change with no matching journal line.
package ledger
