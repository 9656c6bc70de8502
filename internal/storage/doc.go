// Package storage holds the worker's in-memory ledger state: account records
// guarded by per-record locks, read-only client reference data, ledger entry
// records, and the pipe-delimited line formats they are stored in.
//
// # Overview
//
// A Store is built once at startup by scanning the account files of the
// partitions assigned to the worker plus the shared client file. After the
// worker starts accepting connections the set of accounts never changes; only
// individual balances move, and only under the owning account's lock.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│         Ledger operations           │
//	└─────────────────────────────────────┘
//	                 │  Get(id)
//	                 ▼
//	┌─────────────────────────────────────┐
//	│              Store                  │
//	│  accounts: map[id]*Account          │
//	│  clients:  map[id]Client            │
//	└─────────────────────────────────────┘
//	                 │
//	                 ▼
//	┌─────────────────────────────────────┐
//	│            Account                  │
//	│  lock:    timed exclusive lock      │
//	│  balance: decimal, value-guarded    │
//	└─────────────────────────────────────┘
//
// # Concurrency and Thread Safety
//
// Map access:
//   - The account and client maps are replaced wholesale by Load
//   - Load must complete before concurrent readers start
//   - Get, Accounts and Client never lock the maps
//
// Account locking:
//   - Acquire blocks for at most the given timeout, then fails with ErrLockTimeout
//   - Callers holding two locks take them in ascending account id order
//   - Release must be called exactly once per successful Acquire
//
// Balance reads:
//   - Balance is guarded by a short internal RWMutex, independent of the lock
//   - Reads outside the lock are safe but may observe one side of a transfer
//     in flight; consistent reads take the lock first
//
// # File Formats
//
// One record per line, pipe separated, no header:
//
//	accounts: id|clientId|balance|type          101|1|1500.00|Ahorros
//	clients:  id|name|email|phone               1|Juan Pérez|juan@email.com|987654321
//	journal:  txId|origin|dest|amount|ts|status 1|101|102|500.00|2025-05-01 10:00:00.000|Confirmada
//
// Balances and amounts are always written with two fractional digits.
// Malformed lines are skipped by the readers and reported to the caller's log.
//
// # Error Handling
//
// ErrAccountNotFound: the id is not loaded on this worker
// ErrClientNotFound: the client id is not in the reference file
// ErrLockTimeout: a lock could not be acquired within the timeout
package storage
