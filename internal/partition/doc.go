// Package partition defines how the ledger keyspace is split into named
// partitions and how a worker finds the files backing the partitions it owns.
//
// # Overview
//
// Every account id belongs to exactly one partition. Ownership is decided by
// a static table of contiguous id ranges; ids outside every range are spread
// over fallback partitions by modulus so the mapping stays total. A worker is
// assigned a Set of partitions at startup, either explicitly or from the
// static Assignments table keyed by worker id, and the set never changes for
// the lifetime of the process.
//
// # Architecture
//
//	               account id
//	                   │
//	                   ▼
//	┌─────────────────────────────────────┐
//	│  Map.PartitionFor                   │
//	│   101..1350   → parte1              │
//	│   1351..2600  → parte2              │
//	│   2601..3850  → parte3              │
//	│   3851..5100  → parte4              │
//	│   otherwise   → parte((id%4)+1)     │
//	└─────────────────────────────────────┘
//	                   │
//	                   ▼
//	┌─────────────────────────────────────┐
//	│  Layout.AccountFile                 │
//	│   <root>/parte2/cuentas_parte2.txt  │
//	└─────────────────────────────────────┘
//
// # Load versus persist
//
// The assigned Set decides which files are read at load time. Persisting
// recomputes each account's partition through the Map instead, so an account
// whose id falls in another band is written to that band's file regardless of
// which file it was read from. Assignment is not an access-control list: a
// request for an id outside the set simply misses in the store.
//
// # Concurrency
//
// Map, Set and Layout hold no mutable state after construction and are safe
// for concurrent use.
package partition
