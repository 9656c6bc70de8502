package ledger

import (
	"errors"
	"sync"

	"github.com/dreamware/ledgernode/internal/storage"
)

// fakePersister records calls and optionally fails them.
type fakePersister struct {
	mu          sync.Mutex
	next        int64
	persists    int
	entries     []storage.Entry
	failPersist bool
	failAppend  bool
}

func (f *fakePersister) PersistAccounts() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persists++
	if f.failPersist {
		return errors.New("disk full")
	}
	return nil
}

func (f *fakePersister) NextTxID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return f.next
}

func (f *fakePersister) AppendEntry(e storage.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppend {
		return errors.New("disk full")
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakePersister) journal() []storage.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storage.Entry(nil), f.entries...)
}
