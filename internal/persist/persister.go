package persist

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/dreamware/ledgernode/internal/metrics"
	"github.com/dreamware/ledgernode/internal/partition"
	"github.com/dreamware/ledgernode/internal/storage"
)

// Persister is the durability boundary used by ledger operations.
type Persister interface {
	// PersistAccounts rewrites every partition file that has at least one
	// in-memory account mapped to it.
	PersistAccounts() error

	// NextTxID returns a transaction id never returned before by this
	// process.
	NextTxID() int64

	// AppendEntry appends one line to the journal.
	AppendEntry(e storage.Entry) error
}

// FilePersister is the flat-file Persister.
type FilePersister struct {
	store   *storage.Store
	pmap    *partition.Map
	layout  partition.Layout
	log     *slog.Logger
	metrics *metrics.Metrics

	logMu   sync.Mutex
	next    int64 // next transaction id, guarded by logMu
	entries int   // well-formed journal lines, guarded by logMu
}

var _ Persister = (*FilePersister)(nil)

// NewFilePersister persists store beneath store.Layout() using pmap to
// place accounts. The transaction sequence starts at 1 until LoadJournal
// is called.
func NewFilePersister(store *storage.Store, pmap *partition.Map, log *slog.Logger, m *metrics.Metrics) *FilePersister {
	if log == nil {
		log = slog.Default()
	}
	return &FilePersister{
		store:   store,
		pmap:    pmap,
		layout:  store.Layout(),
		log:     log.With("component", "persist"),
		metrics: m,
		next:    1,
	}
}

// LoadJournal scans the existing journal and seeds the transaction id
// sequence so ids keep increasing across restarts. It returns the number
// of well-formed entries. A missing journal is not an error.
func (p *FilePersister) LoadJournal() (int, error) {
	path := p.layout.JournalFile()

	p.logMu.Lock()
	defer p.logMu.Unlock()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		p.log.Info("journal not found, starting empty", "path", path)
		p.entries, p.next = 0, 1
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var highest int64
	n, err := storage.ScanEntries(f,
		func(e storage.Entry) {
			if e.ID > highest {
				highest = e.ID
			}
		},
		func(lineNo int, line string) {
			p.log.Warn("skipping malformed journal line", "line", lineNo, "text", line)
		},
	)
	if err != nil {
		return 0, fmt.Errorf("read journal: %w", err)
	}

	p.entries = n
	p.next = max(int64(n), highest) + 1
	p.log.Info("journal loaded", "entries", n, "next_tx", p.next)
	return n, nil
}

// NextTxID implements Persister.
func (p *FilePersister) NextTxID() int64 {
	p.logMu.Lock()
	defer p.logMu.Unlock()
	id := p.next
	p.next++
	return id
}

// Entries returns the number of journal entries known to this process.
func (p *FilePersister) Entries() int {
	p.logMu.Lock()
	defer p.logMu.Unlock()
	return p.entries
}

// AppendEntry implements Persister. The journal and its directory are
// created when absent.
func (p *FilePersister) AppendEntry(e storage.Entry) error {
	path := p.layout.JournalFile()
	line := storage.FormatEntryLine(e) + "\n"

	p.logMu.Lock()
	defer p.logMu.Unlock()

	if err := appendLine(path, line); err != nil {
		p.log.Error("journal append failed", "tx", e.ID, "path", path, "err", err)
		p.metrics.PersistFailed(metrics.TargetJournal)
		return fmt.Errorf("append tx %d: %w", e.ID, err)
	}
	p.entries++
	return nil
}

func appendLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// PersistAccounts implements Persister. A failing partition is logged and
// the remaining partitions are still written; the joined error reports
// every failure.
func (p *FilePersister) PersistAccounts() error {
	groups := p.group()

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs []error
	for _, name := range names {
		path := p.layout.AccountFile(name)
		if err := writeLines(path, groups[name]); err != nil {
			p.log.Error("partition write failed", "partition", name, "path", path, "err", err)
			p.metrics.PersistFailed(metrics.TargetAccounts)
			errs = append(errs, fmt.Errorf("partition %s: %w", name, err))
			continue
		}
		p.log.Debug("partition written", "partition", name, "accounts", len(groups[name]))
	}
	return errors.Join(errs...)
}

// group maps each computed partition to its account lines in id order.
func (p *FilePersister) group() map[string][]string {
	groups := make(map[string][]string)
	for _, a := range p.store.Accounts() {
		name := p.pmap.PartitionFor(a.ID)
		groups[name] = append(groups[name], storage.FormatAccountLine(a))
	}
	return groups
}

// writeLines replaces path with lines, going through a temporary file in
// the same directory.
func writeLines(path string, lines []string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
