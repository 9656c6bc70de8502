package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/dreamware/ledgernode/internal/partition"
)

var (
	// ErrAccountNotFound is returned when an account id is not loaded on this worker
	ErrAccountNotFound = errors.New("account not found")

	// ErrClientNotFound is returned when a client id is not in the reference data
	ErrClientNotFound = errors.New("client not found")
)

// Store is the worker's in-memory account table plus client reference data.
//
// The maps are built by Load and never structurally modified afterwards,
// so lookups take no lock. Balances are protected per Account.
type Store struct {
	layout   partition.Layout
	log      *slog.Logger
	accounts map[int64]*Account
	clients  map[int64]Client
	loaded   partition.Set
}

// NewStore creates an empty store reading files beneath layout.
func NewStore(layout partition.Layout, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		layout:   layout,
		log:      log.With("component", "store"),
		accounts: make(map[int64]*Account),
		clients:  make(map[int64]Client),
	}
}

// Load replaces the store content with the accounts of every partition in
// set and the client reference file.
//
// Missing files are logged and skipped. Malformed lines are logged and
// skipped. A duplicate account id keeps the last record read, with
// partitions read in ascending name order. Any other I/O error aborts the
// load and leaves the previous content in place.
func (s *Store) Load(set partition.Set) error {
	accounts := make(map[int64]*Account)
	for _, name := range set.Names() {
		path := s.layout.AccountFile(name)
		n, err := s.readFile(path, func(line string) error {
			a, err := ParseAccountLine(line)
			if err != nil {
				return err
			}
			accounts[a.ID] = a
			return nil
		})
		if errors.Is(err, os.ErrNotExist) {
			s.log.Warn("partition file not found", "partition", name, "path", path)
			continue
		}
		if err != nil {
			return fmt.Errorf("load partition %s: %w", name, err)
		}
		s.log.Info("partition loaded", "partition", name, "accounts", n)
	}

	clients := make(map[int64]Client)
	path := s.layout.ClientFile()
	n, err := s.readFile(path, func(line string) error {
		c, err := ParseClientLine(line)
		if err != nil {
			return err
		}
		clients[c.ID] = c
		return nil
	})
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.log.Warn("client file not found", "path", path)
	case err != nil:
		return fmt.Errorf("load clients: %w", err)
	default:
		s.log.Info("clients loaded", "clients", n)
	}

	s.accounts = accounts
	s.clients = clients
	s.loaded = set
	s.log.Info("store loaded", "partitions", set.String(), "accounts", len(accounts), "clients", len(clients))
	return nil
}

// readFile feeds every non-blank line of path to parse and returns how many
// lines parsed cleanly. Parse errors are logged per line.
func (s *Store) readFile(path string, parse func(line string) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return scanLines(f, func(lineNo int, line string) {
		s.log.Warn("skipping malformed line", "path", path, "line", lineNo, "text", line)
	}, parse)
}

// scanLines is the shared reader loop for every pipe-delimited file.
func scanLines(r io.Reader, onBad func(lineNo int, line string), parse func(line string) error) (int, error) {
	sc := bufio.NewScanner(r)
	ok, lineNo := 0, 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := parse(line); err != nil {
			onBad(lineNo, line)
			continue
		}
		ok++
	}
	return ok, sc.Err()
}

// ScanEntries reads journal lines from r, calling fn for each well-formed
// entry and onBad for each malformed one. It returns the number of
// well-formed entries.
func ScanEntries(r io.Reader, fn func(Entry), onBad func(lineNo int, line string)) (int, error) {
	return scanLines(r, onBad, func(line string) error {
		e, err := ParseEntryLine(line)
		if err != nil {
			return err
		}
		fn(e)
		return nil
	})
}

// Add seeds the store with accounts built in memory instead of read from
// partition files, replacing any with the same id. The node itself only
// loads through Load; Add is the hook for tests of the packages layered on
// Store. Like Load it must not run concurrently with readers.
func (s *Store) Add(accounts ...*Account) {
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
}

// Get returns the account with id, or ErrAccountNotFound.
func (s *Store) Get(id int64) (*Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, ErrAccountNotFound)
	}
	return a, nil
}

// Accounts returns every loaded account ordered by id.
func (s *Store) Accounts() []*Account {
	out := make([]*Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b *Account) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of loaded accounts.
func (s *Store) Len() int {
	return len(s.accounts)
}

// Client returns the client with id, or ErrClientNotFound.
func (s *Store) Client(id int64) (Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return Client{}, fmt.Errorf("client %d: %w", id, ErrClientNotFound)
	}
	return c, nil
}

// ClientCount returns the number of loaded clients.
func (s *Store) ClientCount() int {
	return len(s.clients)
}

// Loaded returns the partition set of the last successful Load.
func (s *Store) Loaded() partition.Set {
	return s.loaded
}

// Layout returns the file layout the store reads from.
func (s *Store) Layout() partition.Layout {
	return s.layout
}
