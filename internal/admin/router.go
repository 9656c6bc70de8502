package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dreamware/ledgernode/internal/metrics"
	"github.com/dreamware/ledgernode/internal/partition"
	"github.com/dreamware/ledgernode/internal/storage"
)

// JournalCounter reports how many journal entries the worker knows of.
// *persist.FilePersister satisfies it.
type JournalCounter interface {
	Entries() int
}

// Deps is everything the admin handlers read from.
type Deps struct {
	WorkerID    int
	Listen      string
	Coordinator string
	Partitions  partition.Set
	Store       *storage.Store
	Map         *partition.Map
	Journal     JournalCounter
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	StartedAt   time.Time
}

// Info is the /info response body.
type Info struct {
	WorkerID            int            `json:"worker_id"`
	Listen              string         `json:"listen"`
	Coordinator         string         `json:"coordinator,omitempty"`
	Partitions          []string       `json:"partitions"`
	Accounts            int            `json:"accounts"`
	AccountsByPartition map[string]int `json:"accounts_by_partition"`
	Clients             int            `json:"clients"`
	JournalEntries      int            `json:"journal_entries"`
	StartedAt           time.Time      `json:"started_at"`
	Uptime              string         `json:"uptime"`
}

// PartitionView is the /partitions/{name} response body.
type PartitionView struct {
	Name     string  `json:"name"`
	Assigned bool    `json:"assigned"`
	File     string  `json:"file"`
	Accounts []int64 `json:"accounts"`
}

// NewRouter builds the admin handler.
//
// Routes are registered on a chi router with request ids and panic
// recovery. The Store must already be loaded; handlers read it without
// locking because its account table is never modified after Load.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	d.Logger = d.Logger.With("component", "admin")
	if d.StartedAt.IsZero() {
		d.StartedAt = time.Now()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/info", d.handleInfo)
	r.Get("/partitions/{name}", d.handlePartition)
	r.Handle("/metrics", d.Metrics.Handler())
	return r
}

func (d Deps) handleInfo(w http.ResponseWriter, _ *http.Request) {
	byPartition := make(map[string]int)
	for _, a := range d.Store.Accounts() {
		byPartition[d.Map.PartitionFor(a.ID)]++
	}
	info := Info{
		WorkerID:            d.WorkerID,
		Listen:              d.Listen,
		Coordinator:         d.Coordinator,
		Partitions:          d.Partitions.Names(),
		Accounts:            d.Store.Len(),
		AccountsByPartition: byPartition,
		Clients:             d.Store.ClientCount(),
		StartedAt:           d.StartedAt,
		Uptime:              time.Since(d.StartedAt).Round(time.Second).String(),
	}
	if d.Journal != nil {
		info.JournalEntries = d.Journal.Entries()
	}
	d.writeJSON(w, http.StatusOK, info)
}

// handlePartition lists the accounts the persister would write to the
// named partition. Unknown partitions with no accounts are 404.
func (d Deps) handlePartition(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	view := PartitionView{
		Name:     name,
		Assigned: d.Partitions.Contains(name),
		File:     d.Store.Layout().AccountFile(name),
		Accounts: []int64{},
	}
	for _, a := range d.Store.Accounts() {
		if d.Map.PartitionFor(a.ID) == name {
			view.Accounts = append(view.Accounts, a.ID)
		}
	}
	if !view.Assigned && len(view.Accounts) == 0 {
		http.Error(w, "partition not found", http.StatusNotFound)
		return
	}
	d.writeJSON(w, http.StatusOK, view)
}

func (d Deps) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Warn("encode response", "err", err)
	}
}
