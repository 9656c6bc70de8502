package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dreamware/ledgernode/internal/admin"
	"github.com/dreamware/ledgernode/internal/config"
	"github.com/dreamware/ledgernode/internal/ledger"
	"github.com/dreamware/ledgernode/internal/metrics"
	"github.com/dreamware/ledgernode/internal/partition"
	"github.com/dreamware/ledgernode/internal/persist"
	"github.com/dreamware/ledgernode/internal/protocol"
	"github.com/dreamware/ledgernode/internal/server"
	"github.com/dreamware/ledgernode/internal/storage"
)

// Node is one running worker: its loaded accounts, the components that
// serve them, and its bound listeners.
//
// A Node is built in full by NewNode before any connection is accepted,
// so the account table is complete and immutable by the time Serve runs.
type Node struct {
	cfg config.Config
	log *slog.Logger

	partitions partition.Set
	store      *storage.Store
	persister  *persist.FilePersister
	metrics    *metrics.Metrics

	server  *server.Server
	adminLn net.Listener // nil when the admin surface is disabled
	adminH  http.Handler
}

// NewNode loads the assigned partitions and the journal, then binds the
// admin and task listeners.
//
// Startup sequence:
//  1. Build the partition map and resolve the assigned set
//  2. Create missing data directories
//  3. Load accounts and clients, then seed the transaction id from the journal
//  4. Bind the admin listener (if configured) and the task listener
//
// Any failure is returned and nothing is left bound.
func NewNode(cfg config.Config, lg *slog.Logger) (*Node, error) {
	pmap, err := cfg.PartitionMap()
	if err != nil {
		return nil, err
	}
	set := cfg.PartitionSet()
	layout := partition.NewLayout(cfg.DataDir)
	if err := layout.Ensure(set); err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store := storage.NewStore(layout, lg)
	if err := store.Load(set); err != nil {
		return nil, err
	}
	fp := persist.NewFilePersister(store, pmap, lg, m)
	if _, err := fp.LoadJournal(); err != nil {
		return nil, err
	}

	svc := ledger.NewService(store, fp, ledger.Options{
		LockTimeout: cfg.LockTimeout,
		Logger:      lg,
		Metrics:     m,
	})
	dispatcher := protocol.NewDispatcher(svc, lg, m)

	n := &Node{
		cfg:        cfg,
		log:        lg,
		partitions: set,
		store:      store,
		persister:  fp,
		metrics:    m,
		server: server.New(dispatcher, server.Options{
			IdleTimeout: cfg.IdleTimeout,
			Logger:      lg,
			Metrics:     m,
		}),
	}

	if cfg.AdminListen != "" {
		n.adminLn, err = net.Listen("tcp", cfg.AdminListen)
		if err != nil {
			return nil, fmt.Errorf("admin listen %s: %w", cfg.AdminListen, err)
		}
		n.adminH = admin.NewRouter(admin.Deps{
			WorkerID:    cfg.WorkerID,
			Listen:      cfg.ListenAddr(),
			Coordinator: cfg.Coordinator,
			Partitions:  set,
			Store:       store,
			Map:         pmap,
			Journal:     fp,
			Metrics:     m,
			Logger:      lg,
			StartedAt:   time.Now(),
		})
	}
	if err := n.server.Listen(cfg.ListenAddr()); err != nil {
		if n.adminLn != nil {
			n.adminLn.Close()
		}
		return nil, err
	}

	lg.Info("node ready",
		"partitions", set.String(),
		"accounts", store.Len(),
		"clients", store.ClientCount(),
		"journal_entries", fp.Entries(),
		"coordinator", cfg.Coordinator,
	)
	return n, nil
}

// Addr returns the bound task listener address.
func (n *Node) Addr() net.Addr { return n.server.Addr() }

// AdminAddr returns the bound admin address, or nil when disabled.
func (n *Node) AdminAddr() net.Addr {
	if n.adminLn == nil {
		return nil
	}
	return n.adminLn.Addr()
}

// Serve runs the task server and the admin server until ctx is done or
// either fails; a failure of one stops the other.
func (n *Node) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return n.server.Serve(ctx)
	})
	if n.adminLn != nil {
		g.Go(func() error {
			return admin.Serve(ctx, n.adminLn, n.adminH, n.log)
		})
	}
	return g.Wait()
}
