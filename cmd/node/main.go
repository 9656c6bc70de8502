// Package main implements the ledger worker node, which owns a subset of
// the account partitions and executes balance queries and transfers sent
// by the coordinator.
//
// The node is a worker in the partitioned ledger cluster, responsible for:
//   - Loading its assigned partition files into memory at startup
//   - Serving TASK lines over a persistent TCP connection
//   - Rewriting partition files and appending the journal after transfers
//   - Exposing health, info and metrics over an optional admin listener
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                Node                     │
//	├─────────────────────────────────────────┤
//	│  TCP (:9100+id):                        │
//	│    TASK|id|CONSULTAR_SALDO|acct         │
//	│    TASK|id|TRANSFERIR_FONDOS|o|d|amt    │
//	├─────────────────────────────────────────┤
//	│  Admin HTTP (optional):                 │
//	│    /health /info /partitions /metrics   │
//	├─────────────────────────────────────────┤
//	│  Components:                            │
//	│    server     - connection handling     │
//	│    dispatcher - line protocol           │
//	│    ledger     - locking and validation  │
//	│    store      - accounts in memory      │
//	│    persister  - partition files, journal│
//	└─────────────────────────────────────────┘
//
// Configuration (flag / environment):
//   - --id / NODE_ID: worker id, selects default partitions and port (default 3)
//   - --listen / NODE_LISTEN: task listener (default ":9100+id")
//   - --partitions / NODE_PARTITIONS: explicit partition list
//   - --data-dir / NODE_DATA_DIR: data root (default "./data")
//   - --admin-listen / NODE_ADMIN_LISTEN: admin HTTP address (disabled when empty)
//   - --config / NODE_CONFIG: YAML file with any of the above
//
// Example usage:
//
//	# Start worker 1 with the default partitions parte1, parte2, parte3
//	NODE_ID=1 NODE_ADMIN_LISTEN=:9201 ./node
//
//	# Query a balance
//	./taskctl --addr localhost:9101 balance 101
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/dreamware/ledgernode/internal/config"
	"github.com/dreamware/ledgernode/internal/logger"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
// This indirection enables test code to intercept fatal errors
// without actually terminating the test process.
var logFatal = log.Fatalf

// set by the linker: go build -ldflags "-X main.version=M.N" ./cmd/node
var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logFatal("node: %v", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "node"
	app.Usage = "partitioned ledger worker"
	app.Version = version
	app.Flags = config.Flags()
	app.Action = runNode
	return app
}

// runNode resolves configuration, builds the node and serves until SIGINT
// or SIGTERM.
//
// Exit paths:
//   - invalid configuration: returned before anything is bound
//   - bind failure on either listener: returned, process exits 1
//   - signal: listeners close, in-flight lines finish, nil is returned
func runNode(c *cli.Context) error {
	cfg, err := config.FromContext(c)
	if err != nil {
		return err
	}

	w, closeLog, err := logger.Open(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	lg := logger.New(cfg.Env, cfg.LogLevel, w).With("worker", cfg.WorkerID)
	slog.SetDefault(lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	node, err := NewNode(cfg, lg)
	if err != nil {
		return err
	}
	if err := node.Serve(ctx); err != nil {
		return err
	}
	lg.Info("node stopped")
	return nil
}
