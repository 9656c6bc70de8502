package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dreamware/ledgernode/internal/ledger"
	"github.com/dreamware/ledgernode/internal/metrics"
	"github.com/dreamware/ledgernode/internal/storage"
)

// Ledger is the set of operations the dispatcher routes to.
// *ledger.Service satisfies it.
type Ledger interface {
	Balance(ctx context.Context, args []string) (decimal.Decimal, error)
	Transfer(ctx context.Context, args []string) (storage.Entry, error)
}

// Metric labels for lines that never reach an operation.
const (
	opLabelInvalid     = "invalid"
	opLabelUnsupported = "unsupported"
)

// Dispatcher turns one request line into one response line.
// It holds no per-connection state and is safe for concurrent use.
type Dispatcher struct {
	ledger  Ledger
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(l Ledger, log *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{ledger: l, log: log.With("component", "dispatcher"), metrics: m}
}

// Handle returns the response for line. ok is false for blank lines,
// which get no response.
func (d *Dispatcher) Handle(ctx context.Context, line string) (resp string, ok bool) {
	if strings.TrimSpace(line) == "" {
		return "", false
	}
	start := time.Now()

	req, err := ParseRequest(line)
	if err != nil {
		d.log.Warn("rejecting malformed request", "line", line)
		d.metrics.ObserveTask(opLabelInvalid, false, time.Since(start))
		return StatusError + sep + ledger.Message(err), true
	}

	r, label := d.route(ctx, req)
	d.metrics.ObserveTask(label, r.OK, time.Since(start))
	return r.Encode(), true
}

func (d *Dispatcher) route(ctx context.Context, req Request) (Response, string) {
	switch req.Operation {
	case OpBalance:
		balance, err := d.ledger.Balance(ctx, req.Args)
		if err != nil {
			return d.failure(req, err), req.Operation
		}
		d.log.Debug("balance served", "task", req.TaskID, "account", req.Args[0])
		return Response{TaskID: req.TaskID, OK: true, Payload: balance.StringFixed(2)}, req.Operation

	case OpTransfer:
		entry, err := d.ledger.Transfer(ctx, req.Args)
		if err != nil {
			return d.failure(req, err), req.Operation
		}
		return Response{
			TaskID:  req.TaskID,
			OK:      true,
			Payload: fmt.Sprintf("transfer completed: tx %d", entry.ID),
		}, req.Operation
	}

	err := ledger.Errorf(ledger.KindUnsupported, "unsupported operation: %s", req.Operation)
	return d.failure(req, err), opLabelUnsupported
}

func (d *Dispatcher) failure(req Request, err error) Response {
	kind := ledger.KindOf(err)
	log := d.log.Info
	if kind == ledger.KindUnknown {
		log = d.log.Error
	}
	log("task failed",
		"task", req.TaskID,
		"operation", req.Operation,
		"kind", kind.String(),
		"err", err,
	)
	return Response{TaskID: req.TaskID, Payload: ledger.Message(err)}
}
