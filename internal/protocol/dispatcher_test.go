package protocol

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/ledgernode/internal/ledger"
	"github.com/dreamware/ledgernode/internal/metrics"
	"github.com/dreamware/ledgernode/internal/partition"
	"github.com/dreamware/ledgernode/internal/persist"
	"github.com/dreamware/ledgernode/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDispatcher(t *testing.T) (*Dispatcher, *persist.FilePersister, *metrics.Metrics) {
	t.Helper()
	store := storage.NewStore(partition.NewLayout(t.TempDir()), quietLogger())
	store.Add(
		storage.NewAccount(101, 1, decimal.RequireFromString("1500.00"), "Ahorros"),
		storage.NewAccount(102, 2, decimal.RequireFromString("3200.50"), "Corriente"),
	)
	m := metrics.New(prometheus.NewRegistry())
	fp := persist.NewFilePersister(store, partition.DefaultMap(), quietLogger(), m)
	svc := ledger.NewService(store, fp, ledger.Options{LockTimeout: 100 * time.Millisecond, Logger: quietLogger(), Metrics: m})
	return NewDispatcher(svc, quietLogger(), m), fp, m
}

func TestDispatcherScenarios(t *testing.T) {
	d, fp, _ := newDispatcher(t)
	ctx := context.Background()

	steps := []struct {
		req  string
		want string
	}{
		{"TASK|1|CONSULTAR_SALDO|101", "RESPONSE|1|OK|1500.00"},
		{"TASK|2|TRANSFERIR_FONDOS|101|102|500.00", "RESPONSE|2|OK|transfer completed: tx 1"},
		{"TASK|3|CONSULTAR_SALDO|101", "RESPONSE|3|OK|1000.00"},
		{"TASK|4|CONSULTAR_SALDO|102", "RESPONSE|4|OK|3700.50"},
		{"TASK|5|TRANSFERIR_FONDOS|101|102|0", "RESPONSE|5|ERROR|amount must be greater than zero"},
		{"TASK|6|TRANSFERIR_FONDOS|101|102|-3", "RESPONSE|6|ERROR|amount must be greater than zero"},
		{"TASK|7|TRANSFERIR_FONDOS|101|999|1", "RESPONSE|7|ERROR|account 999 not found"},
		{"TASK|8|TRANSFERIR_FONDOS|101|101|1", "RESPONSE|8|ERROR|origin and destination are the same account"},
		{"TASK|9|TRANSFERIR_FONDOS|101|102|1000000", "RESPONSE|9|ERROR|insufficient funds in account 101"},
		{"TASK|10|CONSULTAR_SALDO|abc", `RESPONSE|10|ERROR|invalid account id "abc"`},
		{"TASK|11|CONSULTAR_SALDO", "RESPONSE|11|ERROR|missing account id"},
		{"TASK|12|CERRAR_CUENTA|101", "RESPONSE|12|ERROR|unsupported operation: CERRAR_CUENTA"},
		{"TASK|13|TRANSFERIR_FONDOS|101|102", "RESPONSE|13|ERROR|transfer needs origin, destination and amount"},
		{"TASK|14|TRANSFERIR_FONDOS|102|101|0.50", "RESPONSE|14|OK|transfer completed: tx 2"},
		{"TASK|15|CONSULTAR_SALDO|101", "RESPONSE|15|OK|1000.50"},
	}

	for _, s := range steps {
		got, ok := d.Handle(ctx, s.req)
		require.True(t, ok, s.req)
		assert.Equal(t, s.want, got, s.req)
	}
	assert.Equal(t, 2, fp.Entries())
}

func TestDispatcherMalformed(t *testing.T) {
	d, _, m := newDispatcher(t)
	ctx := context.Background()

	for _, line := range []string{"HELLO", "TASK|1", "RESPONSE|1|OK|x"} {
		got, ok := d.Handle(ctx, line)
		require.True(t, ok)
		assert.Equal(t, "ERROR|invalid request format", got)
		assert.False(t, strings.HasPrefix(got, MarkerResponse))
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues("invalid", "error")))
}

func TestDispatcherBlankLine(t *testing.T) {
	d, _, _ := newDispatcher(t)
	for _, line := range []string{"", "   ", "\r"} {
		_, ok := d.Handle(context.Background(), line)
		assert.False(t, ok)
	}
}

func TestDispatcherMetrics(t *testing.T) {
	d, _, m := newDispatcher(t)
	ctx := context.Background()

	d.Handle(ctx, "TASK|1|CONSULTAR_SALDO|101")
	d.Handle(ctx, "TASK|2|CONSULTAR_SALDO|999")
	d.Handle(ctx, "TASK|3|NOPE")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues(OpBalance, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues(OpBalance, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues("unsupported", "error")))
}

type brokenLedger struct{}

func (brokenLedger) Balance(context.Context, []string) (decimal.Decimal, error) {
	return decimal.Decimal{}, errors.New("disk on fire")
}

func (brokenLedger) Transfer(context.Context, []string) (storage.Entry, error) {
	return storage.Entry{}, errors.New("disk on fire")
}

func TestDispatcherHidesUnclassifiedErrors(t *testing.T) {
	d := NewDispatcher(brokenLedger{}, quietLogger(), nil)
	got, ok := d.Handle(context.Background(), "TASK|1|CONSULTAR_SALDO|101")
	require.True(t, ok)
	assert.Equal(t, "RESPONSE|1|ERROR|internal error", got)
}
