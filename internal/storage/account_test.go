package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountLock(t *testing.T) {
	t.Run("acquire and release", func(t *testing.T) {
		a := NewAccount(1, 1, decimal.Zero, "Ahorros")
		require.NoError(t, a.Acquire(context.Background(), 50*time.Millisecond))
		a.Release()
		require.NoError(t, a.Acquire(context.Background(), 50*time.Millisecond))
		a.Release()
	})

	t.Run("times out while held", func(t *testing.T) {
		a := NewAccount(1, 1, decimal.Zero, "Ahorros")
		require.NoError(t, a.Acquire(context.Background(), 50*time.Millisecond))
		defer a.Release()

		start := time.Now()
		err := a.Acquire(context.Background(), 30*time.Millisecond)
		assert.ErrorIs(t, err, ErrLockTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
	})

	t.Run("cancelled context ends the wait", func(t *testing.T) {
		a := NewAccount(1, 1, decimal.Zero, "Ahorros")
		require.NoError(t, a.Acquire(context.Background(), time.Second))
		defer a.Release()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, a.Acquire(ctx, time.Second), ErrLockTimeout)
	})

	t.Run("waiter gets lock after release", func(t *testing.T) {
		a := NewAccount(1, 1, decimal.Zero, "Ahorros")
		require.NoError(t, a.Acquire(context.Background(), time.Second))

		done := make(chan error, 1)
		go func() { done <- a.Acquire(context.Background(), time.Second) }()

		time.Sleep(20 * time.Millisecond)
		a.Release()
		require.NoError(t, <-done)
		a.Release()
	})
}

func TestAccountDebitCredit(t *testing.T) {
	a := NewAccount(1, 1, decimal.RequireFromString("100.10"), "Ahorros")

	assert.Equal(t, "60.00", a.Debit(decimal.RequireFromString("40.10")).StringFixed(2))
	assert.Equal(t, "60.30", a.Credit(decimal.RequireFromString("0.30")).StringFixed(2))
	assert.Equal(t, "60.30", a.Balance().StringFixed(2))
}

// TestAccountConcurrentMutations exercises the value guard under the race detector.
func TestAccountConcurrentMutations(t *testing.T) {
	a := NewAccount(1, 1, decimal.NewFromInt(1000), "Ahorros")
	one := decimal.NewFromInt(1)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, a.Acquire(context.Background(), time.Second)) {
				return
			}
			a.Debit(one)
			a.Release()
		}()
		go func() {
			defer wg.Done()
			_ = a.Balance()
		}()
	}
	wg.Wait()

	assert.Equal(t, "900.00", a.Balance().StringFixed(2))
}
