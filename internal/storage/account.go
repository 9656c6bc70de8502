package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"
)

// ErrLockTimeout is returned when an account lock is not acquired in time.
var ErrLockTimeout = errors.New("lock timeout")

// Account is one ledger account together with the lock that serialises
// mutations of its balance. The lock lives exactly as long as the record.
type Account struct {
	ID       int64  // Primary key
	ClientID int64  // Owning client, see Client
	Type     string // Free-text tag such as "Ahorros" or "Corriente"

	lock *semaphore.Weighted // Transactional exclusive lock

	mu      sync.RWMutex    // Guards balance value reads and writes
	balance decimal.Decimal // Never negative after a committed operation
}

// NewAccount creates an account with a fresh, unheld lock.
func NewAccount(id, clientID int64, balance decimal.Decimal, accountType string) *Account {
	return &Account{
		ID:       id,
		ClientID: clientID,
		Type:     accountType,
		lock:     semaphore.NewWeighted(1),
		balance:  balance,
	}
}

// Acquire takes the account lock, waiting at most timeout.
// The wait also ends early if ctx is cancelled; either way the lock is not
// held and the returned error wraps ErrLockTimeout.
func (a *Account) Acquire(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.lock.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("account %d: %w", a.ID, ErrLockTimeout)
	}
	return nil
}

// Release gives up the account lock. Releasing an unheld lock panics.
func (a *Account) Release() {
	a.lock.Release(1)
}

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balance
}

// Debit subtracts amount and returns the new balance.
// The caller must hold the account lock and have checked funds.
func (a *Account) Debit(amount decimal.Decimal) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = a.balance.Sub(amount)
	return a.balance
}

// Credit adds amount and returns the new balance.
// The caller must hold the account lock.
func (a *Account) Credit(amount decimal.Decimal) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = a.balance.Add(amount)
	return a.balance
}

// Client is read-only reference data describing an account holder.
type Client struct {
	ID    int64
	Name  string
	Email string
	Phone string
}

// EntryStatus is the terminal state recorded for a ledger entry.
type EntryStatus string

// StatusConfirmed marks a committed transfer. Transfers are validated before
// any mutation, so no pending or rolled-back state is ever written.
const StatusConfirmed EntryStatus = "Confirmada"

// Entry is an immutable record of one committed transfer.
type Entry struct {
	ID        int64
	Origin    int64
	Dest      int64
	Amount    decimal.Decimal
	Timestamp time.Time
	Status    EntryStatus
}
