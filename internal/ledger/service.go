package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dreamware/ledgernode/internal/metrics"
	"github.com/dreamware/ledgernode/internal/persist"
	"github.com/dreamware/ledgernode/internal/storage"
)

// DefaultLockTimeout bounds every account lock wait.
const DefaultLockTimeout = 500 * time.Millisecond

// amountPlaces is the precision of the account file format.
const amountPlaces = 2

// amountExponentLimit bounds the decimal exponent of a parsed amount so
// that rounding and comparing never scale by a huge power of ten.
const amountExponentLimit = 18

// Accounts looks up loaded accounts. *storage.Store satisfies it.
type Accounts interface {
	Get(id int64) (*storage.Account, error)
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	LockTimeout time.Duration
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

// Service executes ledger operations against an account table.
type Service struct {
	accounts    Accounts
	persister   persist.Persister
	lockTimeout time.Duration
	log         *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewService creates a Service. accounts must not change structurally
// while the Service is in use.
func NewService(accounts Accounts, p persist.Persister, opts Options) *Service {
	s := &Service{
		accounts:    accounts,
		persister:   p,
		lockTimeout: opts.LockTimeout,
		log:         opts.Logger,
		metrics:     opts.Metrics,
		now:         opts.Now,
	}
	if s.lockTimeout <= 0 {
		s.lockTimeout = DefaultLockTimeout
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "ledger")
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Balance returns the balance of the account named by args[0], read under
// the account lock.
func (s *Service) Balance(ctx context.Context, args []string) (decimal.Decimal, error) {
	if len(args) < 1 {
		return decimal.Decimal{}, Errorf(KindMissingParams, "missing account id")
	}
	id, err := parseAccountID(args[0])
	if err != nil {
		return decimal.Decimal{}, err
	}
	acct, err := s.lookup(id)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if err := s.acquire(ctx, acct); err != nil {
		return decimal.Decimal{}, err
	}
	defer acct.Release()

	return acct.Balance(), nil
}

// transfer is a validated transfer request.
type transfer struct {
	origin, dest *storage.Account
	amount       decimal.Decimal
}

// Transfer moves args[2] from account args[0] to account args[1] and
// returns the committed journal entry.
func (s *Service) Transfer(ctx context.Context, args []string) (storage.Entry, error) {
	t, err := s.validateTransfer(args)
	if err != nil {
		return storage.Entry{}, err
	}

	first, second := t.origin, t.dest
	if second.ID < first.ID {
		first, second = second, first
	}
	if err := s.acquire(ctx, first); err != nil {
		return storage.Entry{}, err
	}
	if err := s.acquire(ctx, second); err != nil {
		first.Release()
		return storage.Entry{}, err
	}
	defer func() {
		second.Release()
		first.Release()
	}()

	if t.origin.Balance().LessThan(t.amount) {
		return storage.Entry{}, Errorf(KindInsufficientFunds, "insufficient funds in account %d", t.origin.ID)
	}

	t.origin.Debit(t.amount)
	t.dest.Credit(t.amount)

	entry := storage.Entry{
		ID:        s.persister.NextTxID(),
		Origin:    t.origin.ID,
		Dest:      t.dest.ID,
		Amount:    t.amount,
		Timestamp: s.now(),
		Status:    storage.StatusConfirmed,
	}
	s.metrics.TransferCommitted(t.amount.InexactFloat64())

	if err := s.persister.PersistAccounts(); err != nil {
		s.logPersistFailure(entry, wrap(KindPersistence, err, "persist accounts"))
	}
	if err := s.persister.AppendEntry(entry); err != nil {
		s.logPersistFailure(entry, wrap(KindPersistence, err, "append journal"))
	}

	s.log.Info("transfer committed",
		"tx", entry.ID,
		"origin", entry.Origin,
		"dest", entry.Dest,
		"amount", entry.Amount.StringFixed(amountPlaces),
	)
	return entry, nil
}

// validateTransfer checks args in a fixed order and resolves both accounts.
// No lock is taken.
func (s *Service) validateTransfer(args []string) (transfer, error) {
	if len(args) < 3 {
		return transfer{}, Errorf(KindMissingParams, "transfer needs origin, destination and amount")
	}
	originID, err := parseAccountID(args[0])
	if err != nil {
		return transfer{}, err
	}
	destID, err := parseAccountID(args[1])
	if err != nil {
		return transfer{}, err
	}
	amount, err := parseAmount(args[2])
	if err != nil {
		return transfer{}, err
	}
	origin, err := s.lookup(originID)
	if err != nil {
		return transfer{}, err
	}
	dest, err := s.lookup(destID)
	if err != nil {
		return transfer{}, err
	}
	if originID == destID {
		return transfer{}, Errorf(KindSameAccount, "origin and destination are the same account")
	}
	return transfer{origin: origin, dest: dest, amount: amount}, nil
}

func (s *Service) lookup(id int64) (*storage.Account, error) {
	acct, err := s.accounts.Get(id)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return nil, wrap(KindNotFound, err, "account %d not found", id)
	}
	if err != nil {
		return nil, wrap(KindUnknown, err, "account %d lookup failed", id)
	}
	return acct, nil
}

func (s *Service) acquire(ctx context.Context, acct *storage.Account) error {
	if err := acct.Acquire(ctx, s.lockTimeout); err != nil {
		s.metrics.LockTimeout()
		s.log.Warn("lock timeout", "account", acct.ID, "timeout", s.lockTimeout)
		return wrap(KindLockTimeout, err, "timed out waiting for account %d", acct.ID)
	}
	return nil
}

func (s *Service) logPersistFailure(entry storage.Entry, err error) {
	s.log.Error("transfer committed in memory but not persisted",
		"tx", entry.ID,
		"kind", KindOf(err).String(),
		"err", err,
	)
}

func parseAccountID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, wrap(KindInvalidInput, err, "invalid account id %q", raw)
	}
	return id, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, wrap(KindInvalidAmount, err, "invalid amount %q", raw)
	}
	if exp := amount.Exponent(); exp > amountExponentLimit || exp < -amountExponentLimit {
		return decimal.Decimal{}, Errorf(KindInvalidAmount, "invalid amount %q", raw)
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, Errorf(KindInvalidAmount, "amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(amountPlaces)) {
		return decimal.Decimal{}, Errorf(KindInvalidAmount, "amount has more than %d decimal places", amountPlaces)
	}
	return amount, nil
}
