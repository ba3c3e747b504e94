package memory

// Package memory provides the in-memory account store. It is the default
// backend and the reference implementation of the locking protocol: every
// balance mutation holds that account's lock for its full duration, and a
// transfer holds both accounts' locks, acquired in ascending account-number
// order so opposing transfers cannot deadlock.
import (
	"context"
	"sync"
	"time"

	"github.com/govalues/money"

	"github.com/corefin/bankd/internal/bank"
	"github.com/corefin/bankd/internal/errs"
)

// slot wraps one account with its own mutex. The slot mutex serializes
// balance mutations per account; the store mutex guards the registry itself.
type slot struct {
	mu  sync.Mutex
	acc bank.Account
}

// Store is an in-memory registry of accounts keyed by account number, with an
// insertion-order index that compacts on deletion. Numbers come from a
// monotonic counter and are never reused.
type Store struct {
	mu       sync.RWMutex
	currency string
	capacity int
	// nextNumber is seeded at 1000 so the first account is 1001.
	nextNumber int64
	slots      map[int64]*slot
	byPhone    map[string]int64
	order      []int64
}

// New constructs an empty store. All balances are denominated in currency;
// capacity bounds the number of live accounts.
func New(currency string, capacity int) *Store {
	return &Store{
		currency:   currency,
		capacity:   capacity,
		nextNumber: 1000,
		slots:      make(map[int64]*slot),
		byPhone:    make(map[string]int64),
	}
}

// Currency returns the ISO code the store denominates balances in.
func (s *Store) Currency() string { return s.currency }

// CreateAccount assigns the next account number and inserts a with a zero
// balance. Capacity and phone uniqueness are enforced under one lock so two
// concurrent creates cannot both succeed with the same phone.
func (s *Store) CreateAccount(_ context.Context, a bank.Account) (bank.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slots) >= s.capacity {
		return bank.Account{}, errs.ErrCapacityExceeded
	}
	if _, exists := s.byPhone[a.Phone]; exists {
		return bank.Account{}, errs.ErrDuplicatePhone
	}
	s.nextNumber++
	a.Number = s.nextNumber
	a.Balance, _ = money.NewAmountFromMinorUnits(s.currency, 0)
	a.CreatedAt = time.Now().UTC()
	s.slots[a.Number] = &slot{acc: a}
	s.byPhone[a.Phone] = a.Number
	s.order = append(s.order, a.Number)
	return a, nil
}

// GetAccount returns a snapshot of the account by number.
func (s *Store) GetAccount(_ context.Context, number int64) (bank.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[number]
	if !ok {
		return bank.Account{}, errs.ErrNotFound
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.acc, nil
}

// GetAccountByPhone returns a snapshot of the account holding the phone.
func (s *Store) GetAccountByPhone(_ context.Context, phone string) (bank.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	number, ok := s.byPhone[phone]
	if !ok {
		return bank.Account{}, errs.ErrNotFound
	}
	sl := s.slots[number]
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.acc, nil
}

// ListAccounts returns snapshot copies of all accounts in insertion order.
// The returned slice is independent of the store; callers iterate freely.
func (s *Store) ListAccounts(_ context.Context) ([]bank.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bank.Account, 0, len(s.order))
	for _, number := range s.order {
		sl := s.slots[number]
		sl.mu.Lock()
		out = append(out, sl.acc)
		sl.mu.Unlock()
	}
	return out, nil
}

// DeleteAccount removes the account permanently and compacts the insertion
// order so surviving accounts keep their relative positions.
func (s *Store) DeleteAccount(_ context.Context, number int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[number]
	if !ok {
		return errs.ErrNotFound
	}
	delete(s.slots, number)
	delete(s.byPhone, sl.acc.Phone)
	for i, n := range s.order {
		if n == number {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Credit increases the account balance by amount and returns the new balance.
func (s *Store) Credit(_ context.Context, number int64, amount money.Amount) (money.Amount, error) {
	var zero money.Amount
	if err := s.checkAmount(amount); err != nil {
		return zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[number]
	if !ok {
		return zero, errs.ErrNotFound
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	newBal, err := sl.acc.Balance.Add(amount)
	if err != nil {
		return zero, err
	}
	sl.acc.Balance = newBal
	return newBal, nil
}

// Debit decreases the account balance by amount and returns the new balance.
// The sufficient-funds check and the mutation happen under the account lock,
// so the balance can never go negative.
func (s *Store) Debit(_ context.Context, number int64, amount money.Amount) (money.Amount, error) {
	var zero money.Amount
	if err := s.checkAmount(amount); err != nil {
		return zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[number]
	if !ok {
		return zero, errs.ErrNotFound
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	have, _ := sl.acc.Balance.MinorUnits()
	want, _ := amount.MinorUnits()
	if want > have {
		return zero, errs.ErrInsufficientFunds
	}
	newBal, err := sl.acc.Balance.Sub(amount)
	if err != nil {
		return zero, err
	}
	sl.acc.Balance = newBal
	return newBal, nil
}

// TransferFunds moves amount from one account to the other atomically. Both
// balances change or neither does; no partial state is ever observable.
func (s *Store) TransferFunds(_ context.Context, from, to int64, amount money.Amount) error {
	if from == to {
		return errs.ErrSameAccount
	}
	if err := s.checkAmount(amount); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sender, ok := s.slots[from]
	if !ok {
		return errs.ErrNotFound
	}
	recipient, ok := s.slots[to]
	if !ok {
		return errs.ErrNotFound
	}
	// Lock both slots in ascending number order regardless of role.
	first, second := sender, recipient
	if to < from {
		first, second = recipient, sender
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	have, _ := sender.acc.Balance.MinorUnits()
	want, _ := amount.MinorUnits()
	if want > have {
		return errs.ErrInsufficientFunds
	}
	newFrom, err := sender.acc.Balance.Sub(amount)
	if err != nil {
		return err
	}
	newTo, err := recipient.acc.Balance.Add(amount)
	if err != nil {
		return err
	}
	sender.acc.Balance = newFrom
	recipient.acc.Balance = newTo
	return nil
}

// checkAmount rejects non-positive amounts and foreign currencies up front,
// before any lock beyond the registry read lock is taken.
func (s *Store) checkAmount(amount money.Amount) error {
	units, _ := amount.MinorUnits()
	if units <= 0 {
		return errs.ErrInvalidAmount
	}
	if amount.Curr().Code() != s.currency {
		return errs.ErrCurrencyMismatch
	}
	return nil
}
