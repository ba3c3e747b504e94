package postgres

// Package postgres provides a pgx-backed account store satisfying the same
// repository and writer interfaces as the in-memory store. Atomicity comes
// from SQL transactions and row locks instead of in-process mutexes; the
// schema lives under db/migrations and is applied by cmd/migrate.

import (
	"context"
	"errors"
	"time"

	"github.com/govalues/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corefin/bankd/internal/bank"
	"github.com/corefin/bankd/internal/errs"
)

// createLockID serializes account creation so the capacity check and the
// insert see a consistent count.
const createLockID = 4217

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool     *pgxpool.Pool
	currency string
	capacity int
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn, currency string, capacity int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, currency: currency, capacity: capacity}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// Currency returns the ISO code the store denominates balances in.
func (s *Store) Currency() string { return s.currency }

const accountColumns = `number, name, phone, secret, balance_minor, card_number, card_pin, created_at`

// CreateAccount inserts a with a zero balance and a number from the account
// sequence. Capacity is checked under an advisory lock; the unique phone
// index enforces contact uniqueness.
func (s *Store) CreateAccount(ctx context.Context, a bank.Account) (bank.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return bank.Account{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `select pg_advisory_xact_lock($1)`, createLockID); err != nil {
		return bank.Account{}, err
	}
	var count int
	if err := tx.QueryRow(ctx, `select count(*) from accounts`).Scan(&count); err != nil {
		return bank.Account{}, err
	}
	if count >= s.capacity {
		return bank.Account{}, errs.ErrCapacityExceeded
	}

	var cardNumber *int
	var cardPIN *string
	if a.Card != nil {
		cardNumber = &a.Card.Number
		cardPIN = &a.Card.PIN
	}
	row := tx.QueryRow(ctx, `
		insert into accounts (number, name, phone, secret, balance_minor, card_number, card_pin)
		values (nextval('account_number_seq'), $1, $2, $3, 0, $4, $5)
		returning number, created_at
	`, a.Name, a.Phone, a.Secret, cardNumber, cardPIN)
	if err := row.Scan(&a.Number, &a.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return bank.Account{}, errs.ErrDuplicatePhone
		}
		return bank.Account{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return bank.Account{}, err
	}
	a.Balance, _ = money.NewAmountFromMinorUnits(s.currency, 0)
	return a, nil
}

// GetAccount returns the account by number.
func (s *Store) GetAccount(ctx context.Context, number int64) (bank.Account, error) {
	row := s.pool.QueryRow(ctx, `select `+accountColumns+` from accounts where number = $1`, number)
	return s.scanAccount(row)
}

// GetAccountByPhone returns the account holding the phone.
func (s *Store) GetAccountByPhone(ctx context.Context, phone string) (bank.Account, error) {
	row := s.pool.QueryRow(ctx, `select `+accountColumns+` from accounts where phone = $1`, phone)
	return s.scanAccount(row)
}

// ListAccounts returns all accounts ordered by number. Numbers are assigned
// monotonically and never reused, so number order is insertion order and
// deletion compacts it for free.
func (s *Store) ListAccounts(ctx context.Context) ([]bank.Account, error) {
	rows, err := s.pool.Query(ctx, `select `+accountColumns+` from accounts order by number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]bank.Account, 0)
	for rows.Next() {
		acc, err := s.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

// DeleteAccount removes the account permanently.
func (s *Store) DeleteAccount(ctx context.Context, number int64) error {
	tag, err := s.pool.Exec(ctx, `delete from accounts where number = $1`, number)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Credit increases the account balance by amount and returns the new balance.
func (s *Store) Credit(ctx context.Context, number int64, amount money.Amount) (money.Amount, error) {
	var zero money.Amount
	units, err := s.checkAmount(amount)
	if err != nil {
		return zero, err
	}
	var newMinor int64
	err = s.pool.QueryRow(ctx, `
		update accounts set balance_minor = balance_minor + $2 where number = $1
		returning balance_minor
	`, number, units).Scan(&newMinor)
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, errs.ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	newBal, err := money.NewAmountFromMinorUnits(s.currency, newMinor)
	return newBal, err
}

// Debit decreases the account balance by amount and returns the new balance.
// The balance guard is part of the update predicate, so the row can never go
// negative even under concurrent debits.
func (s *Store) Debit(ctx context.Context, number int64, amount money.Amount) (money.Amount, error) {
	var zero money.Amount
	units, err := s.checkAmount(amount)
	if err != nil {
		return zero, err
	}
	var newMinor int64
	err = s.pool.QueryRow(ctx, `
		update accounts set balance_minor = balance_minor - $2
		where number = $1 and balance_minor >= $2
		returning balance_minor
	`, number, units).Scan(&newMinor)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing account from an underfunded one.
		var exists bool
		if qerr := s.pool.QueryRow(ctx, `select exists(select 1 from accounts where number = $1)`, number).Scan(&exists); qerr != nil {
			return zero, qerr
		}
		if !exists {
			return zero, errs.ErrNotFound
		}
		return zero, errs.ErrInsufficientFunds
	}
	if err != nil {
		return zero, err
	}
	newBal, err := money.NewAmountFromMinorUnits(s.currency, newMinor)
	return newBal, err
}

// TransferFunds moves amount between the accounts in one transaction. Rows
// are locked in ascending number order regardless of role, mirroring the
// in-memory store's deadlock avoidance.
func (s *Store) TransferFunds(ctx context.Context, from, to int64, amount money.Amount) error {
	if from == to {
		return errs.ErrSameAccount
	}
	units, err := s.checkAmount(amount)
	if err != nil {
		return err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		select number, balance_minor from accounts
		where number = any($1) order by number for update
	`, []int64{from, to})
	if err != nil {
		return err
	}
	balances := make(map[int64]int64, 2)
	for rows.Next() {
		var number, minor int64
		if err := rows.Scan(&number, &minor); err != nil {
			rows.Close()
			return err
		}
		balances[number] = minor
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(balances) != 2 {
		return errs.ErrNotFound
	}
	if balances[from] < units {
		return errs.ErrInsufficientFunds
	}
	if _, err := tx.Exec(ctx, `update accounts set balance_minor = balance_minor - $2 where number = $1`, from, units); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `update accounts set balance_minor = balance_minor + $2 where number = $1`, to, units); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) checkAmount(amount money.Amount) (int64, error) {
	units, _ := amount.MinorUnits()
	if units <= 0 {
		return 0, errs.ErrInvalidAmount
	}
	if amount.Curr().Code() != s.currency {
		return 0, errs.ErrCurrencyMismatch
	}
	return units, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanAccount(row rowScanner) (bank.Account, error) {
	var a bank.Account
	var minor int64
	var cardNumber *int
	var cardPIN *string
	var createdAt time.Time
	if err := row.Scan(&a.Number, &a.Name, &a.Phone, &a.Secret, &minor, &cardNumber, &cardPIN, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bank.Account{}, errs.ErrNotFound
		}
		return bank.Account{}, err
	}
	a.CreatedAt = createdAt
	a.Balance, _ = money.NewAmountFromMinorUnits(s.currency, minor)
	if cardNumber != nil && cardPIN != nil {
		a.Card = &bank.Card{Number: *cardNumber, PIN: *cardPIN}
	}
	return a, nil
}
