// Package ledger implements the money-movement engine: deposits, withdrawals,
// atomic two-account transfers, and the bulk interest and service-charge
// sweeps. It validates amounts up front and delegates the actual mutation to
// the store's atomic primitives, so the conservation and non-negativity
// invariants hold regardless of backend.
package ledger

import (
	"context"

	"github.com/govalues/money"

	"github.com/corefin/bankd/internal/bank"
	"github.com/corefin/bankd/internal/errs"
)

// Repo defines read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, number int64) (bank.Account, error)
	ListAccounts(ctx context.Context) ([]bank.Account, error)
}

// Writer defines the balance-mutation primitives. Each primitive is atomic
// per account; TransferFunds is atomic over the pair.
type Writer interface {
	Credit(ctx context.Context, number int64, amount money.Amount) (money.Amount, error)
	Debit(ctx context.Context, number int64, amount money.Amount) (money.Amount, error)
	TransferFunds(ctx context.Context, from, to int64, amount money.Amount) error
}

// Service exposes the ledger operations.
type Service interface {
	Balance(ctx context.Context, number int64) (money.Amount, error)
	Deposit(ctx context.Context, number int64, amount money.Amount) (money.Amount, error)
	Withdraw(ctx context.Context, number int64, amount money.Amount) (money.Amount, error)
	Transfer(ctx context.Context, from, to int64, amount money.Amount) error
	InterestSweep(ctx context.Context, rateBps int64) (int, error)
	ChargeSweep(ctx context.Context, charge money.Amount) (ChargeReport, error)
}

// SkippedAccount records one account a sweep could not charge and why.
type SkippedAccount struct {
	Number int64
	Reason error
}

// ChargeReport aggregates the outcome of a service-charge sweep.
type ChargeReport struct {
	Charged int
	Skipped []SkippedAccount
}

type service struct {
	repo   Repo
	writer Writer
}

// New constructs the ledger service over the given store.
func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) Balance(ctx context.Context, number int64) (money.Amount, error) {
	acc, err := s.repo.GetAccount(ctx, number)
	if err != nil {
		return money.Amount{}, err
	}
	return acc.Balance, nil
}

func (s *service) Deposit(ctx context.Context, number int64, amount money.Amount) (money.Amount, error) {
	if err := requirePositive(amount); err != nil {
		observe(opDeposit, err)
		return money.Amount{}, err
	}
	newBal, err := s.writer.Credit(ctx, number, amount)
	observe(opDeposit, err)
	if err == nil {
		recordMoved(opDeposit, amount)
	}
	return newBal, err
}

func (s *service) Withdraw(ctx context.Context, number int64, amount money.Amount) (money.Amount, error) {
	if err := requirePositive(amount); err != nil {
		observe(opWithdraw, err)
		return money.Amount{}, err
	}
	newBal, err := s.writer.Debit(ctx, number, amount)
	observe(opWithdraw, err)
	if err == nil {
		recordMoved(opWithdraw, amount)
	}
	return newBal, err
}

// Transfer moves amount from sender to recipient. Every failure path is
// checked before any mutation: a failed transfer leaves both balances
// untouched, and an unresolved account number is reported, never ignored.
func (s *service) Transfer(ctx context.Context, from, to int64, amount money.Amount) error {
	err := s.transfer(ctx, from, to, amount)
	observe(opTransfer, err)
	if err == nil {
		recordMoved(opTransfer, amount)
	}
	return err
}

func (s *service) transfer(ctx context.Context, from, to int64, amount money.Amount) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	if from == to {
		return errs.ErrSameAccount
	}
	if _, err := s.repo.GetAccount(ctx, from); err != nil {
		return err
	}
	if _, err := s.repo.GetAccount(ctx, to); err != nil {
		return err
	}
	return s.writer.TransferFunds(ctx, from, to, amount)
}

// InterestSweep credits balance * rateBps / 10000 (half-up) to every account
// in store order and returns the count credited. One account's failure never
// aborts the sweep: zero-interest accounts and accounts deleted mid-sweep are
// skipped. A non-positive rate is rejected up front.
func (s *service) InterestSweep(ctx context.Context, rateBps int64) (int, error) {
	if rateBps <= 0 {
		observe(opInterest, errs.ErrInvalidAmount)
		return 0, errs.ErrInvalidAmount
	}
	accs, err := s.repo.ListAccounts(ctx)
	if err != nil {
		observe(opInterest, err)
		return 0, err
	}
	credited := 0
	for _, acc := range accs {
		interest := mulDivHalfUp(acc.BalanceMinor(), rateBps, 10000)
		if interest <= 0 {
			continue
		}
		amt, err := money.NewAmountFromMinorUnits(acc.Currency(), interest)
		if err != nil {
			continue
		}
		if _, err := s.writer.Credit(ctx, acc.Number, amt); err != nil {
			continue
		}
		recordMoved(opInterest, amt)
		credited++
	}
	observe(opInterest, nil)
	return credited, nil
}

// ChargeSweep debits charge from every account in store order. Insufficient
// accounts are recorded and skipped; the sweep always runs to completion.
func (s *service) ChargeSweep(ctx context.Context, charge money.Amount) (ChargeReport, error) {
	if err := requirePositive(charge); err != nil {
		observe(opCharge, err)
		return ChargeReport{}, err
	}
	accs, err := s.repo.ListAccounts(ctx)
	if err != nil {
		observe(opCharge, err)
		return ChargeReport{}, err
	}
	var report ChargeReport
	for _, acc := range accs {
		if _, err := s.writer.Debit(ctx, acc.Number, charge); err != nil {
			report.Skipped = append(report.Skipped, SkippedAccount{Number: acc.Number, Reason: err})
			continue
		}
		recordMoved(opCharge, charge)
		report.Charged++
	}
	observe(opCharge, nil)
	return report, nil
}

func requirePositive(amount money.Amount) error {
	units, _ := amount.MinorUnits()
	if units <= 0 {
		return errs.ErrInvalidAmount
	}
	return nil
}

// mulDivHalfUp computes v*num/den rounded half-up for non-negative v. The
// multiplication is split around den so v near the int64 ceiling does not
// overflow the intermediate product.
func mulDivHalfUp(v, num, den int64) int64 {
	q, r := v/den, v%den
	return q*num + (r*num+den/2)/den
}
