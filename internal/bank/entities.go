package bank

import (
	"time"

	"github.com/govalues/money"
)

// Account is one customer's balance record. The account number is assigned by
// the store at creation and never reused, even after the account is deleted.
type Account struct {
	Number int64
	Name   string
	Phone  string
	// Secret gates access in the caller layer. The ledger stores and returns
	// it but never inspects it.
	Secret  string
	Balance money.Amount
	// Card is present only when the customer requested one at creation.
	Card      *Card
	CreatedAt time.Time
}

// Card is the ATM card issued to an account on request.
type Card struct {
	Number int
	PIN    string
}

// HasCard reports whether a card was issued for the account.
func (a Account) HasCard() bool { return a.Card != nil }

// BalanceMinor returns the balance in minor units (e.g. cents).
func (a Account) BalanceMinor() int64 {
	units, _ := a.Balance.MinorUnits()
	return units
}

// Currency returns the ISO code of the account's balance currency.
func (a Account) Currency() string { return a.Balance.Curr().Code() }
