// Package cli implements the interactive teller shell. It is a thin caller
// of the registry and ledger services: it reads input, invokes the core, and
// turns every sentinel error into a human-readable message. No business rule
// lives here, and no lock is ever held while waiting for input.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/corefin/bankd/internal/admin"
	"github.com/corefin/bankd/internal/bank"
	"github.com/corefin/bankd/internal/errs"
	ledgersvc "github.com/corefin/bankd/internal/service/ledger"
	registrysvc "github.com/corefin/bankd/internal/service/registry"
)

// Shell drives the banking menus over a line-based reader/writer pair.
type Shell struct {
	in       *bufio.Scanner
	out      io.Writer
	registry registrysvc.Service
	ledger   ledgersvc.Service
	admins   *admin.Registry
	currency string
	log      *slog.Logger
}

// New constructs a shell bound to the given services and streams.
func New(in io.Reader, out io.Writer, reg registrysvc.Service, led ledgersvc.Service, admins *admin.Registry, currency string, logger *slog.Logger) *Shell {
	return &Shell{
		in:       bufio.NewScanner(in),
		out:      out,
		registry: reg,
		ledger:   led,
		admins:   admins,
		currency: currency,
		log:      logger,
	}
}

// Run loops the main menu until the user exits or the context is canceled.
func (sh *Shell) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		fmt.Fprint(sh.out, "\nBanking System Menu:\n")
		fmt.Fprint(sh.out, "1. Create Account\n")
		fmt.Fprint(sh.out, "2. Access Account\n")
		fmt.Fprint(sh.out, "3. Delete Account\n")
		fmt.Fprint(sh.out, "4. Admin Login\n")
		fmt.Fprint(sh.out, "5. Exit\n")
		choice, ok := sh.promptInt("Enter your choice: ")
		if !ok {
			return nil
		}
		switch choice {
		case 1:
			sh.createAccount(ctx)
		case 2:
			sh.accessAccount(ctx)
		case 3:
			sh.deleteAccount(ctx)
		case 4:
			sh.adminMenu(ctx)
		case 5:
			fmt.Fprintln(sh.out, "Thank you for using the Banking System!")
			return nil
		default:
			fmt.Fprintln(sh.out, "Invalid choice. Please try again.")
		}
	}
	return ctx.Err()
}

func (sh *Shell) createAccount(ctx context.Context) {
	name, ok := sh.prompt("Enter your name: ")
	if !ok {
		return
	}
	phone, ok := sh.prompt("Enter your phone number (10 digits only): ")
	if !ok {
		return
	}
	secret, ok := sh.prompt("Set your password: ")
	if !ok {
		return
	}
	wantCard, ok := sh.prompt("Do you want an ATM card? (yes/no): ")
	if !ok {
		return
	}
	acc, err := sh.registry.Create(ctx, registrysvc.CreateParams{
		Name:     name,
		Phone:    phone,
		Secret:   secret,
		WithCard: strings.EqualFold(wantCard, "yes"),
	})
	if err != nil {
		sh.report(err)
		return
	}
	sh.log.Info("account created", "number", acc.Number)
	fmt.Fprintf(sh.out, "Account created successfully. Your account number is: %d\n", acc.Number)
	if acc.HasCard() {
		fmt.Fprintf(sh.out, "Your ATM card number is: %d\n", acc.Card.Number)
	}
}

func (sh *Shell) accessAccount(ctx context.Context) {
	number, ok := sh.promptInt64("Enter your account number: ")
	if !ok {
		return
	}
	secret, ok := sh.prompt("Enter your password: ")
	if !ok {
		return
	}
	acc, err := sh.registry.Get(ctx, number)
	// Credential comparison happens here in the caller; the core only stores
	// and returns the secret.
	if err != nil || acc.Secret != secret {
		fmt.Fprintln(sh.out, "Invalid account number or password.")
		return
	}
	fmt.Fprintln(sh.out, "Access granted.")
	sh.accountMenu(ctx, acc)
}

func (sh *Shell) accountMenu(ctx context.Context, acc bank.Account) {
	for ctx.Err() == nil {
		fmt.Fprint(sh.out, "\nAccount Menu:\n")
		fmt.Fprint(sh.out, "1. View Balance\n")
		fmt.Fprint(sh.out, "2. Deposit\n")
		fmt.Fprint(sh.out, "3. Withdraw\n")
		fmt.Fprint(sh.out, "4. Transfer Money\n")
		fmt.Fprint(sh.out, "5. Exit Account Menu\n")
		choice, ok := sh.promptInt("Enter your choice: ")
		if !ok {
			return
		}
		switch choice {
		case 1:
			bal, err := sh.ledger.Balance(ctx, acc.Number)
			if err != nil {
				sh.report(err)
				continue
			}
			fmt.Fprintf(sh.out, "Current Balance: %s\n", bal)
		case 2:
			amount, ok := sh.promptAmount("Enter amount to deposit: ")
			if !ok {
				continue
			}
			newBal, err := sh.ledger.Deposit(ctx, acc.Number, amount)
			if err != nil {
				sh.report(err)
				continue
			}
			fmt.Fprintf(sh.out, "Deposited: %s, New Balance: %s\n", amount, newBal)
		case 3:
			amount, ok := sh.promptAmount("Enter amount to withdraw: ")
			if !ok {
				continue
			}
			newBal, err := sh.ledger.Withdraw(ctx, acc.Number, amount)
			if err != nil {
				sh.report(err)
				continue
			}
			fmt.Fprintf(sh.out, "Withdrawn: %s, New Balance: %s\n", amount, newBal)
		case 4:
			recipient, ok := sh.promptInt64("Enter the recipient's account number: ")
			if !ok {
				continue
			}
			amount, ok := sh.promptAmount("Enter amount to transfer: ")
			if !ok {
				continue
			}
			if err := sh.ledger.Transfer(ctx, acc.Number, recipient, amount); err != nil {
				sh.report(err)
				continue
			}
			fmt.Fprintf(sh.out, "Transfer successful! %s transferred to Account Number: %d\n", amount, recipient)
		case 5:
			fmt.Fprintln(sh.out, "Exiting account menu.")
			return
		default:
			fmt.Fprintln(sh.out, "Invalid choice. Please try again.")
		}
	}
}

func (sh *Shell) deleteAccount(ctx context.Context) {
	number, ok := sh.promptInt64("Enter your account number to delete: ")
	if !ok {
		return
	}
	if err := sh.registry.Delete(ctx, number); err != nil {
		sh.report(err)
		return
	}
	sh.log.Info("account deleted", "number", number)
	fmt.Fprintln(sh.out, "Account deleted successfully.")
}

func (sh *Shell) adminMenu(ctx context.Context) {
	token, ok := sh.adminLogin()
	if !ok {
		fmt.Fprintln(sh.out, "Admin login failed. Access denied.")
		return
	}
	defer sh.admins.Logout(token)
	fmt.Fprintln(sh.out, "Admin access granted.")
	for ctx.Err() == nil {
		fmt.Fprint(sh.out, "\nAdmin Menu:\n")
		fmt.Fprint(sh.out, "1. View all customer details\n")
		fmt.Fprint(sh.out, "2. Delete an account\n")
		fmt.Fprint(sh.out, "3. Apply Interest\n")
		fmt.Fprint(sh.out, "4. Apply Service Charge\n")
		fmt.Fprint(sh.out, "5. Display Admin Info\n")
		fmt.Fprint(sh.out, "6. Exit Admin Menu\n")
		choice, ok := sh.promptInt("Enter your choice: ")
		if !ok {
			return
		}
		switch choice {
		case 1:
			sh.displayAll(ctx)
		case 2:
			number, ok := sh.promptInt64("Enter account number to delete: ")
			if !ok {
				continue
			}
			if err := sh.registry.Delete(ctx, number); err != nil {
				sh.report(err)
				continue
			}
			fmt.Fprintln(sh.out, "Account deleted successfully.")
		case 3:
			rateBps, ok := sh.promptRate("Enter interest rate (in percentage): ")
			if !ok {
				continue
			}
			credited, err := sh.ledger.InterestSweep(ctx, rateBps)
			if err != nil {
				sh.report(err)
				continue
			}
			fmt.Fprintf(sh.out, "Interest applied to %d accounts.\n", credited)
		case 4:
			charge, ok := sh.promptAmount("Enter service charge amount: ")
			if !ok {
				continue
			}
			report, err := sh.ledger.ChargeSweep(ctx, charge)
			if err != nil {
				sh.report(err)
				continue
			}
			fmt.Fprintf(sh.out, "Service charge applied to %d accounts.\n", report.Charged)
			for _, skip := range report.Skipped {
				fmt.Fprintf(sh.out, "Error for account %d: %s\n", skip.Number, sh.message(skip.Reason))
			}
		case 5:
			fmt.Fprintf(sh.out, "Admin Username: %s\n", sh.admins.Username())
		case 6:
			fmt.Fprintln(sh.out, "Exiting admin menu.")
			return
		default:
			fmt.Fprintln(sh.out, "Invalid choice. Please try again.")
		}
	}
}

func (sh *Shell) adminLogin() (uuid.UUID, bool) {
	if !sh.admins.Registered() {
		fmt.Fprintln(sh.out, "No admin found. Please register.")
		username, okU := sh.prompt("Enter username: ")
		password, okP := sh.prompt("Enter password: ")
		if !okU || !okP {
			return uuid.Nil, false
		}
		if err := sh.admins.Register(username, password); err != nil {
			sh.report(err)
			return uuid.Nil, false
		}
		fmt.Fprintln(sh.out, "Admin registered successfully.")
	}
	username, okU := sh.prompt("Enter admin username: ")
	password, okP := sh.prompt("Enter admin password: ")
	if !okU || !okP {
		return uuid.Nil, false
	}
	token, err := sh.admins.Login(username, password)
	if err != nil {
		sh.log.Warn("admin login rejected", "user", username)
		return uuid.Nil, false
	}
	return token, true
}

func (sh *Shell) displayAll(ctx context.Context) {
	accs, err := sh.registry.List(ctx)
	if err != nil {
		sh.report(err)
		return
	}
	fmt.Fprintln(sh.out, "\nAll Accounts:")
	for _, acc := range accs {
		fmt.Fprintf(sh.out, "Account Number: %d\n", acc.Number)
		fmt.Fprintf(sh.out, "Name: %s\n", acc.Name)
		fmt.Fprintf(sh.out, "Phone: %s\n", acc.Phone)
		fmt.Fprintf(sh.out, "Balance: %s\n", acc.Balance)
		if acc.HasCard() {
			fmt.Fprintf(sh.out, "ATM Card Number: %d\n", acc.Card.Number)
		} else {
			fmt.Fprintln(sh.out, "ATM Card: No")
		}
		fmt.Fprintln(sh.out, "--------------------------------")
	}
}

// report prints the human-readable message for a core error.
func (sh *Shell) report(err error) {
	fmt.Fprintf(sh.out, "Error: %s\n", sh.message(err))
}

func (sh *Shell) message(err error) string {
	switch {
	case errors.Is(err, errs.ErrInvalidAmount):
		return "amount must be positive"
	case errors.Is(err, errs.ErrInsufficientFunds):
		return "insufficient funds"
	case errors.Is(err, errs.ErrNotFound):
		return "account not found"
	case errors.Is(err, errs.ErrSameAccount):
		return "sender and recipient must differ"
	case errors.Is(err, errs.ErrInvalidPhone):
		return "phone number must be exactly 10 digits"
	case errors.Is(err, errs.ErrDuplicatePhone):
		return "an account with this phone number already exists"
	case errors.Is(err, errs.ErrCapacityExceeded):
		return "cannot create more accounts, maximum limit reached"
	case errors.Is(err, errs.ErrCurrencyMismatch):
		return "amount is not in the bank's currency"
	default:
		return err.Error()
	}
}

func (sh *Shell) prompt(label string) (string, bool) {
	fmt.Fprint(sh.out, label)
	if !sh.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.in.Text()), true
}

// promptInt reads a menu choice. A non-numeric line comes back as 0 so the
// menu loop reports an invalid choice and prompts again; ok is false only
// when the input stream ends.
func (sh *Shell) promptInt(label string) (int, bool) {
	raw, ok := sh.prompt(label)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true
	}
	return n, true
}

func (sh *Shell) promptInt64(label string) (int64, bool) {
	raw, ok := sh.prompt(label)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Fprintln(sh.out, "Please enter a number.")
		return 0, false
	}
	return n, true
}

// promptAmount reads a decimal amount like "12.50" and converts it to a
// money.Amount in the bank's currency.
func (sh *Shell) promptAmount(label string) (money.Amount, bool) {
	var zero money.Amount
	raw, ok := sh.prompt(label)
	if !ok {
		return zero, false
	}
	minor, err := parseMinor(raw)
	if err != nil {
		fmt.Fprintln(sh.out, "Please enter an amount like 12.50.")
		return zero, false
	}
	amount, err := money.NewAmountFromMinorUnits(sh.currency, minor)
	if err != nil {
		fmt.Fprintln(sh.out, "Please enter an amount like 12.50.")
		return zero, false
	}
	return amount, true
}

// promptRate reads a percentage like "2.5" and converts it to basis points.
func (sh *Shell) promptRate(label string) (int64, bool) {
	raw, ok := sh.prompt(label)
	if !ok {
		return 0, false
	}
	bps, err := parseMinor(raw)
	if err != nil {
		fmt.Fprintln(sh.out, "Please enter a rate like 2.5.")
		return 0, false
	}
	return bps, true
}

// parseMinor converts a decimal string with at most two fraction digits into
// hundredths (minor units for two-decimal currencies, basis points for
// percentages). The sign is read off the raw string so inputs between -1 and
// 0 keep it.
func parseMinor(s string) (int64, error) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseUint(whole, 10, 63)
	if err != nil {
		return 0, err
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("too many decimal places")
	}
	for len(frac) < 2 {
		frac += "0"
	}
	f, err := strconv.ParseUint(frac, 10, 63)
	if err != nil {
		return 0, err
	}
	n := int64(w)*100 + int64(f)
	if neg {
		n = -n
	}
	return n, nil
}
