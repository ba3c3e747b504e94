// Package registry implements the account registry rules: input validation,
// card issuance on request, capacity- and uniqueness-guarded creation, and
// permanent deletion with order-preserving compaction.
package registry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/go-playground/validator/v10"

	"github.com/corefin/bankd/internal/bank"
	"github.com/corefin/bankd/internal/errs"
)

// Repo defines read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, number int64) (bank.Account, error)
	GetAccountByPhone(ctx context.Context, phone string) (bank.Account, error)
	ListAccounts(ctx context.Context) ([]bank.Account, error)
}

// Writer defines write operations needed by the service. CreateAccount
// assigns the account number and enforces capacity and phone uniqueness
// atomically; DeleteAccount removes the record permanently.
type Writer interface {
	CreateAccount(ctx context.Context, a bank.Account) (bank.Account, error)
	DeleteAccount(ctx context.Context, number int64) error
}

// Service exposes account lifecycle and lookup.
type Service interface {
	Create(ctx context.Context, p CreateParams) (bank.Account, error)
	Get(ctx context.Context, number int64) (bank.Account, error)
	FindByPhone(ctx context.Context, phone string) (bank.Account, error)
	Delete(ctx context.Context, number int64) error
	List(ctx context.Context) ([]bank.Account, error)
}

// CreateParams is the input for opening an account. Phone must be exactly 10
// digits; it doubles as a lookup key and is unique across live accounts.
type CreateParams struct {
	Name   string `validate:"required"`
	Phone  string `validate:"required,len=10,numeric"`
	Secret string `validate:"required"`
	// WithCard requests an ATM card at creation.
	WithCard bool
}

type service struct {
	repo   Repo
	writer Writer
}

// New constructs the registry service over the given store.
func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateCreate checks the create input shape. Phone failures map to
// ErrInvalidPhone; everything else maps to ErrInvalid.
func ValidateCreate(p CreateParams) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Phone" {
				return fmt.Errorf("%w: phone must be exactly 10 digits", errs.ErrInvalidPhone)
			}
		}
		return fmt.Errorf("%w: %s", errs.ErrInvalid, verrs[0].Field())
	}
	return fmt.Errorf("%w: %v", errs.ErrInvalid, err)
}

func (s *service) Create(ctx context.Context, p CreateParams) (bank.Account, error) {
	if err := ValidateCreate(p); err != nil {
		return bank.Account{}, err
	}
	a := bank.Account{
		Name:   p.Name,
		Phone:  p.Phone,
		Secret: p.Secret,
	}
	if p.WithCard {
		a.Card = issueCard()
	}
	return s.writer.CreateAccount(ctx, a)
}

func (s *service) Get(ctx context.Context, number int64) (bank.Account, error) {
	return s.repo.GetAccount(ctx, number)
}

func (s *service) FindByPhone(ctx context.Context, phone string) (bank.Account, error) {
	return s.repo.GetAccountByPhone(ctx, phone)
}

func (s *service) Delete(ctx context.Context, number int64) error {
	return s.writer.DeleteAccount(ctx, number)
}

func (s *service) List(ctx context.Context) ([]bank.Account, error) {
	return s.repo.ListAccounts(ctx)
}

// issueCard generates a fresh 5-digit card number and 4-digit PIN.
func issueCard() *bank.Card {
	return &bank.Card{
		Number: 10000 + rand.Intn(90000),
		PIN:    fmt.Sprintf("%04d", rand.Intn(10000)),
	}
}
