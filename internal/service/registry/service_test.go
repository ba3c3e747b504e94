package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corefin/bankd/internal/errs"
	"github.com/corefin/bankd/internal/storage/memory"
)

func newService(capacity int) Service {
	store := memory.New("USD", capacity)
	return New(store, store)
}

func TestCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	svc := newService(100)

	acc, err := svc.Create(ctx, CreateParams{Name: "Alice", Phone: "5550001111", Secret: "hunter2"})
	require.NoError(t, err)
	assert.EqualValues(t, 1001, acc.Number)
	assert.Equal(t, "Alice", acc.Name)
	assert.False(t, acc.HasCard())
	assert.EqualValues(t, 0, acc.BalanceMinor())

	byNum, err := svc.Get(ctx, acc.Number)
	require.NoError(t, err)
	assert.Equal(t, acc.Number, byNum.Number)

	byPhone, err := svc.FindByPhone(ctx, "5550001111")
	require.NoError(t, err)
	assert.Equal(t, acc.Number, byPhone.Number)

	_, err = svc.FindByPhone(ctx, "5559999999")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(100)

	cases := []struct {
		name string
		p    CreateParams
		want error
	}{
		{"short phone", CreateParams{Name: "A", Phone: "12345", Secret: "pw"}, errs.ErrInvalidPhone},
		{"long phone", CreateParams{Name: "A", Phone: "12345678901", Secret: "pw"}, errs.ErrInvalidPhone},
		{"letters in phone", CreateParams{Name: "A", Phone: "555000abcd", Secret: "pw"}, errs.ErrInvalidPhone},
		{"missing phone", CreateParams{Name: "A", Secret: "pw"}, errs.ErrInvalidPhone},
		{"missing name", CreateParams{Phone: "5550001111", Secret: "pw"}, errs.ErrInvalid},
		{"missing secret", CreateParams{Name: "A", Phone: "5550001111"}, errs.ErrInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.p)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateRejectsDuplicatePhone(t *testing.T) {
	ctx := context.Background()
	svc := newService(100)

	_, err := svc.Create(ctx, CreateParams{Name: "Alice", Phone: "5550001111", Secret: "pw"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateParams{Name: "Imposter", Phone: "5550001111", Secret: "pw"})
	assert.ErrorIs(t, err, errs.ErrDuplicatePhone)
}

func TestCreateAtCapacity(t *testing.T) {
	ctx := context.Background()
	svc := newService(1)

	_, err := svc.Create(ctx, CreateParams{Name: "Alice", Phone: "5550001111", Secret: "pw"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateParams{Name: "Bob", Phone: "5550002222", Secret: "pw"})
	assert.ErrorIs(t, err, errs.ErrCapacityExceeded)
}

func TestCreateWithCard(t *testing.T) {
	ctx := context.Background()
	svc := newService(100)

	acc, err := svc.Create(ctx, CreateParams{Name: "Alice", Phone: "5550001111", Secret: "pw", WithCard: true})
	require.NoError(t, err)
	require.True(t, acc.HasCard())
	assert.GreaterOrEqual(t, acc.Card.Number, 10000)
	assert.Less(t, acc.Card.Number, 100000)
	assert.Len(t, acc.Card.PIN, 4)
}

func TestDeleteFreesPhone(t *testing.T) {
	ctx := context.Background()
	svc := newService(100)

	acc, err := svc.Create(ctx, CreateParams{Name: "Alice", Phone: "5550001111", Secret: "pw"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, acc.Number))
	_, err = svc.Get(ctx, acc.Number)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	// the phone is free again once the holder is gone
	again, err := svc.Create(ctx, CreateParams{Name: "Alice II", Phone: "5550001111", Secret: "pw"})
	require.NoError(t, err)
	assert.NotEqual(t, acc.Number, again.Number)

	assert.ErrorIs(t, svc.Delete(ctx, acc.Number), errs.ErrNotFound)
}

func TestListOrder(t *testing.T) {
	ctx := context.Background()
	svc := newService(100)

	for _, p := range []CreateParams{
		{Name: "A", Phone: "5550000001", Secret: "pw"},
		{Name: "B", Phone: "5550000002", Secret: "pw"},
		{Name: "C", Phone: "5550000003", Secret: "pw"},
	} {
		_, err := svc.Create(ctx, p)
		require.NoError(t, err)
	}

	accs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, accs, 3)
	assert.Equal(t, "A", accs[0].Name)
	assert.Equal(t, "B", accs[1].Name)
	assert.Equal(t, "C", accs[2].Name)
}
