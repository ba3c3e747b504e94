package ledger

import (
	"context"
	"testing"

	"github.com/govalues/money"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corefin/bankd/internal/bank"
	"github.com/corefin/bankd/internal/errs"
	"github.com/corefin/bankd/internal/storage/memory"
)

func usd(t *testing.T, minor int64) money.Amount {
	t.Helper()
	a, err := money.NewAmountFromMinorUnits("USD", minor)
	require.NoError(t, err)
	return a
}

func setup(t *testing.T, balancesMinor ...int64) (*memory.Store, Service, []int64) {
	t.Helper()
	store := memory.New("USD", 100)
	svc := New(store, store)
	numbers := make([]int64, 0, len(balancesMinor))
	for i, minor := range balancesMinor {
		acc, err := store.CreateAccount(context.Background(), bank.Account{
			Name:   "Account",
			Phone:  "000000000" + string(rune('0'+i)),
			Secret: "pw",
		})
		require.NoError(t, err)
		if minor > 0 {
			_, err = store.Credit(context.Background(), acc.Number, usd(t, minor))
			require.NoError(t, err)
		}
		numbers = append(numbers, acc.Number)
	}
	return store, svc, numbers
}

func balanceMinor(t *testing.T, store *memory.Store, number int64) int64 {
	t.Helper()
	acc, err := store.GetAccount(context.Background(), number)
	require.NoError(t, err)
	return acc.BalanceMinor()
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	store, svc, nums := setup(t, 0)

	newBal, err := svc.Deposit(ctx, nums[0], usd(t, 2500))
	require.NoError(t, err)
	units, _ := newBal.MinorUnits()
	assert.EqualValues(t, 2500, units)

	_, err = svc.Deposit(ctx, nums[0], usd(t, 0))
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)

	_, err = svc.Deposit(ctx, 9999, usd(t, 100))
	assert.ErrorIs(t, err, errs.ErrNotFound)

	assert.EqualValues(t, 2500, balanceMinor(t, store, nums[0]))
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	store, svc, nums := setup(t, 5000)

	newBal, err := svc.Withdraw(ctx, nums[0], usd(t, 3000))
	require.NoError(t, err)
	units, _ := newBal.MinorUnits()
	assert.EqualValues(t, 2000, units)

	_, err = svc.Withdraw(ctx, nums[0], usd(t, 2001))
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
	assert.EqualValues(t, 2000, balanceMinor(t, store, nums[0]))

	_, err = svc.Withdraw(ctx, nums[0], usd(t, -5))
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	store, svc, nums := setup(t, 10000, 500)
	sender, recipient := nums[0], nums[1]

	require.NoError(t, svc.Transfer(ctx, sender, recipient, usd(t, 4000)))
	assert.EqualValues(t, 6000, balanceMinor(t, store, sender))
	assert.EqualValues(t, 4500, balanceMinor(t, store, recipient))
}

func TestTransferFailuresHaveNoSideEffects(t *testing.T) {
	ctx := context.Background()
	store, svc, nums := setup(t, 1000, 500)
	sender, recipient := nums[0], nums[1]

	assert.ErrorIs(t, svc.Transfer(ctx, sender, recipient, usd(t, 0)), errs.ErrInvalidAmount)
	assert.ErrorIs(t, svc.Transfer(ctx, sender, sender, usd(t, 100)), errs.ErrSameAccount)
	assert.ErrorIs(t, svc.Transfer(ctx, sender, 9999, usd(t, 100)), errs.ErrNotFound)
	assert.ErrorIs(t, svc.Transfer(ctx, 9999, recipient, usd(t, 100)), errs.ErrNotFound)
	assert.ErrorIs(t, svc.Transfer(ctx, sender, recipient, usd(t, 99999)), errs.ErrInsufficientFunds)

	assert.EqualValues(t, 1000, balanceMinor(t, store, sender))
	assert.EqualValues(t, 500, balanceMinor(t, store, recipient))
}

func TestInterestSweep(t *testing.T) {
	ctx := context.Background()
	// 200.00 at 5% becomes 210.00
	store, svc, nums := setup(t, 20000)

	credited, err := svc.InterestSweep(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, credited)
	assert.EqualValues(t, 21000, balanceMinor(t, store, nums[0]))
}

func TestInterestSweepSkipsZeroBalances(t *testing.T) {
	ctx := context.Background()
	store, svc, nums := setup(t, 10000, 0)

	credited, err := svc.InterestSweep(ctx, 250)
	require.NoError(t, err)
	assert.Equal(t, 1, credited, "zero-balance account earns nothing and is skipped")
	assert.EqualValues(t, 10250, balanceMinor(t, store, nums[0]))
	assert.EqualValues(t, 0, balanceMinor(t, store, nums[1]))
}

func TestInterestSweepRejectsBadRate(t *testing.T) {
	_, svc, _ := setup(t, 10000)
	_, err := svc.InterestSweep(context.Background(), 0)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	_, err = svc.InterestSweep(context.Background(), -500)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
}

func TestInterestRoundsHalfUp(t *testing.T) {
	ctx := context.Background()
	// 0.99 at 5% is 4.95 cents, rounded up to 5
	store, svc, nums := setup(t, 99)

	credited, err := svc.InterestSweep(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, credited)
	assert.EqualValues(t, 104, balanceMinor(t, store, nums[0]))
}

func TestMulDivHalfUp(t *testing.T) {
	cases := []struct {
		v, num, den int64
		want        int64
	}{
		{20000, 500, 10000, 1000},
		{99, 500, 10000, 5}, // 4.95 rounds up
		{99, 400, 10000, 4}, // 3.96 rounds down
		{0, 500, 10000, 0},
		// balances this large overflow a naive v*num intermediate
		{1_000_000_000_000_000_000, 10000, 10000, 1_000_000_000_000_000_000},
		{9_000_000_000_000_000_000, 500, 10000, 450_000_000_000_000_000},
	}
	for _, tc := range cases {
		if got := mulDivHalfUp(tc.v, tc.num, tc.den); got != tc.want {
			t.Errorf("mulDivHalfUp(%d, %d, %d) = %d, want %d", tc.v, tc.num, tc.den, got, tc.want)
		}
	}
}

func TestChargeSweep(t *testing.T) {
	ctx := context.Background()
	// balances 50, 10, 100 charged 20: middle account is skipped, sweep continues
	store, svc, nums := setup(t, 5000, 1000, 10000)

	report, err := svc.ChargeSweep(ctx, usd(t, 2000))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Charged)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, nums[1], report.Skipped[0].Number)
	assert.ErrorIs(t, report.Skipped[0].Reason, errs.ErrInsufficientFunds)

	assert.EqualValues(t, 3000, balanceMinor(t, store, nums[0]))
	assert.EqualValues(t, 1000, balanceMinor(t, store, nums[1]))
	assert.EqualValues(t, 8000, balanceMinor(t, store, nums[2]))
}

func TestChargeSweepRejectsBadCharge(t *testing.T) {
	_, svc, _ := setup(t, 5000)
	_, err := svc.ChargeSweep(context.Background(), usd(t, 0))
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
}

func TestOperationsAreCounted(t *testing.T) {
	ctx := context.Background()
	_, svc, nums := setup(t, 0)

	before := testutil.ToFloat64(opsTotal.WithLabelValues(opDeposit, "ok"))
	_, err := svc.Deposit(ctx, nums[0], usd(t, 100))
	require.NoError(t, err)
	after := testutil.ToFloat64(opsTotal.WithLabelValues(opDeposit, "ok"))
	assert.Equal(t, before+1, after)

	// rejected sweeps count as error outcomes like the other operations
	before = testutil.ToFloat64(opsTotal.WithLabelValues(opInterest, "error"))
	_, err = svc.InterestSweep(ctx, 0)
	require.Error(t, err)
	after = testutil.ToFloat64(opsTotal.WithLabelValues(opInterest, "error"))
	assert.Equal(t, before+1, after)

	before = testutil.ToFloat64(opsTotal.WithLabelValues(opCharge, "error"))
	_, err = svc.ChargeSweep(ctx, usd(t, 0))
	require.Error(t, err)
	after = testutil.ToFloat64(opsTotal.WithLabelValues(opCharge, "error"))
	assert.Equal(t, before+1, after)
}
