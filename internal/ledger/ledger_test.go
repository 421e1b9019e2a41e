package ledger_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
)

func newBalance(appropriated int64) *ledger.Balance {
	return &ledger.Balance{CycleID: uuid.New(), Appropriated: appropriated}
}

func TestBalance_TryReserve_AdmissionControl(t *testing.T) {
	b := newBalance(100_000)

	for range 5 {
		require.True(t, b.TryReserve(10_000))
	}

	assert.Equal(t, int64(50_000), b.Remaining())

	assert.False(t, b.TryReserve(60_000))
	assert.Equal(t, int64(50_000), b.Remaining())
	assert.Equal(t, int64(50_000), b.Reserved)
	assert.True(t, b.Valid())
}

func TestBalance_TryReserve_RejectsNonPositive(t *testing.T) {
	b := newBalance(100)

	assert.False(t, b.TryReserve(0))
	assert.False(t, b.TryReserve(-5))
	assert.Equal(t, int64(0), b.Reserved)
}

func TestBalance_TryReserve_ExactRemaining(t *testing.T) {
	b := newBalance(10_000)

	assert.True(t, b.TryReserve(10_000))
	assert.Equal(t, int64(0), b.Remaining())
	assert.False(t, b.TryReserve(1))
}

func TestBalance_Promotions(t *testing.T) {
	b := newBalance(20_000)
	require.True(t, b.TryReserve(10_000))

	require.NoError(t, b.PromoteReservedToEncumbered(10_000))
	assert.Equal(t, ledger.Snapshot{
		CycleID:      b.CycleID,
		Appropriated: 20_000,
		Encumbered:   10_000,
		Remaining:    10_000,
	}, b.Snapshot())

	require.NoError(t, b.PromoteEncumberedToDisbursed(10_000))
	assert.Equal(t, ledger.Snapshot{
		CycleID:      b.CycleID,
		Appropriated: 20_000,
		Disbursed:    10_000,
		Remaining:    10_000,
	}, b.Snapshot())
}

func TestBalance_FailedOperationsLeaveBalanceUnchanged(t *testing.T) {
	type testCase struct {
		name string
		op   func(b *ledger.Balance) error
	}

	tests := []testCase{
		{
			name: "ReleaseMoreThanReserved",
			op:   func(b *ledger.Balance) error { return b.Release(5_001) },
		},
		{
			name: "PromoteReservedUnderflow",
			op:   func(b *ledger.Balance) error { return b.PromoteReservedToEncumbered(5_001) },
		},
		{
			name: "PromoteEncumberedUnderflow",
			op:   func(b *ledger.Balance) error { return b.PromoteEncumberedToDisbursed(2_001) },
		},
		{
			name: "NonPositiveAmount",
			op:   func(b *ledger.Balance) error { return b.Release(0) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBalance(10_000)
			b.Reserved = 5_000
			b.Encumbered = 2_000
			before := *b

			err := tt.op(b)

			require.ErrorIs(t, err, ledger.ErrInvariant)
			assert.Equal(t, before, *b)
		})
	}
}

func TestBalance_Release(t *testing.T) {
	b := newBalance(10_000)
	require.True(t, b.TryReserve(4_000))

	require.NoError(t, b.Release(4_000))
	assert.Equal(t, int64(0), b.Reserved)
	assert.Equal(t, int64(10_000), b.Remaining())
}
