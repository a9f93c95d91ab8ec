package settlement

import (
	"math"
	"testing"

	"swap_escrow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeAmount(t *testing.T) {
	cases := []struct {
		name    string
		amount  uint64
		rateBps uint64
		want    uint64
	}{
		{"one percent", 10000, 250, 250},
		{"truncates toward zero", 999, 100, 9},
		{"zero amount", 0, 250, 0},
		{"zero rate", 10000, 0, 0},
		{"sub-unit result", 39, 100, 0},
		{"full rate", 1000, 10000, 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FeeAmount(tc.amount, tc.rateBps)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFeeAmountOverflow(t *testing.T) {
	_, err := FeeAmount(math.MaxUint64, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow)
}

func TestAmountOut(t *testing.T) {
	got, err := AmountOut(100)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), got)

	got, err = AmountOut(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)
}

func TestAmountOutOverflow(t *testing.T) {
	_, err := AmountOut(math.MaxUint64/3 + 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow)

	// MaxUint64 is divisible by 3, so MaxUint64/3 still fits exactly
	got, err := AmountOut(math.MaxUint64 / 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got)
}
