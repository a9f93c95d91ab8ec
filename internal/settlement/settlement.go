// Package settlement holds the pure arithmetic of the approve path: fee
// computation in basis points and the fixed-rate output amount. No state,
// no side effects; multiplication overflow is rejected, never wrapped.
package settlement

import (
	"fmt"

	"swap_escrow/internal/model"
)

const (
	// BpsDenominator converts a basis-point rate to a fraction (1 bps = 0.01%).
	BpsDenominator uint64 = 10000

	// OutMultiplier is the fixed exchange rate applied to every swap.
	OutMultiplier uint64 = 3
)

// FeeAmount returns amount * rateBps / 10000, truncating toward zero.
func FeeAmount(amount, rateBps uint64) (uint64, error) {
	p, err := mul(amount, rateBps)
	if err != nil {
		return 0, err
	}
	return p / BpsDenominator, nil
}

// AmountOut returns the tokenOut quantity owed for a deposit of amountIn.
func AmountOut(amountIn uint64) (uint64, error) {
	return mul(amountIn, OutMultiplier)
}

func mul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/a != b {
		return 0, fmt.Errorf("%w: %d * %d", model.ErrArithmeticOverflow, a, b)
	}
	return p, nil
}
