package model

import (
	"math/big"

	"github.com/shopspring/decimal"

	"event-ticket-ledger/internal/domain"
)

// MaxAmount is the largest representable amount (2^128 - 1).
var MaxAmount = decimal.NewFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)), 0)

// ValidateAmount checks that d is a whole, non-negative amount that fits in 128 bits.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() || !d.Equal(d.Truncate(0)) || d.GreaterThan(MaxAmount) {
		return domain.ErrInvalidAmount
	}
	return nil
}

// ParseAmount parses a base-10 integer amount such as "10000000".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
