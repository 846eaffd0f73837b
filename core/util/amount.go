package util

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"
)

// Monetary values are whole-unit integers at NUMERIC(78,0) scale, the same
// range the bridge vaults use for wei balances.
var amountCtx = apd.BaseContext.WithPrecision(78)

// NewAmount returns an Amount holding the given integer value.
func NewAmount(v int64) *apd.Decimal {
	return apd.New(v, 0)
}

// ParseAmount parses a non-negative integer amount from its string form.
func ParseAmount(s string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %q", s)
	}
	if d.Form != apd.Finite {
		return nil, errors.Errorf("amount must be finite, got %s", s)
	}
	if d.Negative {
		return nil, errors.Errorf("amount must be non-negative, got %s", s)
	}
	if d.Exponent != 0 {
		// Normalize forms like 1e2 or 10.0 down to plain integers.
		var intPart apd.Decimal
		res, err := amountCtx.Quantize(&intPart, d, 0)
		if err != nil || res.Inexact() {
			return nil, errors.Errorf("amount must be a whole number, got %s", s)
		}
		d = &intPart
	}
	return d, nil
}

// MustParseAmount is ParseAmount for constants and tests.
func MustParseAmount(s string) *apd.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}

// AddAmounts returns a + b.
func AddAmounts(a, b *apd.Decimal) (*apd.Decimal, error) {
	var out apd.Decimal
	if _, err := amountCtx.Add(&out, a, b); err != nil {
		return nil, errors.Wrap(err, "amount addition failed")
	}
	return &out, nil
}

// SubAmounts returns a - b.
func SubAmounts(a, b *apd.Decimal) (*apd.Decimal, error) {
	var out apd.Decimal
	if _, err := amountCtx.Sub(&out, a, b); err != nil {
		return nil, errors.Wrap(err, "amount subtraction failed")
	}
	return &out, nil
}

// MulDivBps returns v * bps / 10000 rounded down, the royalty share for a
// basis-point rate.
func MulDivBps(v *apd.Decimal, bps int64) (*apd.Decimal, error) {
	var scaled, out apd.Decimal
	if _, err := amountCtx.Mul(&scaled, v, apd.New(bps, 0)); err != nil {
		return nil, errors.Wrap(err, "bps scaling failed")
	}
	if _, err := amountCtx.QuoInteger(&out, &scaled, apd.New(10000, 0)); err != nil {
		return nil, errors.Wrap(err, "bps division failed")
	}
	return &out, nil
}

// AmountsEqual reports a == b numerically.
func AmountsEqual(a, b *apd.Decimal) bool {
	return a != nil && b != nil && a.Cmp(b) == 0
}

// AmountIsPositive reports a > 0.
func AmountIsPositive(a *apd.Decimal) bool {
	return a != nil && a.Sign() > 0
}

// AmountIsNegative reports a < 0.
func AmountIsNegative(a *apd.Decimal) bool {
	return a != nil && a.Sign() < 0
}

// CloneAmount returns an independent copy of a, or zero when a is nil.
// Ledger records hand out copies so callers cannot mutate held balances.
func CloneAmount(a *apd.Decimal) *apd.Decimal {
	var out apd.Decimal
	if a == nil {
		return &out
	}
	out.Set(a)
	return &out
}

// FormatAmount renders an amount as its canonical integer string, "0" for nil.
func FormatAmount(a *apd.Decimal) string {
	if a == nil {
		return "0"
	}
	return a.Text('f')
}
