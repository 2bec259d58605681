// Package pricing holds the pure money math for cart line items.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Sentinel errors for precondition violations. Callers are expected to reject
// bad input before it reaches any remote call.
var (
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrInvalidDiscount = errors.New("discount percent must be between 0 and 100")
	ErrInvalidPrice    = errors.New("unit price must not be negative")
	ErrInvalidTaxRate  = errors.New("tax rate must be between 0 and 100")
)

// LineAmounts holds the derived amounts for a single cart line.
type LineAmounts struct {
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// ComputeLine calculates discount, tax, and total for one line.
//
// The discount applies to unit price times quantity; tax applies to the
// discounted taxable base, never the gross amount. Each derived amount is
// rounded to 2 decimal places exactly once.
func ComputeLine(unitPrice, quantity, discountPercent, taxRate decimal.Decimal) (LineAmounts, error) {
	if !quantity.IsPositive() {
		return LineAmounts{}, ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return LineAmounts{}, ErrInvalidPrice
	}
	if !validPercent(discountPercent) {
		return LineAmounts{}, ErrInvalidDiscount
	}
	if !validPercent(taxRate) {
		return LineAmounts{}, ErrInvalidTaxRate
	}

	gross := unitPrice.Mul(quantity)
	discount := gross.Mul(discountPercent).Div(hundred).Round(2)
	taxable := gross.Sub(discount)
	tax := taxable.Mul(taxRate).Div(hundred).Round(2)
	total := taxable.Add(tax).Round(2)

	return LineAmounts{
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          total,
	}, nil
}

// validPercent reports whether p is within [0, 100].
func validPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}
