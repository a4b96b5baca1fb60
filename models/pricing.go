package models

import (
	"github.com/shopspring/decimal"
)

// CalculateLineTotal prices one document line. Count items pay qty times
// unit price. Measure items pay per covered area: length times width times
// qty times unit price. The result is truncated toward zero to the smallest
// currency unit so totals stay representable as integers.
func CalculateLineTotal(item *Item, qty decimal.Decimal, unitPrice int64) (int64, error) {
	if !qty.IsPositive() {
		return 0, &InvalidPricingInputError{Field: "qty", Reason: "must be positive"}
	}
	if unitPrice < 0 {
		return 0, &InvalidPricingInputError{Field: "unit_price", Reason: "must not be negative"}
	}

	multiplier := qty
	if item.UnitType == UnitTypeMeasure {
		length := decimal.NewFromInt(1)
		if item.Length != nil {
			length = *item.Length
		}
		width := decimal.NewFromInt(1)
		if item.Width != nil {
			width = *item.Width
		}
		if !length.IsPositive() {
			return 0, &InvalidPricingInputError{Field: "length", Reason: "must be positive"}
		}
		if !width.IsPositive() {
			return 0, &InvalidPricingInputError{Field: "width", Reason: "must be positive"}
		}
		multiplier = length.Mul(width).Mul(qty)
	}

	total := multiplier.Mul(decimal.NewFromInt(unitPrice))
	return total.IntPart(), nil
}
