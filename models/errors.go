package models

import (
	"fmt"

	"bitbucket.org/mmdatafocus/stocks_backend/utils"
	"github.com/shopspring/decimal"
)

// InsufficientStockError is a business-rule violation, raised before any
// write of the offending operation. Callers recover by reducing the quantity
// or aborting; it is never logged as a fault.
type InsufficientStockError struct {
	ItemId    int
	ItemName  string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	name := e.ItemName
	if name == "" {
		name = fmt.Sprintf("item %d", e.ItemId)
	}
	return fmt.Sprintf("insufficient stock on hand for %s (available=%s, requested=%s)",
		name, e.Available.String(), e.Requested.String())
}

// NotFoundError marks a missing invoice, item, unit, party or line. It
// unwraps to utils.ErrorRecordNotFound so callers can match the class with
// errors.Is without importing this package's types.
type NotFoundError struct {
	Entity string
	Id     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.Id)
}

func (e *NotFoundError) Unwrap() error {
	return utils.ErrorRecordNotFound
}

// InvalidPricingInputError marks a malformed quantity or unit price handed to
// the pricing calculator. It aborts the whole operation.
type InvalidPricingInputError struct {
	Field  string
	Reason string
}

func (e *InvalidPricingInputError) Error() string {
	return fmt.Sprintf("invalid pricing input %s: %s", e.Field, e.Reason)
}
