package models

import (
	"errors"
	"strings"
)

type UnitType string

const (
	UnitTypeCount   UnitType = "count"
	UnitTypeMeasure UnitType = "measure"
)

type PartyType string

const (
	PartyTypeCustomer PartyType = "customer"
	PartyTypeSupplier PartyType = "supplier"
	PartyTypeBoth     PartyType = "both"
)

type InvoiceType string

const (
	InvoiceTypePurchase       InvoiceType = "purchase"
	InvoiceTypeSale           InvoiceType = "sale"
	InvoiceTypePurchaseReturn InvoiceType = "purchase_return"
	InvoiceTypeSaleReturn     InvoiceType = "sale_return"
)

func (t InvoiceType) Valid() bool {
	switch t {
	case InvoiceTypePurchase, InvoiceTypeSale, InvoiceTypePurchaseReturn, InvoiceTypeSaleReturn:
		return true
	}
	return false
}

// RemovesStock reports whether documents of this type take stock out of the
// warehouse and therefore need a sufficiency check before posting.
func (t InvoiceType) RemovesStock() bool {
	return t == InvoiceTypeSale || t == InvoiceTypePurchaseReturn
}

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPosted    InvoiceStatus = "posted"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPosted, InvoiceStatusCancelled:
		return true
	}
	return false
}

type MovementType string

const (
	MovementTypePurchaseIn MovementType = "purchase_in"
	MovementTypeSaleOut    MovementType = "sale_out"
	MovementTypeReturnIn   MovementType = "return_in"
	MovementTypeReturnOut  MovementType = "return_out"
)

const movementReversePrefix = "reverse_"

// MovementTypeForInvoice maps a document type to the ledger movement it emits.
func MovementTypeForInvoice(t InvoiceType) (MovementType, error) {
	switch t {
	case InvoiceTypePurchase:
		return MovementTypePurchaseIn, nil
	case InvoiceTypeSale:
		return MovementTypeSaleOut, nil
	case InvoiceTypeSaleReturn:
		return MovementTypeReturnIn, nil
	case InvoiceTypePurchaseReturn:
		return MovementTypeReturnOut, nil
	}
	return "", errors.New("invalid invoice type")
}

// Reverse returns the compensating movement type tag.
func (m MovementType) Reverse() MovementType {
	return MovementType(movementReversePrefix + string(m))
}

// IsReversal reports whether the tag marks a compensating movement.
func (m MovementType) IsReversal() bool {
	return strings.HasPrefix(string(m), movementReversePrefix)
}

// Inbound reports the quantity sign convention for the movement type:
// true means stock in (positive qty), false means stock out (negative qty).
func (m MovementType) Inbound() bool {
	switch m {
	case MovementTypePurchaseIn, MovementTypeReturnIn:
		return true
	}
	return false
}
