package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovement is one row of the append-only stock ledger. Rows are never
// updated or deleted after insert except for the ReversedByMovementId stamp
// set when a compensating row is written. Qty carries the sign: positive for
// stock in, negative for stock out. CostPerUnit is the document line's unit
// price in the smallest currency unit.
type StockMovement struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	ItemId               int             `gorm:"not null;index:idx_movement_item" json:"item_id"`
	MovementType         MovementType    `gorm:"size:30;not null" json:"movement_type"`
	Qty                  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"qty"`
	UnitId               int             `gorm:"not null" json:"unit_id"`
	CostPerUnit          int64           `gorm:"not null" json:"cost_per_unit"`
	TotalCost            int64           `gorm:"not null" json:"total_cost"`
	ReferenceType        string          `gorm:"size:30;not null;index:idx_movement_ref" json:"reference_type"`
	ReferenceId          int             `gorm:"not null;index:idx_movement_ref" json:"reference_id"`
	IsReversal           bool            `gorm:"not null;default:false" json:"is_reversal"`
	ReversedByMovementId *int            `json:"reversed_by_movement_id"`
	CorrelationId        string          `gorm:"size:36" json:"correlation_id"`
	CreatedBy            int             `json:"created_by"`
	CreatedAt            time.Time       `gorm:"autoCreateTime;index:idx_movement_item" json:"created_at"`
}

const ReferenceTypeInvoice = "invoice"

type RecordMovementInput struct {
	ItemId        int
	ItemName      string
	MovementType  MovementType
	Qty           decimal.Decimal
	UnitId        int
	CostPerUnit   int64
	ReferenceType string
	ReferenceId   int
	Date          time.Time
	CorrelationId string
	CreatedBy     int
}

// CurrentStock returns the quantity on hand for an item as the sum of all
// ledger rows. Reversal pairs cancel arithmetically, so no filtering is
// needed here.
func CurrentStock(tx *gorm.DB, itemId int) (decimal.Decimal, error) {
	var movements []*StockMovement
	err := tx.Select("qty").Where("item_id = ?", itemId).Find(&movements).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, m := range movements {
		total = total.Add(m.Qty)
	}
	return total, nil
}

// CurrentStockExcluding returns the quantity on hand as if the given
// reference's movements (and their reversals) had never been written. The
// update path uses it to validate a replacement document against the stock
// picture without the document being replaced.
func CurrentStockExcluding(tx *gorm.DB, itemId int, referenceType string, referenceId int) (decimal.Decimal, error) {
	var movements []*StockMovement
	err := tx.Select("qty").
		Where("item_id = ?", itemId).
		Where("NOT (reference_type = ? AND reference_id = ?)", referenceType, referenceId).
		Find(&movements).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, m := range movements {
		total = total.Add(m.Qty)
	}
	return total, nil
}

// RecordMovement validates and appends one ledger row inside the caller's
// open transaction. For outbound movements the on-hand balance is checked
// first and the row is refused with InsufficientStockError when it would go
// negative; nothing is written in that case.
func RecordMovement(tx *gorm.DB, input *RecordMovementInput) (*StockMovement, error) {
	if !input.Qty.IsPositive() {
		return nil, errors.New("movement qty must be positive")
	}

	signedQty := input.Qty
	if !input.MovementType.Inbound() {
		available, err := CurrentStock(tx, input.ItemId)
		if err != nil {
			return nil, err
		}
		if available.LessThan(input.Qty) {
			return nil, &InsufficientStockError{
				ItemId:    input.ItemId,
				ItemName:  input.ItemName,
				Requested: input.Qty,
				Available: available,
			}
		}
		signedQty = input.Qty.Neg()
	}

	correlationId := input.CorrelationId
	if correlationId == "" {
		correlationId = uuid.NewString()
	}
	referenceType := input.ReferenceType
	if referenceType == "" {
		referenceType = ReferenceTypeInvoice
	}

	movement := StockMovement{
		ItemId:        input.ItemId,
		MovementType:  input.MovementType,
		Qty:           signedQty,
		UnitId:        input.UnitId,
		CostPerUnit:   input.CostPerUnit,
		TotalCost:     signedQty.Mul(decimal.NewFromInt(input.CostPerUnit)).IntPart(),
		ReferenceType: referenceType,
		ReferenceId:   input.ReferenceId,
		CorrelationId: correlationId,
		CreatedBy:     input.CreatedBy,
		CreatedAt:     input.Date,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

// ReverseMovementsForReference appends a compensating row for every live
// movement of the reference and stamps the originals with the id of the row
// that cancelled them. Compensating rows keep the original movement date so
// the pair cancels inside the same valuation period. Rows already reversed, and reversal rows themselves,
// are skipped, so calling this twice for the same reference is harmless.
// Balance checks are the caller's job: the invoice lifecycle validates the
// net effect with CurrentStockExcluding before committing.
func ReverseMovementsForReference(tx *gorm.DB, referenceType string, referenceId int, correlationId string, createdBy int) ([]*StockMovement, error) {
	var originals []*StockMovement
	err := tx.Where("reference_type = ? AND reference_id = ?", referenceType, referenceId).
		Where("is_reversal = ?", false).
		Where("reversed_by_movement_id IS NULL").
		Order("id").
		Find(&originals).Error
	if err != nil {
		return nil, err
	}

	if correlationId == "" {
		correlationId = uuid.NewString()
	}

	reversals := make([]*StockMovement, 0, len(originals))
	for _, original := range originals {
		reversal := StockMovement{
			ItemId:        original.ItemId,
			MovementType:  original.MovementType.Reverse(),
			Qty:           original.Qty.Neg(),
			UnitId:        original.UnitId,
			CostPerUnit:   original.CostPerUnit,
			TotalCost:     -original.TotalCost,
			ReferenceType: original.ReferenceType,
			ReferenceId:   original.ReferenceId,
			IsReversal:    true,
			CorrelationId: correlationId,
			CreatedBy:     createdBy,
			CreatedAt:     original.CreatedAt,
		}
		if err := tx.Create(&reversal).Error; err != nil {
			return nil, err
		}
		err = tx.Model(original).Update("reversed_by_movement_id", reversal.ID).Error
		if err != nil {
			return nil, err
		}
		reversals = append(reversals, &reversal)
	}
	return reversals, nil
}

// MovementsForItem returns the item's full ledger in movement-date order.
// Documents can be backdated, so insertion order is only the tiebreaker.
func MovementsForItem(tx *gorm.DB, itemId int) ([]*StockMovement, error) {
	var movements []*StockMovement
	err := tx.Where("item_id = ?", itemId).Order("created_at, id").Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// MovementsForReference returns all rows of one document, reversals included.
func MovementsForReference(tx *gorm.DB, referenceType string, referenceId int) ([]*StockMovement, error) {
	var movements []*StockMovement
	err := tx.Where("reference_type = ? AND reference_id = ?", referenceType, referenceId).
		Order("id").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
