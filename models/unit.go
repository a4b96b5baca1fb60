package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/stocks_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Unit is a measurement unit with a conversion factor to its base unit.
// Read-only to the invoicing/ledger core; maintained by the units screen.
type Unit struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Code         string          `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name         string          `gorm:"size:50;not null" json:"name"`
	FactorToBase decimal.Decimal `gorm:"type:decimal(18,4);default:1" json:"factor_to_base"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUnit struct {
	Code         string          `json:"code" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	FactorToBase decimal.Decimal `json:"factor_to_base"`
}

func CreateUnit(ctx context.Context, db *gorm.DB, input *NewUnit) (*Unit, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	factor := input.FactorToBase
	if factor.IsZero() {
		factor = decimal.NewFromInt(1)
	}
	if factor.IsNegative() {
		return nil, errors.New("factor_to_base must be positive")
	}

	unit := Unit{
		Code:         input.Code,
		Name:         input.Name,
		FactorToBase: factor,
	}
	if err := db.WithContext(ctx).Create(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func GetUnit(ctx context.Context, db *gorm.DB, id int) (*Unit, error) {
	var unit Unit
	if err := db.WithContext(ctx).First(&unit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "unit", Id: id}
		}
		return nil, err
	}
	return &unit, nil
}

func ListUnits(ctx context.Context, db *gorm.DB) ([]*Unit, error) {
	var units []*Unit
	if err := db.WithContext(ctx).Order("id").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// ConvertQtyToBase converts a line quantity entered in an arbitrary unit to
// the item's base unit. Quantities entered directly in the base unit pass
// through unchanged.
func ConvertQtyToBase(ctx context.Context, db *gorm.DB, item *Item, qty decimal.Decimal, unitId int) (decimal.Decimal, error) {
	if item.BaseUnitId == unitId {
		return qty, nil
	}
	unit, err := GetUnit(ctx, db, unitId)
	if err != nil {
		return decimal.Zero, err
	}
	return qty.Mul(unit.FactorToBase), nil
}
