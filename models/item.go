package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/stocks_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is a stockable product. Geometry (Length/Width) only applies to
// measure-type items and feeds the pricing calculator. LastPurchasePrice and
// LastSalePrice are informational caches refreshed by the invoice write path
// through UpdateItemLastPrice; nothing in the core reads them back.
type Item struct {
	ID                int              `gorm:"primary_key" json:"id"`
	Sku               string           `gorm:"size:50;uniqueIndex;not null" json:"sku"`
	Name              string           `gorm:"size:200;index;not null" json:"name"`
	UnitType          UnitType         `gorm:"size:20;not null" json:"unit_type"`
	BaseUnitId        int              `gorm:"not null" json:"base_unit_id"`
	Length            *decimal.Decimal `gorm:"type:decimal(18,4)" json:"length"`
	Width             *decimal.Decimal `gorm:"type:decimal(18,4)" json:"width"`
	Active            *bool            `gorm:"not null;default:true" json:"active"`
	Barcode           *string          `gorm:"size:100;uniqueIndex" json:"barcode"`
	LastPurchasePrice int64            `gorm:"default:0" json:"last_purchase_price"`
	LastSalePrice     int64            `gorm:"default:0" json:"last_sale_price"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItem struct {
	Sku        string           `json:"sku" validate:"required"`
	Name       string           `json:"name" validate:"required"`
	UnitType   UnitType         `json:"unit_type" validate:"required,oneof=count measure"`
	BaseUnitId int              `json:"base_unit_id" validate:"required,gt=0"`
	Length     *decimal.Decimal `json:"length"`
	Width      *decimal.Decimal `json:"width"`
	Barcode    *string          `json:"barcode"`
}

func (input *NewItem) validate(ctx context.Context, db *gorm.DB) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if _, err := GetUnit(ctx, db, input.BaseUnitId); err != nil {
		return err
	}
	if input.UnitType == UnitTypeCount && (input.Length != nil || input.Width != nil) {
		return errors.New("length/width only apply to measure items")
	}
	return nil
}

func CreateItem(ctx context.Context, db *gorm.DB, input *NewItem) (*Item, error) {
	if err := input.validate(ctx, db); err != nil {
		return nil, err
	}
	item := Item{
		Sku:        input.Sku,
		Name:       input.Name,
		UnitType:   input.UnitType,
		BaseUnitId: input.BaseUnitId,
		Length:     input.Length,
		Width:      input.Width,
		Active:     utils.NewTrue(),
		Barcode:    input.Barcode,
	}
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func UpdateItem(ctx context.Context, db *gorm.DB, id int, input *NewItem) (*Item, error) {
	if err := input.validate(ctx, db); err != nil {
		return nil, err
	}
	item, err := GetItem(ctx, db, id)
	if err != nil {
		return nil, err
	}
	err = db.WithContext(ctx).Model(item).Updates(map[string]interface{}{
		"Sku":        input.Sku,
		"Name":       input.Name,
		"UnitType":   input.UnitType,
		"BaseUnitId": input.BaseUnitId,
		"Length":     input.Length,
		"Width":      input.Width,
		"Barcode":    input.Barcode,
	}).Error
	if err != nil {
		return nil, err
	}
	return item, nil
}

func DeleteItem(ctx context.Context, db *gorm.DB, id int) error {
	item, err := GetItem(ctx, db, id)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Delete(item).Error
}

func GetItem(ctx context.Context, db *gorm.DB, id int) (*Item, error) {
	var item Item
	if err := db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "item", Id: id}
		}
		return nil, err
	}
	return &item, nil
}

func ListItems(ctx context.Context, db *gorm.DB) ([]*Item, error) {
	var items []*Item
	if err := db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItemLastPrice refreshes the item's cached last purchase or sale
// price. The invoice lifecycle calls this once per line for purchase and
// sale documents only; returns are deliberately excluded so a return at an
// unusual price does not pollute the cache.
func UpdateItemLastPrice(tx *gorm.DB, itemId int, invoiceType InvoiceType, unitPrice int64) error {
	var column string
	switch invoiceType {
	case InvoiceTypePurchase:
		column = "last_purchase_price"
	case InvoiceTypeSale:
		column = "last_sale_price"
	default:
		return nil
	}
	return tx.Model(&Item{}).Where("id = ?", itemId).Update(column, unitPrice).Error
}
