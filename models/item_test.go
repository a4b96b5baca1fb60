package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItemRequiresExistingUnit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := CreateItem(ctx, db, &NewItem{
		Sku: "X-1", Name: "Orphan", UnitType: UnitTypeCount, BaseUnitId: 99,
	})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "unit", notFound.Entity)
}

func TestCreateItemRejectsDimensionsOnCountItems(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	unit, err := CreateUnit(ctx, db, &NewUnit{Code: "pc", Name: "Piece"})
	require.NoError(t, err)

	_, err = CreateItem(ctx, db, &NewItem{
		Sku: "X-1", Name: "Counted", UnitType: UnitTypeCount, BaseUnitId: unit.ID,
		Length: decPtr(10),
	})
	require.Error(t, err)
}

func TestUpdateItemLastPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, UpdateItemLastPrice(f.db, f.widget.ID, InvoiceTypePurchase, 4200))
	require.NoError(t, UpdateItemLastPrice(f.db, f.widget.ID, InvoiceTypeSale, 5600))
	require.NoError(t, UpdateItemLastPrice(f.db, f.widget.ID, InvoiceTypeSaleReturn, 1))

	item, err := GetItem(ctx, f.db, f.widget.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4200), item.LastPurchasePrice)
	assert.Equal(t, int64(5600), item.LastSalePrice)
}

func TestConvertQtyToBase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// base unit passes through
	qty, err := ConvertQtyToBase(ctx, f.db, f.widget, dec(5), f.piece.ID)
	require.NoError(t, err)
	assert.True(t, dec(5).Equal(qty))

	// box of 12
	qty, err = ConvertQtyToBase(ctx, f.db, f.widget, dec(2), f.box12.ID)
	require.NoError(t, err)
	assert.True(t, dec(24).Equal(qty))

	_, err = ConvertQtyToBase(ctx, f.db, f.widget, dec(2), 999)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}
