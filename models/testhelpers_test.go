package models

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

// newTestDB opens an isolated in-memory database per call. The database gets
// a unique name so gorm's connection pool always lands on the same memory
// file and parallel tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, MigrateTable(db))
	return db
}

func dec(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func decPtr(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

type fixture struct {
	db       *gorm.DB
	piece    *Unit
	meter    *Unit
	box12    *Unit
	widget   *Item
	carpet   *Item
	supplier *Party
	customer *Party
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)

	piece, err := CreateUnit(ctx, db, &NewUnit{Code: "pc", Name: "Piece"})
	require.NoError(t, err)
	meter, err := CreateUnit(ctx, db, &NewUnit{Code: "m", Name: "Meter"})
	require.NoError(t, err)
	box12, err := CreateUnit(ctx, db, &NewUnit{Code: "box12", Name: "Box of 12", FactorToBase: dec(12)})
	require.NoError(t, err)

	widget, err := CreateItem(ctx, db, &NewItem{
		Sku: "WIDGET-1", Name: "Widget", UnitType: UnitTypeCount, BaseUnitId: piece.ID,
	})
	require.NoError(t, err)
	carpet, err := CreateItem(ctx, db, &NewItem{
		Sku: "CARPET-1", Name: "Carpet roll", UnitType: UnitTypeMeasure, BaseUnitId: meter.ID,
		Length: decPtr(10), Width: decPtr(1),
	})
	require.NoError(t, err)

	supplier, err := CreateParty(ctx, db, &NewParty{
		Code: "SUP-1", Name: "Main supplier", PartyType: PartyTypeSupplier,
	})
	require.NoError(t, err)
	customer, err := CreateParty(ctx, db, &NewParty{
		Code: "CUS-1", Name: "Walk-in customer", PartyType: PartyTypeCustomer,
	})
	require.NoError(t, err)

	return &fixture{
		db:       db,
		piece:    piece,
		meter:    meter,
		box12:    box12,
		widget:   widget,
		carpet:   carpet,
		supplier: supplier,
		customer: customer,
	}
}

// testDate keeps every document in one valuation month (2025-09).
const testDateJalali = "1404/06/10"

func (f *fixture) invoiceInput(invoiceType InvoiceType, partyId int, lines ...*NewInvoiceLine) *NewInvoice {
	return &NewInvoice{
		InvoiceType: invoiceType,
		PartyId:     partyId,
		DateJalali:  testDateJalali,
		Lines:       lines,
	}
}

func (f *fixture) purchaseWidgets(t *testing.T, qty int64, unitPrice int64) *Invoice {
	t.Helper()
	invoice, err := CreateInvoice(context.Background(), f.db, f.invoiceInput(
		InvoiceTypePurchase, f.supplier.ID,
		&NewInvoiceLine{ItemId: f.widget.ID, Qty: dec(qty), UnitPrice: unitPrice},
	))
	require.NoError(t, err)
	return invoice
}

func (f *fixture) sellWidgets(t *testing.T, qty int64, unitPrice int64) *Invoice {
	t.Helper()
	invoice, err := CreateInvoice(context.Background(), f.db, f.invoiceInput(
		InvoiceTypeSale, f.customer.ID,
		&NewInvoiceLine{ItemId: f.widget.ID, Qty: dec(qty), UnitPrice: unitPrice},
	))
	require.NoError(t, err)
	return invoice
}

func (f *fixture) widgetStock(t *testing.T) decimal.Decimal {
	t.Helper()
	stock, err := CurrentStock(f.db, f.widget.ID)
	require.NoError(t, err)
	return stock
}
