package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movementDate() time.Time {
	return time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
}

func TestCurrentStockEmptyLedger(t *testing.T) {
	f := newFixture(t)

	stock, err := CurrentStock(f.db, f.widget.ID)
	require.NoError(t, err)
	assert.True(t, stock.IsZero())
}

func TestCurrentStockSumsSignedQuantities(t *testing.T) {
	f := newFixture(t)

	_, err := RecordMovement(f.db, &RecordMovementInput{
		ItemId: f.widget.ID, MovementType: MovementTypePurchaseIn,
		Qty: dec(100), UnitId: f.piece.ID, CostPerUnit: 10000,
		ReferenceId: 1, Date: movementDate(),
	})
	require.NoError(t, err)

	_, err = RecordMovement(f.db, &RecordMovementInput{
		ItemId: f.widget.ID, MovementType: MovementTypeSaleOut,
		Qty: dec(20), UnitId: f.piece.ID, CostPerUnit: 15000,
		ReferenceId: 2, Date: movementDate(),
	})
	require.NoError(t, err)

	stock, err := CurrentStock(f.db, f.widget.ID)
	require.NoError(t, err)
	assert.True(t, dec(80).Equal(stock))
}

func TestRecordMovementComputesTotalCost(t *testing.T) {
	f := newFixture(t)

	in, err := RecordMovement(f.db, &RecordMovementInput{
		ItemId: f.widget.ID, MovementType: MovementTypePurchaseIn,
		Qty: dec(100), UnitId: f.piece.ID, CostPerUnit: 10000,
		ReferenceId: 1, Date: movementDate(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), in.TotalCost)

	out, err := RecordMovement(f.db, &RecordMovementInput{
		ItemId: f.widget.ID, MovementType: MovementTypeSaleOut,
		Qty: dec(20), UnitId: f.piece.ID, CostPerUnit: 15000,
		ReferenceId: 2, Date: movementDate(),
	})
	require.NoError(t, err)
	assert.True(t, dec(-20).Equal(out.Qty))
	assert.Equal(t, int64(-300000), out.TotalCost)
}

func TestRecordMovementRejectsOversell(t *testing.T) {
	f := newFixture(t)

	_, err := RecordMovement(f.db, &RecordMovementInput{
		ItemId: f.widget.ID, MovementType: MovementTypePurchaseIn,
		Qty: dec(50), UnitId: f.piece.ID, CostPerUnit: 10000,
		ReferenceId: 1, Date: movementDate(),
	})
	require.NoError(t, err)

	_, err = RecordMovement(f.db, &RecordMovementInput{
		ItemId: f.widget.ID, ItemName: f.widget.Name, MovementType: MovementTypeSaleOut,
		Qty: dec(60), UnitId: f.piece.ID, CostPerUnit: 15000,
		ReferenceId: 2, Date: movementDate(),
	})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, dec(60).Equal(stockErr.Requested))
	assert.True(t, dec(50).Equal(stockErr.Available))

	// the failed movement must not leave a row behind
	movements, err := MovementsForItem(f.db, f.widget.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 1)

	stock, err := CurrentStock(f.db, f.widget.ID)
	require.NoError(t, err)
	assert.True(t, dec(50).Equal(stock))
}

func TestRecordMovementRejectsNonPositiveQty(t *testing.T) {
	f := newFixture(t)

	for _, qty := range []int64{0, -5} {
		_, err := RecordMovement(f.db, &RecordMovementInput{
			ItemId: f.widget.ID, MovementType: MovementTypePurchaseIn,
			Qty: dec(qty), UnitId: f.piece.ID, CostPerUnit: 10000,
			ReferenceId: 1, Date: movementDate(),
		})
		require.Error(t, err)
	}

	movements, err := MovementsForItem(f.db, f.widget.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestReverseMovementsForReference(t *testing.T) {
	f := newFixture(t)

	_, err := RecordMovement(f.db, &RecordMovementInput{
		ItemId: f.widget.ID, MovementType: MovementTypePurchaseIn,
		Qty: dec(100), UnitId: f.piece.ID, CostPerUnit: 10000,
		ReferenceId: 7, Date: movementDate(),
	})
	require.NoError(t, err)

	reversals, err := ReverseMovementsForReference(f.db, ReferenceTypeInvoice, 7, "", 0)
	require.NoError(t, err)
	require.Len(t, reversals, 1)
	assert.Equal(t, MovementType("reverse_purchase_in"), reversals[0].MovementType)
	assert.True(t, dec(-100).Equal(reversals[0].Qty))
	assert.True(t, reversals[0].IsReversal)
	assert.True(t, movementDate().Equal(reversals[0].CreatedAt))

	// original carries the stamp
	movements, err := MovementsForReference(f.db, ReferenceTypeInvoice, 7)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	require.NotNil(t, movements[0].ReversedByMovementId)
	assert.Equal(t, reversals[0].ID, *movements[0].ReversedByMovementId)

	stock, err := CurrentStock(f.db, f.widget.ID)
	require.NoError(t, err)
	assert.True(t, stock.IsZero())
}

func TestReverseMovementsForReferenceIsIdempotent(t *testing.T) {
	f := newFixture(t)

	_, err := RecordMovement(f.db, &RecordMovementInput{
		ItemId: f.widget.ID, MovementType: MovementTypePurchaseIn,
		Qty: dec(100), UnitId: f.piece.ID, CostPerUnit: 10000,
		ReferenceId: 7, Date: movementDate(),
	})
	require.NoError(t, err)

	first, err := ReverseMovementsForReference(f.db, ReferenceTypeInvoice, 7, "", 0)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := ReverseMovementsForReference(f.db, ReferenceTypeInvoice, 7, "", 0)
	require.NoError(t, err)
	assert.Empty(t, second)

	movements, err := MovementsForReference(f.db, ReferenceTypeInvoice, 7)
	require.NoError(t, err)
	assert.Len(t, movements, 2)
}

func TestCurrentStockExcludingReference(t *testing.T) {
	f := newFixture(t)

	_, err := RecordMovement(f.db, &RecordMovementInput{
		ItemId: f.widget.ID, MovementType: MovementTypePurchaseIn,
		Qty: dec(100), UnitId: f.piece.ID, CostPerUnit: 10000,
		ReferenceId: 1, Date: movementDate(),
	})
	require.NoError(t, err)
	_, err = RecordMovement(f.db, &RecordMovementInput{
		ItemId: f.widget.ID, MovementType: MovementTypeSaleOut,
		Qty: dec(30), UnitId: f.piece.ID, CostPerUnit: 15000,
		ReferenceId: 2, Date: movementDate(),
	})
	require.NoError(t, err)

	without, err := CurrentStockExcluding(f.db, f.widget.ID, ReferenceTypeInvoice, 1)
	require.NoError(t, err)
	assert.True(t, dec(-30).Equal(without))

	without, err = CurrentStockExcluding(f.db, f.widget.ID, ReferenceTypeInvoice, 2)
	require.NoError(t, err)
	assert.True(t, dec(100).Equal(without))
}
