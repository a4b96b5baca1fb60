package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreatePartyValidatesPhone(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := CreateParty(ctx, db, &NewParty{
		Code: "P-1", Name: "Good phone", PartyType: PartyTypeCustomer,
		Phone: strPtr("+989123456789"),
	})
	require.NoError(t, err)

	_, err = CreateParty(ctx, db, &NewParty{
		Code: "P-2", Name: "Bad phone", PartyType: PartyTypeCustomer,
		Phone: strPtr("123"),
	})
	require.Error(t, err)
}

func TestCreatePartyValidatesEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := CreateParty(ctx, db, &NewParty{
		Code: "P-1", Name: "Bad email", PartyType: PartyTypeSupplier,
		Email: strPtr("not-an-email"),
	})
	require.Error(t, err)
}

func TestListPartiesFiltersByType(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := CreateParty(ctx, db, &NewParty{Code: "C-1", Name: "Customer", PartyType: PartyTypeCustomer})
	require.NoError(t, err)
	_, err = CreateParty(ctx, db, &NewParty{Code: "S-1", Name: "Supplier", PartyType: PartyTypeSupplier})
	require.NoError(t, err)
	_, err = CreateParty(ctx, db, &NewParty{Code: "B-1", Name: "Both ways", PartyType: PartyTypeBoth})
	require.NoError(t, err)

	customerType := PartyTypeCustomer
	parties, err := ListParties(ctx, db, &customerType)
	require.NoError(t, err)
	require.Len(t, parties, 2)
	assert.Equal(t, "C-1", parties[0].Code)
	assert.Equal(t, "B-1", parties[1].Code)

	all, err := ListParties(ctx, db, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
