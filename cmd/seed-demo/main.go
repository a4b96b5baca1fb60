package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/stocks_backend/config"
	"bitbucket.org/mmdatafocus/stocks_backend/models"
	"github.com/shopspring/decimal"
)

func main() {
	confirm := flag.String("confirm", "", "Type SEED to write demo data")
	flag.Parse()

	if strings.TrimSpace(*confirm) != "SEED" {
		fmt.Fprintln(os.Stderr, "set --confirm=SEED to proceed")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := context.Background()
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	piece, err := models.CreateUnit(ctx, db, &models.NewUnit{Code: "pc", Name: "Piece"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed unit failed: %v\n", err)
		os.Exit(1)
	}
	meter, err := models.CreateUnit(ctx, db, &models.NewUnit{Code: "m", Name: "Meter"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed unit failed: %v\n", err)
		os.Exit(1)
	}
	_, err = models.CreateUnit(ctx, db, &models.NewUnit{
		Code: "box12", Name: "Box of 12", FactorToBase: decimal.NewFromInt(12),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed unit failed: %v\n", err)
		os.Exit(1)
	}

	items := []*models.NewItem{
		{Sku: "WIDGET-1", Name: "Widget", UnitType: models.UnitTypeCount, BaseUnitId: piece.ID},
		{Sku: "CABLE-2", Name: "Cable roll", UnitType: models.UnitTypeMeasure, BaseUnitId: meter.ID,
			Length: decimalPtr(10), Width: decimalPtr(1)},
	}
	for _, input := range items {
		if _, err := models.CreateItem(ctx, db, input); err != nil {
			fmt.Fprintf(os.Stderr, "seed item failed: %v\n", err)
			os.Exit(1)
		}
	}

	parties := []*models.NewParty{
		{Code: "SUP-1", Name: "Main supplier", PartyType: models.PartyTypeSupplier},
		{Code: "CUS-1", Name: "Walk-in customer", PartyType: models.PartyTypeCustomer},
	}
	for _, input := range parties {
		if _, err := models.CreateParty(ctx, db, input); err != nil {
			fmt.Fprintf(os.Stderr, "seed party failed: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("demo data seeded")
}

func decimalPtr(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}
