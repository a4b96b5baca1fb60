package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/stocks_backend/config"
	"bitbucket.org/mmdatafocus/stocks_backend/models"
)

func main() {
	itemID := flag.Int("item-id", 0, "Rebuild a single item (0 = all items)")
	year := flag.Int("year", 0, "Rebuild a single month (requires --month and --item-id)")
	month := flag.Int("month", 0, "Month 1-12, used with --year")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := context.Background()

	if *year != 0 || *month != 0 {
		if *itemID <= 0 || *year <= 0 || *month < 1 || *month > 12 {
			fmt.Fprintln(os.Stderr, "--item-id, --year and --month are required together")
			os.Exit(1)
		}
		result, err := models.RecomputePeriod(ctx, db, *itemID, *year, *month)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
			os.Exit(1)
		}
		if result == nil {
			fmt.Printf("item=%d period=%04d-%02d: no movements, row removed\n", *itemID, *year, *month)
			return
		}
		fmt.Printf("item=%d period=%s qty=%s value=%d avg=%d\n",
			result.ItemId, result.Period, result.TotalQty.String(), result.TotalValue, result.AvgCost)
		return
	}

	n, err := models.RecomputeAllPeriods(ctx, db, *itemID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("rebuilt %d valuation periods\n", n)
}
