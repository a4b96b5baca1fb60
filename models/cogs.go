package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/stocks_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func avgCostCacheKey(itemId int) string {
	return fmt.Sprintf("itemAvgCost:%d", itemId)
}

// CostOfGoodsSold estimates the cost of one invoice line as the item's most
// recent monthly average cost times the line quantity, truncated toward zero.
// Items that have never been valued cost zero. This is a reporting
// approximation, not a per-lot costing: the line's own period may still be
// open when the lookup runs.
func CostOfGoodsSold(ctx context.Context, db *gorm.DB, lineId int) (int64, error) {
	line, err := GetInvoiceLine(ctx, db, lineId)
	if err != nil {
		return 0, err
	}

	avgCost, err := latestAvgCost(ctx, db, line.ItemId)
	if err != nil {
		return 0, err
	}
	if avgCost == 0 {
		return 0, nil
	}
	return line.Qty.Mul(decimal.NewFromInt(avgCost)).IntPart(), nil
}

func latestAvgCost(ctx context.Context, db *gorm.DB, itemId int) (int64, error) {
	var cached int64
	if ok, err := config.GetRedisObject(avgCostCacheKey(itemId), &cached); err == nil && ok {
		return cached, nil
	}

	row, err := LatestPeriod(ctx, db, itemId)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	_ = config.SetRedisObject(avgCostCacheKey(itemId), row.AvgCost, time.Hour)
	return row.AvgCost, nil
}
