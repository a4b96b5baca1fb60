package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/stocks_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockValPeriod is one weighted-average valuation row per item and calendar
// month. Rows are derived data: RecomputePeriod can rebuild any of them from
// the movement ledger at any time with the same result.
type StockValPeriod struct {
	ID         int             `gorm:"primary_key" json:"id"`
	ItemId     int             `gorm:"not null;uniqueIndex:idx_valperiod_item_period" json:"item_id"`
	Period     string          `gorm:"size:7;not null;uniqueIndex:idx_valperiod_item_period" json:"period"`
	TotalQty   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_qty"`
	TotalValue int64           `gorm:"not null" json:"total_value"`
	AvgCost    int64           `gorm:"not null" json:"avg_cost"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ValuationResult is the outcome of one period recomputation.
type ValuationResult struct {
	ItemId     int             `json:"item_id"`
	Period     string          `json:"period"`
	TotalQty   decimal.Decimal `json:"total_qty"`
	TotalValue int64           `json:"total_value"`
	AvgCost    int64           `json:"avg_cost"`
}

// PeriodOf formats a movement date as the "YYYY-MM" valuation period key.
func PeriodOf(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// RecomputePeriod rebuilds the valuation row for one item and month from the
// ledger. All movements dated inside the month count, reversals included, so
// a reversed document and its compensation cancel out. The average cost is
// total value over total quantity, truncated toward zero; a zero net
// quantity yields a zero average. Returns nil when the month holds no
// movements for the item; an existing stale row is removed in that case.
func RecomputePeriod(ctx context.Context, db *gorm.DB, itemId int, year int, month int) (*ValuationResult, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	period := PeriodOf(start)

	var movements []*StockMovement
	err := db.WithContext(ctx).
		Where("item_id = ?", itemId).
		Where("created_at >= ? AND created_at < ?", start, end).
		Find(&movements).Error
	if err != nil {
		return nil, err
	}

	if len(movements) == 0 {
		err := db.WithContext(ctx).
			Where("item_id = ? AND period = ?", itemId, period).
			Delete(&StockValPeriod{}).Error
		if err != nil {
			return nil, err
		}
		_ = config.DeleteRedisKey(avgCostCacheKey(itemId))
		return nil, nil
	}

	totalQty := decimal.Zero
	var totalValue int64
	for _, m := range movements {
		totalQty = totalQty.Add(m.Qty)
		totalValue += m.TotalCost
	}

	var avgCost int64
	if !totalQty.IsZero() {
		avgCost = decimal.NewFromInt(totalValue).Div(totalQty).IntPart()
	}

	row := StockValPeriod{
		ItemId:     itemId,
		Period:     period,
		TotalQty:   totalQty,
		TotalValue: totalValue,
		AvgCost:    avgCost,
	}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}, {Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_qty", "total_value", "avg_cost", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	_ = config.DeleteRedisKey(avgCostCacheKey(itemId))

	return &ValuationResult{
		ItemId:     itemId,
		Period:     period,
		TotalQty:   totalQty,
		TotalValue: totalValue,
		AvgCost:    avgCost,
	}, nil
}

// RecomputeAllPeriods walks every (item, month) pair present in the ledger
// and rebuilds its valuation row. A non-zero itemId restricts the walk to one
// item. Used by the valuation-rebuild command.
func RecomputeAllPeriods(ctx context.Context, db *gorm.DB, itemId int) (int, error) {
	query := db.WithContext(ctx).Select("item_id", "created_at")
	if itemId > 0 {
		query = query.Where("item_id = ?", itemId)
	}
	var movements []*StockMovement
	if err := query.Find(&movements).Error; err != nil {
		return 0, err
	}

	type itemPeriod struct {
		itemId int
		year   int
		month  int
	}
	seen := map[itemPeriod]bool{}
	var pairs []itemPeriod
	for _, m := range movements {
		p := itemPeriod{m.ItemId, m.CreatedAt.Year(), int(m.CreatedAt.Month())}
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}

	for _, p := range pairs {
		if _, err := RecomputePeriod(ctx, db, p.itemId, p.year, p.month); err != nil {
			return 0, err
		}
	}
	return len(pairs), nil
}

// LatestPeriod returns the newest valuation row for an item, or nil when the
// item has never been valued.
func LatestPeriod(ctx context.Context, db *gorm.DB, itemId int) (*StockValPeriod, error) {
	var row StockValPeriod
	err := db.WithContext(ctx).
		Where("item_id = ?", itemId).
		Order("period DESC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}
