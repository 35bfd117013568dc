package models

import (
	"context"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyRevenueSummary is a small, query-friendly aggregate used by dashboards
// and period reporting.
//
// Grain: transaction_date (UTC day).
//
// NOTE: This table is derived data and can be rebuilt from split_transactions.
type DailyRevenueSummary struct {
	TransactionDate time.Time `gorm:"primaryKey;type:date" json:"transaction_date"`

	TotalRevenue     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_revenue"`
	TotalCommissions decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_commissions"`
	TotalNetPayout   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_net_payout"`
	TransactionCount int             `gorm:"not null;default:0" json:"transaction_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ApplyToDailySummary upserts one recorded split onto its UTC day inside the
// caller's transaction. Increments are additive so out-of-order recording is
// safe.
func ApplyToDailySummary(tx *gorm.DB, ctx context.Context, transactionDate time.Time,
	originalAmount decimal.Decimal, totalSplitAmount decimal.Decimal, netPayoutAmount decimal.Decimal) error {

	day := transactionDate.UTC().Truncate(24 * time.Hour)

	summary := DailyRevenueSummary{
		TransactionDate:  day,
		TotalRevenue:     originalAmount,
		TotalCommissions: totalSplitAmount,
		TotalNetPayout:   netPayoutAmount,
		TransactionCount: 1,
	}

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "transaction_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_revenue":     gorm.Expr("total_revenue + ?", originalAmount),
			"total_commissions": gorm.Expr("total_commissions + ?", totalSplitAmount),
			"total_net_payout":  gorm.Expr("total_net_payout + ?", netPayoutAmount),
			"transaction_count": gorm.Expr("transaction_count + 1"),
			"updated_at":        time.Now().UTC(),
		}),
	}).Create(&summary).Error
}

// DailySummariesInRange reads summaries ordered by day. Days with no
// transactions have no row; callers needing a dense series fill gaps with
// zeros.
func DailySummariesInRange(ctx context.Context, from time.Time, to time.Time) ([]*DailyRevenueSummary, error) {

	db := config.GetDB()
	var results []*DailyRevenueSummary
	err := db.WithContext(ctx).
		Where("transaction_date >= ? AND transaction_date <= ?", from.UTC().Truncate(24*time.Hour), to.UTC().Truncate(24*time.Hour)).
		Order("transaction_date").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// RebuildDailySummaries recomputes the derived table from split_transactions
// for the given range. Used by the backfill command and after manual data
// repair.
func RebuildDailySummaries(ctx context.Context, from time.Time, to time.Time) (int, error) {

	db := config.GetDB()
	fromDay := from.UTC().Truncate(24 * time.Hour)
	toDay := to.UTC().Truncate(24 * time.Hour)

	rebuilt := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("transaction_date >= ? AND transaction_date <= ?", fromDay, toDay).
			Delete(&DailyRevenueSummary{}).Error
		if err != nil {
			return err
		}

		rows := make([]DailyRevenueSummary, 0)
		err = tx.Model(&SplitTransaction{}).
			Select("DATE(transaction_date) AS transaction_date, "+
				"SUM(original_amount) AS total_revenue, "+
				"SUM(total_split_amount) AS total_commissions, "+
				"SUM(net_payout_amount) AS total_net_payout, "+
				"COUNT(*) AS transaction_count").
			Where("transaction_date >= ? AND transaction_date <= ?", fromDay, toDay.AddDate(0, 0, 1)).
			Where("status <> ?", SplitTransactionStatusDisputed).
			Group("DATE(transaction_date)").
			Scan(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		rebuilt = len(rows)
		return nil
	})
	return rebuilt, err
}
