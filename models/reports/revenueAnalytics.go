package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/shopspring/decimal"
)

type RevenueTotalsResponse struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalCommissions  decimal.Decimal `json:"totalCommissions"`
	TotalBonuses      decimal.Decimal `json:"totalBonuses"`
	TotalFees         decimal.Decimal `json:"totalFees"`
	TotalNetPayout    decimal.Decimal `json:"totalNetPayout"`
	TransactionCount  int             `json:"transactionCount"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

type PartnerRevenueResponse struct {
	PartnerId        int             `json:"partnerId"`
	PartnerCode      *string         `json:"partnerCode,omitempty"`
	PartnerName      *string         `json:"partnerName,omitempty"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TotalCommissions decimal.Decimal `json:"totalCommissions"`
	TransactionCount int             `json:"transactionCount"`
}

type ProductRevenueResponse struct {
	ProductId        *string         `json:"productId,omitempty"`
	ProductName      *string         `json:"productName,omitempty"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TotalCommissions decimal.Decimal `json:"totalCommissions"`
	TransactionCount int             `json:"transactionCount"`
}

type StatusBreakdownResponse struct {
	Status           string          `json:"status"`
	TransactionCount int             `json:"transactionCount"`
	NetPayoutAmount  decimal.Decimal `json:"netPayoutAmount"`
}

type RevenueAnalyticsResponse struct {
	FromDate time.Time `json:"fromDate"`
	ToDate   time.Time `json:"toDate"`

	Totals         RevenueTotalsResponse `json:"totals"`
	PreviousTotals RevenueTotalsResponse `json:"previousTotals"`

	// revenue growth vs the preceding period of equal length, percent
	GrowthRate decimal.Decimal `json:"growthRate"`

	TopPartners     []*PartnerRevenueResponse  `json:"topPartners"`
	TopProducts     []*ProductRevenueResponse  `json:"topProducts"`
	StatusBreakdown []*StatusBreakdownResponse `json:"statusBreakdown"`
}

const revenueTotalsSQL = `
SELECT
    COALESCE(SUM(original_amount), 0) AS total_revenue,
    COALESCE(SUM(commission_amount), 0) AS total_commissions,
    COALESCE(SUM(bonus_amount), 0) AS total_bonuses,
    COALESCE(SUM(processing_fees + platform_fees), 0) AS total_fees,
    COALESCE(SUM(net_payout_amount), 0) AS total_net_payout,
    COUNT(*) AS transaction_count,
    COALESCE(AVG(original_amount), 0) AS average_order_value
FROM
    split_transactions
WHERE
    transaction_date BETWEEN @fromDate AND @toDate
        AND status <> 'disputed'
        {{- if .vertical }} AND vertical = @vertical {{- end }}
        {{- if .partnerId }} AND partner_id = @partnerId {{- end }}
`

const topPartnersSQL = `
WITH PartnerTotals AS (
    SELECT
        partner_id,
        SUM(original_amount) AS total_revenue,
        SUM(total_split_amount) AS total_commissions,
        COUNT(*) AS transaction_count
    FROM
        split_transactions
    WHERE
        transaction_date BETWEEN @fromDate AND @toDate
            AND status <> 'disputed'
            {{- if .vertical }} AND vertical = @vertical {{- end }}
    GROUP BY partner_id
)
SELECT
    PartnerTotals.partner_id,
    partners.partner_code,
    partners.partner_name,
    PartnerTotals.total_revenue,
    PartnerTotals.total_commissions,
    PartnerTotals.transaction_count
FROM
    PartnerTotals
        LEFT JOIN
    partners ON partners.id = PartnerTotals.partner_id
ORDER BY PartnerTotals.total_commissions DESC
LIMIT 10
`

const topProductsSQL = `
SELECT
    product_id,
    product_name,
    SUM(original_amount) AS total_revenue,
    SUM(total_split_amount) AS total_commissions,
    COUNT(*) AS transaction_count
FROM
    split_transactions
WHERE
    transaction_date BETWEEN @fromDate AND @toDate
        AND status <> 'disputed'
        AND product_id IS NOT NULL
        {{- if .vertical }} AND vertical = @vertical {{- end }}
        {{- if .partnerId }} AND partner_id = @partnerId {{- end }}
GROUP BY product_id , product_name
ORDER BY total_revenue DESC
LIMIT 10
`

const statusBreakdownSQL = `
SELECT
    status,
    COUNT(*) AS transaction_count,
    COALESCE(SUM(net_payout_amount), 0) AS net_payout_amount
FROM
    split_transactions
WHERE
    transaction_date BETWEEN @fromDate AND @toDate
        {{- if .vertical }} AND vertical = @vertical {{- end }}
        {{- if .partnerId }} AND partner_id = @partnerId {{- end }}
GROUP BY status
ORDER BY status
`

// GetRevenueAnalyticsReport aggregates split activity for a period. Growth is
// measured against the preceding period of equal length; an empty preceding
// period reports zero growth rather than inventing a rate.
func GetRevenueAnalyticsReport(ctx context.Context, fromDate time.Time, toDate time.Time,
	vertical *string, partnerId *int) (*RevenueAnalyticsResponse, error) {

	started := time.Now()
	defer logSlowReport(ctx, "revenue_analytics", started, map[string]any{
		"from": fromDate.Format("2006-01-02"), "to": toDate.Format("2006-01-02"),
	})

	cacheKey := fmt.Sprintf("report:revenue_analytics:%s:%s:%s:%d",
		fromDate.Format("2006-01-02"), toDate.Format("2006-01-02"),
		utils.DereferencePtr(vertical), utils.DereferencePtr(partnerId))
	if reportCacheEnabled() {
		var cached RevenueAnalyticsResponse
		if ok, err := cacheGet(cacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	templateArgs := map[string]interface{}{
		"vertical":  utils.DereferencePtr(vertical),
		"partnerId": utils.DereferencePtr(partnerId),
	}
	namedArgs := map[string]interface{}{
		"fromDate":  fromDate,
		"toDate":    toDate,
		"vertical":  vertical,
		"partnerId": partnerId,
	}

	totals, err := queryTotals(ctx, templateArgs, namedArgs)
	if err != nil {
		return nil, err
	}

	previousStart, previousEnd := utils.PreviousPeriod(fromDate, toDate)
	previousArgs := map[string]interface{}{
		"fromDate":  previousStart,
		"toDate":    previousEnd,
		"vertical":  vertical,
		"partnerId": partnerId,
	}
	previousTotals, err := queryTotals(ctx, templateArgs, previousArgs)
	if err != nil {
		return nil, err
	}

	growthRate := decimal.Zero
	if previousTotals.TotalRevenue.IsPositive() {
		growthRate = totals.TotalRevenue.Sub(previousTotals.TotalRevenue).
			Div(previousTotals.TotalRevenue).
			Mul(decimal.NewFromInt(100)).Round(4)
	}

	db := config.GetDB()

	topPartners := make([]*PartnerRevenueResponse, 0)
	sql, err := utils.ExecTemplate(topPartnersSQL, templateArgs)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Raw(sql, namedArgs).Scan(&topPartners).Error; err != nil {
		return nil, err
	}

	topProducts := make([]*ProductRevenueResponse, 0)
	sql, err = utils.ExecTemplate(topProductsSQL, templateArgs)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Raw(sql, namedArgs).Scan(&topProducts).Error; err != nil {
		return nil, err
	}

	statusBreakdown := make([]*StatusBreakdownResponse, 0)
	sql, err = utils.ExecTemplate(statusBreakdownSQL, templateArgs)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Raw(sql, namedArgs).Scan(&statusBreakdown).Error; err != nil {
		return nil, err
	}

	response := &RevenueAnalyticsResponse{
		FromDate:        fromDate,
		ToDate:          toDate,
		Totals:          *totals,
		PreviousTotals:  *previousTotals,
		GrowthRate:      growthRate,
		TopPartners:     topPartners,
		TopProducts:     topProducts,
		StatusBreakdown: statusBreakdown,
	}

	if reportCacheEnabled() {
		_ = cacheSet(cacheKey, response, reportCacheTTL())
	}

	return response, nil
}

func queryTotals(ctx context.Context, templateArgs map[string]interface{},
	namedArgs map[string]interface{}) (*RevenueTotalsResponse, error) {

	sql, err := utils.ExecTemplate(revenueTotalsSQL, templateArgs)
	if err != nil {
		return nil, err
	}

	var totals RevenueTotalsResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, namedArgs).Scan(&totals).Error; err != nil {
		return nil, err
	}
	return &totals, nil
}
