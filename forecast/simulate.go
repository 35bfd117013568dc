package forecast

import (
	"context"

	"github.com/empirehq/revenue_backend/models"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/shopspring/decimal"
)

// market condition multipliers applied to predicted revenue
var marketMultipliers = map[models.MarketCondition]decimal.Decimal{
	models.MarketConditionDecline: decimal.RequireFromString("0.8"),
	models.MarketConditionStable:  decimal.NewFromInt(1),
	models.MarketConditionGrowth:  decimal.RequireFromString("1.2"),
}

type SimulationRequest struct {
	ForecastId          int                    `json:"forecast_id" binding:"required"`
	MarketCondition     models.MarketCondition `json:"market_condition"`
	CommissionRateDelta decimal.Decimal        `json:"commission_rate_delta"`
}

// SimulationResult is a what-if view over a stored forecast. Nothing is
// persisted; the underlying forecast is untouched.
type SimulationResult struct {
	ForecastId          int                    `json:"forecast_id"`
	MarketCondition     models.MarketCondition `json:"market_condition"`
	CommissionRateDelta decimal.Decimal        `json:"commission_rate_delta"`

	BaseRevenue         decimal.Decimal `json:"base_revenue"`
	AdjustedRevenue     decimal.Decimal `json:"adjusted_revenue"`
	AdjustedCommissions decimal.Decimal `json:"adjusted_commissions"`
	AdjustedNetProfit   decimal.Decimal `json:"adjusted_net_profit"`
}

// Simulate reprices a stored forecast under a market condition and a
// commission-rate change (in percentage points of revenue).
func Simulate(ctx context.Context, req *SimulationRequest) (*SimulationResult, error) {

	if req.MarketCondition == "" {
		req.MarketCondition = models.MarketConditionStable
	}
	multiplier, ok := marketMultipliers[req.MarketCondition]
	if !ok {
		return nil, utils.ErrorInvalidEnum("market_condition", string(req.MarketCondition))
	}

	stored, err := models.GetForecast(ctx, req.ForecastId)
	if err != nil {
		return nil, err
	}

	return reprice(stored, req, multiplier), nil
}

func reprice(stored *models.Forecast, req *SimulationRequest, multiplier decimal.Decimal) *SimulationResult {

	adjustedRevenue := stored.TotalPredictedRevenue.Mul(multiplier)

	// observed commission share of revenue, shifted by the requested delta
	ratio := decimal.RequireFromString("0.1")
	if stored.TotalPredictedRevenue.IsPositive() {
		ratio = stored.TotalPredictedCommissions.Div(stored.TotalPredictedRevenue)
	}
	ratio = ratio.Add(req.CommissionRateDelta.Div(decimal.NewFromInt(100)))
	if ratio.IsNegative() {
		ratio = decimal.Zero
	}

	adjustedCommissions := adjustedRevenue.Mul(ratio)

	return &SimulationResult{
		ForecastId:          stored.ID,
		MarketCondition:     req.MarketCondition,
		CommissionRateDelta: req.CommissionRateDelta,

		BaseRevenue:         stored.TotalPredictedRevenue,
		AdjustedRevenue:     adjustedRevenue.Round(4),
		AdjustedCommissions: adjustedCommissions.Round(4),
		AdjustedNetProfit:   adjustedRevenue.Sub(adjustedCommissions).Round(4),
	}
}
