package forecast

import (
	"context"
	"testing"

	"github.com/empirehq/revenue_backend/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func storedForecast() *models.Forecast {
	return &models.Forecast{
		ID:                        1,
		TotalPredictedRevenue:     d("10000"),
		TotalPredictedCommissions: d("1000"),
		TotalPredictedNetProfit:   d("9000"),
	}
}

func TestReprice_MarketConditions(t *testing.T) {
	cases := []struct {
		condition       models.MarketCondition
		expectedRevenue string
	}{
		{models.MarketConditionDecline, "8000"},
		{models.MarketConditionStable, "10000"},
		{models.MarketConditionGrowth, "12000"},
	}
	for _, tc := range cases {
		req := &SimulationRequest{ForecastId: 1, MarketCondition: tc.condition}
		got := reprice(storedForecast(), req, marketMultipliers[tc.condition])
		if !got.AdjustedRevenue.Equal(d(tc.expectedRevenue)) {
			t.Errorf("%s: expected revenue %s, got %s",
				tc.condition, tc.expectedRevenue, got.AdjustedRevenue)
		}
		// commission ratio 10% carries over unchanged
		expectedCommissions := d(tc.expectedRevenue).Mul(d("0.1"))
		if !got.AdjustedCommissions.Equal(expectedCommissions) {
			t.Errorf("%s: expected commissions %s, got %s",
				tc.condition, expectedCommissions, got.AdjustedCommissions)
		}
	}
}

func TestReprice_CommissionRateDelta(t *testing.T) {
	req := &SimulationRequest{
		ForecastId:          1,
		MarketCondition:     models.MarketConditionStable,
		CommissionRateDelta: d("2"),
	}
	got := reprice(storedForecast(), req, marketMultipliers[models.MarketConditionStable])

	// 10% observed ratio + 2 points = 12% of 10000
	if !got.AdjustedCommissions.Equal(d("1200")) {
		t.Fatalf("expected commissions 1200, got %s", got.AdjustedCommissions)
	}
	if !got.AdjustedNetProfit.Equal(d("8800")) {
		t.Fatalf("expected net profit 8800, got %s", got.AdjustedNetProfit)
	}
}

func TestReprice_NegativeRatioFloorsAtZero(t *testing.T) {
	req := &SimulationRequest{
		ForecastId:          1,
		MarketCondition:     models.MarketConditionStable,
		CommissionRateDelta: d("-50"),
	}
	got := reprice(storedForecast(), req, marketMultipliers[models.MarketConditionStable])

	if !got.AdjustedCommissions.IsZero() {
		t.Fatalf("expected zero commissions, got %s", got.AdjustedCommissions)
	}
	if !got.AdjustedNetProfit.Equal(got.AdjustedRevenue) {
		t.Fatalf("net profit should equal revenue when commissions hit zero")
	}
}

func TestSimulate_RejectsUnknownCondition(t *testing.T) {
	_, err := Simulate(context.Background(), &SimulationRequest{
		ForecastId:      1,
		MarketCondition: models.MarketCondition("boom"),
	})
	if err == nil {
		t.Fatal("expected invalid market condition error")
	}
}
