package models

import (
	"context"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/shopspring/decimal"
)

// DailyPrediction is one forecast day. Confidence bounds are floored at zero;
// revenue cannot go negative.
type DailyPrediction struct {
	Date           string          `json:"date"`
	Revenue        decimal.Decimal `json:"revenue"`
	Commissions    decimal.Decimal `json:"commissions"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	ConfidenceLow  decimal.Decimal `json:"confidence_low"`
	ConfidenceHigh decimal.Decimal `json:"confidence_high"`
}

type ForecastScenario struct {
	Revenue     decimal.Decimal `json:"revenue"`
	GrowthRate  decimal.Decimal `json:"growth_rate"`
	Probability decimal.Decimal `json:"probability"`
}

type ScenarioAnalysis struct {
	BestCase   ForecastScenario `json:"best_case"`
	MostLikely ForecastScenario `json:"most_likely"`
	WorstCase  ForecastScenario `json:"worst_case"`
}

type TrendSummary struct {
	SlopePerDay  decimal.Decimal `json:"slope_per_day"`
	Intercept    decimal.Decimal `json:"intercept"`
	DailyAverage decimal.Decimal `json:"daily_average"`
	GrowthRate   decimal.Decimal `json:"growth_rate"`
}

// Forecast is one persisted run of the forecast engine.
type Forecast struct {
	ID      int `gorm:"primary_key" json:"id"`
	ModelId int `gorm:"not null;index" json:"model_id"`

	// optional scope; all nil means platform-wide
	ScopePartnerId       *int    `gorm:"index" json:"scope_partner_id"`
	ScopeVertical        *string `gorm:"size:100" json:"scope_vertical"`
	ScopeProductCategory *string `gorm:"size:100" json:"scope_product_category"`

	PeriodStart  time.Time `gorm:"not null" json:"period_start"`
	PeriodEnd    time.Time `gorm:"not null" json:"period_end"`
	ForecastDays int       `gorm:"not null" json:"forecast_days"`

	Predictions []DailyPrediction `gorm:"serializer:json;type:json" json:"predictions"`

	TotalPredictedRevenue     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_predicted_revenue"`
	TotalPredictedCommissions decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_predicted_commissions"`
	TotalPredictedNetProfit   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_predicted_net_profit"`

	Scenarios       ScenarioAnalysis `gorm:"serializer:json;type:json" json:"scenarios"`
	Trend           TrendSummary     `gorm:"serializer:json;type:json" json:"trend"`
	SeasonalFactors []float64        `gorm:"serializer:json;type:json" json:"seasonal_factors"`
	RiskFactors     []string         `gorm:"serializer:json;type:json" json:"risk_factors"`

	AccuracyScore      decimal.Decimal `gorm:"type:decimal(5,4);not null;default:0" json:"accuracy_score"`
	HistoricalDaysUsed int             `gorm:"not null;default:0" json:"historical_days_used"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type ForecastsEdge Edge[Forecast]
type ForecastsConnection struct {
	PageInfo *PageInfo        `json:"pageInfo"`
	Edges    []*ForecastsEdge `json:"edges"`
}

func (f Forecast) GetCursor() string {
	return f.CreatedAt.UTC().Format("2006-01-02 15:04:05")
}

func (f Forecast) GetId() int {
	return f.ID
}

func CreateForecast(ctx context.Context, forecast *Forecast) error {

	db := config.GetDB()
	return db.WithContext(ctx).Create(forecast).Error
}

func GetForecast(ctx context.Context, id int) (*Forecast, error) {

	return utils.FetchModel[Forecast](ctx, id)
}

func PaginateForecasts(ctx context.Context, limit *int, after *string,
	partnerId *int) (*ForecastsConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if partnerId != nil {
		dbCtx = dbCtx.Where("scope_partner_id = ?", *partnerId)
	}
	edges, pageInfo, err := FetchPageCompositeCursor[Forecast](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	var connection ForecastsConnection
	connection.PageInfo = pageInfo
	for _, edge := range edges {
		forecastEdge := ForecastsEdge(edge)
		connection.Edges = append(connection.Edges, &forecastEdge)
	}
	return &connection, err
}
