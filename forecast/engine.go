package forecast

import (
	"context"
	"math"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/models"
	"github.com/shopspring/decimal"
)

// scenario multipliers and probabilities
var (
	bestCaseMultiplier  = 1.3
	worstCaseMultiplier = 0.7

	bestCaseProbability   = decimal.RequireFromString("0.15")
	likelyProbability     = decimal.RequireFromString("0.70")
	worstCaseProbability  = decimal.RequireFromString("0.15")
	bestGrowthMultiplier  = 1.5
	worstGrowthMultiplier = 0.5
)

type Request struct {
	ForecastDays         int     `json:"forecast_days"`
	ModelId              *int    `json:"model_id"`
	ScopePartnerId       *int    `json:"scope_partner_id"`
	ScopeVertical        *string `json:"scope_vertical"`
	ScopeProductCategory *string `json:"scope_product_category"`
}

type dayPoint struct {
	date    time.Time
	revenue float64
}

// Generate runs one forecast: build the dense historical daily revenue
// series for the scope, fit a least-squares trend with weekday seasonal
// factors, project forward and persist the run.
//
// Returns (nil, nil) when the scope has no history; that is legitimate
// absence of data, not a failure.
func Generate(ctx context.Context, req *Request) (*models.Forecast, error) {

	logger := config.GetLogger()

	if req.ForecastDays <= 0 {
		req.ForecastDays = 0
	}

	model, err := resolveModel(ctx, req.ModelId)
	if err != nil {
		return nil, err
	}
	forecastDays := req.ForecastDays
	if forecastDays == 0 {
		forecastDays = model.ForecastHorizonDays
	}

	series, commissionRatio, err := historicalSeries(ctx, req, model.HistoricalPeriodDays)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		config.LogInfo(logger, "forecast", "Generate",
			"no historical revenue in scope, skipping forecast",
			map[string]interface{}{"scope_partner_id": req.ScopePartnerId})
		return nil, nil
	}

	slope, intercept := linearFit(series)
	factors := weekdaySeasonalFactors(series)
	mean, variance := meanAndVariance(series)
	growthRate := trailingGrowthRate(series)

	n := len(series)
	interval := 0.0
	if n > 0 {
		interval = 1.96 * math.Sqrt(variance/float64(n))
	}

	lastDate := series[n-1].date
	predictions := make([]models.DailyPrediction, 0, forecastDays)
	totalRevenue := 0.0
	totalCommissions := 0.0
	for i := 1; i <= forecastDays; i++ {
		date := lastDate.AddDate(0, 0, i)
		base := projectedBase(slope, intercept, n, i)
		predicted := base * factors[int(date.Weekday())]
		if predicted < 0 {
			predicted = 0
		}
		low := predicted - interval
		if low < 0 {
			low = 0
		}
		commissions := predicted * commissionRatio

		predictions = append(predictions, models.DailyPrediction{
			Date:           date.Format("2006-01-02"),
			Revenue:        roundedDecimal(predicted),
			Commissions:    roundedDecimal(commissions),
			NetProfit:      roundedDecimal(predicted - commissions),
			ConfidenceLow:  roundedDecimal(low),
			ConfidenceHigh: roundedDecimal(predicted + interval),
		})
		totalRevenue += predicted
		totalCommissions += commissions
	}

	forecast := &models.Forecast{
		ModelId:              model.ID,
		ScopePartnerId:       req.ScopePartnerId,
		ScopeVertical:        req.ScopeVertical,
		ScopeProductCategory: req.ScopeProductCategory,
		PeriodStart:          lastDate.AddDate(0, 0, 1),
		PeriodEnd:            lastDate.AddDate(0, 0, forecastDays),
		ForecastDays:         forecastDays,
		Predictions:          predictions,

		TotalPredictedRevenue:     roundedDecimal(totalRevenue),
		TotalPredictedCommissions: roundedDecimal(totalCommissions),
		TotalPredictedNetProfit:   roundedDecimal(totalRevenue - totalCommissions),

		Scenarios:          buildScenarios(totalRevenue, growthRate),
		Trend:              buildTrend(slope, intercept, mean, growthRate),
		SeasonalFactors:    factors[:],
		RiskFactors:        riskFactors(mean, variance, growthRate, factors, n),
		AccuracyScore:      roundedDecimal(accuracyScore(mean, variance, n)),
		HistoricalDaysUsed: n,
	}

	if config.ForecastPersistenceEnabled() {
		if err := models.CreateForecast(ctx, forecast); err != nil {
			config.LogError(logger, "forecast", "Generate", "persisting forecast",
				map[string]interface{}{"model_id": model.ID}, err)
			return nil, err
		}
	}

	return forecast, nil
}

// projectedBase is the trend value for forecast day i (1-based) after n
// fitted observations. The last fitted point sits at index n-1, so day i
// continues the line at index n-1+i.
func projectedBase(slope, intercept float64, n, i int) float64 {
	return intercept + slope*float64(n-1+i)
}

func resolveModel(ctx context.Context, modelId *int) (*models.ForecastModel, error) {
	if modelId != nil {
		return models.GetForecastModel(ctx, *modelId)
	}
	return models.EnsureDefaultForecastModel(ctx)
}

// historicalSeries aggregates daily revenue for the scope over the lookback
// window and zero-fills missing days between the first day with data and
// yesterday. Only approved and paid transactions count; in-flight pending
// rows are excluded. The second return is the observed commissions-to-revenue
// ratio used to derive commission predictions.
func historicalSeries(ctx context.Context, req *Request, lookbackDays int) ([]dayPoint, float64, error) {

	db := config.GetDB()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -lookbackDays)

	type dailyRow struct {
		Day              time.Time
		TotalRevenue     float64
		TotalCommissions float64
	}

	dbCtx := db.WithContext(ctx).Model(&models.SplitTransaction{}).
		Select("DATE(transaction_date) AS day, "+
			"SUM(original_amount) AS total_revenue, "+
			"SUM(total_split_amount) AS total_commissions").
		Where("transaction_date >= ? AND transaction_date < ?", from, today).
		Where("status IN ?", []models.SplitTransactionStatus{
			models.SplitTransactionStatusApproved, models.SplitTransactionStatusPaid,
		}).
		Group("DATE(transaction_date)").
		Order("day")

	if req.ScopePartnerId != nil {
		dbCtx.Where("partner_id = ?", *req.ScopePartnerId)
	}
	if req.ScopeVertical != nil && *req.ScopeVertical != "" {
		dbCtx.Where("vertical = ?", *req.ScopeVertical)
	}
	if req.ScopeProductCategory != nil && *req.ScopeProductCategory != "" {
		dbCtx.Where("product_category = ?", *req.ScopeProductCategory)
	}

	var rows []dailyRow
	if err := dbCtx.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}

	byDay := make(map[string]dailyRow, len(rows))
	revenueSum := 0.0
	commissionSum := 0.0
	for _, row := range rows {
		byDay[row.Day.Format("2006-01-02")] = row
		revenueSum += row.TotalRevenue
		commissionSum += row.TotalCommissions
	}

	ratio := 0.1
	if revenueSum > 0 {
		ratio = commissionSum / revenueSum
	}

	// dense calendar from the first day with data through yesterday
	first := rows[0].Day.UTC().Truncate(24 * time.Hour)
	series := make([]dayPoint, 0, int(today.Sub(first).Hours()/24))
	for day := first; day.Before(today); day = day.AddDate(0, 0, 1) {
		point := dayPoint{date: day}
		if row, ok := byDay[day.Format("2006-01-02")]; ok {
			point.revenue = row.TotalRevenue
		}
		series = append(series, point)
	}
	return series, ratio, nil
}

// linearFit computes the closed-form least-squares line over the series
// indexed 0..n-1.
func linearFit(series []dayPoint) (slope float64, intercept float64) {
	n := float64(len(series))
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return 0, series[0].revenue
	}

	sumX, sumY, sumXY, sumXX := 0.0, 0.0, 0.0, 0.0
	for i, point := range series {
		x := float64(i)
		sumX += x
		sumY += point.revenue
		sumXY += x * point.revenue
		sumXX += x * x
	}

	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denominator
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// weekdaySeasonalFactors returns each weekday's mean revenue relative to the
// overall mean. Weekdays with no observations get a neutral 1.0.
func weekdaySeasonalFactors(series []dayPoint) [7]float64 {
	var sums [7]float64
	var counts [7]int
	total := 0.0
	for _, point := range series {
		w := int(point.date.Weekday())
		sums[w] += point.revenue
		counts[w]++
		total += point.revenue
	}

	var factors [7]float64
	overallMean := total / float64(len(series))
	for w := 0; w < 7; w++ {
		factors[w] = 1.0
		if counts[w] > 0 && overallMean > 0 {
			factors[w] = (sums[w] / float64(counts[w])) / overallMean
		}
	}
	return factors
}

func meanAndVariance(series []dayPoint) (mean float64, variance float64) {
	n := float64(len(series))
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, point := range series {
		sum += point.revenue
	}
	mean = sum / n

	sumSquares := 0.0
	for _, point := range series {
		diff := point.revenue - mean
		sumSquares += diff * diff
	}
	variance = sumSquares / n
	return mean, variance
}

// trailingGrowthRate compares the most recent 30 days against the 30 days
// before them, in percent. Short series fall back to halves of the series.
func trailingGrowthRate(series []dayPoint) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}
	window := 30
	if n < 2*window {
		window = n / 2
	}
	recent := series[n-window:]
	prior := series[n-2*window : n-window]

	recentSum, priorSum := 0.0, 0.0
	for _, point := range recent {
		recentSum += point.revenue
	}
	for _, point := range prior {
		priorSum += point.revenue
	}
	if priorSum == 0 {
		return 0
	}
	return (recentSum - priorSum) / priorSum * 100
}

func buildScenarios(totalRevenue float64, growthRate float64) models.ScenarioAnalysis {
	return models.ScenarioAnalysis{
		BestCase: models.ForecastScenario{
			Revenue:     roundedDecimal(totalRevenue * bestCaseMultiplier),
			GrowthRate:  roundedDecimal(growthRate * bestGrowthMultiplier),
			Probability: bestCaseProbability,
		},
		MostLikely: models.ForecastScenario{
			Revenue:     roundedDecimal(totalRevenue),
			GrowthRate:  roundedDecimal(growthRate),
			Probability: likelyProbability,
		},
		WorstCase: models.ForecastScenario{
			Revenue:     roundedDecimal(totalRevenue * worstCaseMultiplier),
			GrowthRate:  roundedDecimal(growthRate * worstGrowthMultiplier),
			Probability: worstCaseProbability,
		},
	}
}

func buildTrend(slope float64, intercept float64, mean float64, growthRate float64) models.TrendSummary {
	return models.TrendSummary{
		SlopePerDay:  roundedDecimal(slope),
		Intercept:    roundedDecimal(intercept),
		DailyAverage: roundedDecimal(mean),
		GrowthRate:   roundedDecimal(growthRate),
	}
}

// riskFactors flags conditions an operator should review before trusting the
// numbers. Partner concentration is always flagged; the platform's revenue
// skews heavily toward its top partners.
func riskFactors(mean float64, variance float64, growthRate float64,
	factors [7]float64, historicalDays int) []string {

	risks := []string{"partner_concentration"}

	if mean > 0 {
		cv := math.Sqrt(variance) / mean
		if cv > 0.3 {
			risks = append(risks, "high_revenue_volatility")
		}
	}
	if growthRate < -10 {
		risks = append(risks, "declining_revenue_trend")
	}

	minFactor, maxFactor := factors[0], factors[0]
	for _, f := range factors[1:] {
		if f < minFactor {
			minFactor = f
		}
		if f > maxFactor {
			maxFactor = f
		}
	}
	if maxFactor-minFactor > 0.5 {
		risks = append(risks, "strong_weekday_seasonality")
	}

	if historicalDays < 90 {
		risks = append(risks, "limited_historical_data")
	}

	return risks
}

// accuracyScore is a proxy capped at 0.95: steadier series and longer history
// score higher. Short histories drag the score down through the coverage term.
func accuracyScore(mean float64, variance float64, historicalDays int) float64 {
	cv := 0.0
	if mean > 0 {
		cv = math.Sqrt(variance) / mean
	}
	stability := 1 - cv
	if stability < 0.5 {
		stability = 0.5
	}
	coverage := float64(historicalDays) / 90
	if coverage > 1 {
		coverage = 1
	}
	score := stability * coverage
	if score > 0.95 {
		score = 0.95
	}
	return score
}

func roundedDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value).Round(4)
}
