package forecast

import (
	"math"
	"testing"
	"time"
)

func flatSeries(days int, revenue float64) []dayPoint {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	series := make([]dayPoint, 0, days)
	for i := 0; i < days; i++ {
		series = append(series, dayPoint{date: start.AddDate(0, 0, i), revenue: revenue})
	}
	return series
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLinearFit_FlatSeries(t *testing.T) {
	slope, intercept := linearFit(flatSeries(90, 100))
	if !almostEqual(slope, 0) {
		t.Fatalf("flat series expected slope 0, got %v", slope)
	}
	if !almostEqual(intercept, 100) {
		t.Fatalf("flat series expected intercept 100, got %v", intercept)
	}
}

func TestLinearFit_ExactLine(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	series := make([]dayPoint, 0, 30)
	for i := 0; i < 30; i++ {
		series = append(series, dayPoint{date: start.AddDate(0, 0, i), revenue: 50 + 2*float64(i)})
	}

	slope, intercept := linearFit(series)
	if !almostEqual(slope, 2) {
		t.Fatalf("expected slope 2, got %v", slope)
	}
	if !almostEqual(intercept, 50) {
		t.Fatalf("expected intercept 50, got %v", intercept)
	}
}

func TestProjectedBase_ContinuesFittedLine(t *testing.T) {
	// y = 50 + 2x over 30 points: last fitted value is index 29 (108), so
	// forecast day 1 is one slope step past it, not two.
	if got := projectedBase(2, 50, 30, 1); !almostEqual(got, 110) {
		t.Fatalf("day 1 base = %v, want 110", got)
	}
	if got := projectedBase(2, 50, 30, 7); !almostEqual(got, 122) {
		t.Fatalf("day 7 base = %v, want 122", got)
	}
}

func TestLinearFit_DegenerateSeries(t *testing.T) {
	if slope, intercept := linearFit(nil); slope != 0 || intercept != 0 {
		t.Fatalf("empty series expected (0, 0), got (%v, %v)", slope, intercept)
	}
	series := flatSeries(1, 42)
	if slope, intercept := linearFit(series); slope != 0 || intercept != 42 {
		t.Fatalf("single point expected (0, 42), got (%v, %v)", slope, intercept)
	}
}

func TestWeekdaySeasonalFactors_FlatSeriesIsNeutral(t *testing.T) {
	factors := weekdaySeasonalFactors(flatSeries(84, 100))
	for w, f := range factors {
		if !almostEqual(f, 1.0) {
			t.Errorf("weekday %d expected neutral factor 1.0, got %v", w, f)
		}
	}
}

func TestWeekdaySeasonalFactors_WeekendDip(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // a Monday
	series := make([]dayPoint, 0, 84)
	for i := 0; i < 84; i++ {
		date := start.AddDate(0, 0, i)
		revenue := 100.0
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			revenue = 50.0
		}
		series = append(series, dayPoint{date: date, revenue: revenue})
	}

	factors := weekdaySeasonalFactors(series)
	if factors[int(time.Saturday)] >= factors[int(time.Wednesday)] {
		t.Fatalf("weekend factor %v should sit below weekday factor %v",
			factors[int(time.Saturday)], factors[int(time.Wednesday)])
	}
	if factors[int(time.Saturday)] <= 0 {
		t.Fatalf("factor must stay positive, got %v", factors[int(time.Saturday)])
	}
}

func TestMeanAndVariance(t *testing.T) {
	mean, variance := meanAndVariance(flatSeries(10, 100))
	if !almostEqual(mean, 100) || !almostEqual(variance, 0) {
		t.Fatalf("flat series expected (100, 0), got (%v, %v)", mean, variance)
	}

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	series := []dayPoint{
		{date: start, revenue: 90},
		{date: start.AddDate(0, 0, 1), revenue: 110},
	}
	mean, variance = meanAndVariance(series)
	if !almostEqual(mean, 100) || !almostEqual(variance, 100) {
		t.Fatalf("expected population stats (100, 100), got (%v, %v)", mean, variance)
	}
}

func TestTrailingGrowthRate(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	// 30 days at 100 followed by 30 days at 120: +20%
	series := make([]dayPoint, 0, 60)
	for i := 0; i < 60; i++ {
		revenue := 100.0
		if i >= 30 {
			revenue = 120.0
		}
		series = append(series, dayPoint{date: start.AddDate(0, 0, i), revenue: revenue})
	}
	if got := trailingGrowthRate(series); !almostEqual(got, 20) {
		t.Fatalf("expected +20%% growth, got %v", got)
	}

	if got := trailingGrowthRate(flatSeries(60, 100)); !almostEqual(got, 0) {
		t.Fatalf("flat series expected 0 growth, got %v", got)
	}
	if got := trailingGrowthRate(flatSeries(1, 100)); got != 0 {
		t.Fatalf("single point expected 0 growth, got %v", got)
	}
}

func TestBuildScenarios(t *testing.T) {
	scenarios := buildScenarios(3000, 10)

	if !scenarios.BestCase.Revenue.Equal(roundedDecimal(3900)) {
		t.Errorf("best case expected 3900, got %s", scenarios.BestCase.Revenue)
	}
	if !scenarios.MostLikely.Revenue.Equal(roundedDecimal(3000)) {
		t.Errorf("most likely expected 3000, got %s", scenarios.MostLikely.Revenue)
	}
	if !scenarios.WorstCase.Revenue.Equal(roundedDecimal(2100)) {
		t.Errorf("worst case expected 2100, got %s", scenarios.WorstCase.Revenue)
	}

	if !scenarios.BestCase.GrowthRate.Equal(roundedDecimal(15)) {
		t.Errorf("best growth expected 15, got %s", scenarios.BestCase.GrowthRate)
	}
	if !scenarios.WorstCase.GrowthRate.Equal(roundedDecimal(5)) {
		t.Errorf("worst growth expected 5, got %s", scenarios.WorstCase.GrowthRate)
	}

	probabilitySum := scenarios.BestCase.Probability.
		Add(scenarios.MostLikely.Probability).
		Add(scenarios.WorstCase.Probability)
	if !probabilitySum.Equal(roundedDecimal(1)) {
		t.Errorf("probabilities must sum to 1, got %s", probabilitySum)
	}
}

func TestRiskFactors(t *testing.T) {
	neutral := [7]float64{1, 1, 1, 1, 1, 1, 1}
	spread := [7]float64{0.7, 1, 1, 1, 1, 1, 1.3}

	cases := []struct {
		name     string
		mean     float64
		variance float64
		growth   float64
		factors  [7]float64
		days     int
		expected []string
	}{
		{
			"steady long history",
			100, 1, 5, neutral, 180,
			[]string{"partner_concentration"},
		},
		{
			"volatile series",
			100, 2500, 5, neutral, 180, // cv = 0.5
			[]string{"partner_concentration", "high_revenue_volatility"},
		},
		{
			"declining trend",
			100, 1, -15, neutral, 180,
			[]string{"partner_concentration", "declining_revenue_trend"},
		},
		{
			"strong weekday seasonality",
			100, 1, 5, spread, 180,
			[]string{"partner_concentration", "strong_weekday_seasonality"},
		},
		{
			"short history",
			100, 1, 5, neutral, 30,
			[]string{"partner_concentration", "limited_historical_data"},
		},
	}

	for _, tc := range cases {
		got := riskFactors(tc.mean, tc.variance, tc.growth, tc.factors, tc.days)
		if len(got) != len(tc.expected) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, got)
			continue
		}
		for i := range got {
			if got[i] != tc.expected[i] {
				t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, got)
				break
			}
		}
	}
}

func TestAccuracyScore(t *testing.T) {
	cases := []struct {
		name     string
		mean     float64
		variance float64
		days     int
		expected float64
	}{
		{"steady full history caps at 0.95", 100, 0, 365, 0.95},
		{"steady 90 days", 100, 0, 90, 0.95},
		{"steady 45 days", 100, 0, 45, 0.5},
		{"volatile full history floors stability", 100, 10000, 365, 0.5}, // cv = 1
		{"steady 9 days", 100, 0, 9, 0.1},
		{"zero mean", 0, 0, 365, 0.95},
	}
	for _, tc := range cases {
		if got := accuracyScore(tc.mean, tc.variance, tc.days); !almostEqual(got, tc.expected) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}
