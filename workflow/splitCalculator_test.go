package workflow

import (
	"testing"

	"github.com/empirehq/revenue_backend/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dPtr(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func testPartner() *models.Partner {
	return &models.Partner{
		ID:                    1,
		PartnerCode:           "P-1",
		DefaultCommissionRate: d("10"),
	}
}

func orderOf(amount string) *models.SplitOrderInput {
	return &models.SplitOrderInput{
		OrderId:        "ORD-1",
		OriginalAmount: d(amount),
	}
}

func TestCalculateSplit_PercentageRule(t *testing.T) {
	rule := &models.SplitRule{
		SplitType: models.SplitTypePercentage,
		CommissionStructure: models.CommissionStructure{
			Percentage: &models.PercentageCommission{Rate: dPtr("10")},
		},
	}

	got := CalculateSplit(testPartner(), rule, orderOf("1000"))

	cases := []struct {
		name     string
		got      decimal.Decimal
		expected string
	}{
		{"commission", got.CommissionAmount, "100"},
		{"total split", got.TotalSplitAmount, "100"},
		{"processing fees", got.ProcessingFees, "2.9"},
		{"platform fees", got.PlatformFees, "2"},
		{"net payout", got.NetPayoutAmount, "95.1"},
	}
	for _, tc := range cases {
		if !tc.got.Equal(d(tc.expected)) {
			t.Errorf("%s expected %s, got %s", tc.name, tc.expected, tc.got)
		}
	}
	if got.UsedDefaultRate {
		t.Errorf("percentage rule should not report default rate fallback")
	}
}

func TestCalculateSplit_NoRuleUsesPartnerDefault(t *testing.T) {
	got := CalculateSplit(testPartner(), nil, orderOf("200"))

	if !got.CommissionAmount.Equal(d("20")) {
		t.Fatalf("expected 10%% default commission 20, got %s", got.CommissionAmount)
	}
	if !got.UsedDefaultRate {
		t.Errorf("expected default rate fallback to be reported")
	}
}

func TestCalculateSplit_FlatRule(t *testing.T) {
	rule := &models.SplitRule{
		SplitType: models.SplitTypeFlat,
		CommissionStructure: models.CommissionStructure{
			Flat: &models.FlatCommission{Amount: d("25")},
		},
	}

	got := CalculateSplit(testPartner(), rule, orderOf("500"))

	if !got.CommissionAmount.Equal(d("25")) {
		t.Fatalf("flat commission expected 25, got %s", got.CommissionAmount)
	}
	// back-derived rate is reporting only: 25/500 = 5%
	if !got.CommissionRate.Equal(d("5")) {
		t.Errorf("back-derived rate expected 5, got %s", got.CommissionRate)
	}
}

func TestCalculateSplit_TieredBoundaries(t *testing.T) {
	rule := &models.SplitRule{
		SplitType: models.SplitTypeTiered,
		CommissionStructure: models.CommissionStructure{
			Tiered: &models.TieredCommission{
				Tiers: []models.CommissionTier{
					{Min: d("0"), Max: dPtr("100"), Type: models.TierRateTypePercentage, Rate: d("5")},
					{Min: d("100"), Type: models.TierRateTypePercentage, Rate: d("10")},
				},
			},
		},
	}

	cases := []struct {
		amount             string
		expectedCommission string
	}{
		// min inclusive, max exclusive
		{"99.99", "4.9995"},
		{"100", "10"},
		{"100.01", "10.001"},
		{"0", "0"},
	}
	for _, tc := range cases {
		got := CalculateSplit(testPartner(), rule, orderOf(tc.amount))
		if !got.CommissionAmount.Equal(d(tc.expectedCommission)) {
			t.Errorf("amount %s expected commission %s, got %s",
				tc.amount, tc.expectedCommission, got.CommissionAmount)
		}
		if got.UsedDefaultRate {
			t.Errorf("amount %s should match a tier", tc.amount)
		}
	}
}

func TestCalculateSplit_TieredFlatTier(t *testing.T) {
	rule := &models.SplitRule{
		SplitType: models.SplitTypeTiered,
		CommissionStructure: models.CommissionStructure{
			Tiered: &models.TieredCommission{
				Tiers: []models.CommissionTier{
					{Min: d("0"), Type: models.TierRateTypeFlat, Rate: d("12")},
				},
			},
		},
	}

	got := CalculateSplit(testPartner(), rule, orderOf("300"))
	if !got.CommissionAmount.Equal(d("12")) {
		t.Fatalf("flat tier expected commission 12, got %s", got.CommissionAmount)
	}
	if !got.CommissionRate.Equal(d("4")) {
		t.Errorf("flat tier back-derived rate expected 4, got %s", got.CommissionRate)
	}
}

func TestCalculateSplit_TieredNoMatchFallsBackToDefault(t *testing.T) {
	// all tiers start above the order amount
	rule := &models.SplitRule{
		SplitType: models.SplitTypeTiered,
		CommissionStructure: models.CommissionStructure{
			Tiered: &models.TieredCommission{
				Tiers: []models.CommissionTier{
					{Min: d("1000"), Type: models.TierRateTypePercentage, Rate: d("15")},
				},
			},
		},
	}

	got := CalculateSplit(testPartner(), rule, orderOf("100"))

	if !got.UsedDefaultRate {
		t.Fatalf("expected default rate fallback when no tier matches")
	}
	if !got.CommissionAmount.Equal(d("10")) {
		t.Errorf("fallback commission expected 10, got %s", got.CommissionAmount)
	}
	if got.CommissionAmount.IsZero() {
		t.Errorf("unmatched tier must not silently produce zero commission")
	}
}

func TestCalculateSplit_CustomRuleFallsBackWithoutRate(t *testing.T) {
	rule := &models.SplitRule{
		SplitType:           models.SplitTypeCustom,
		CommissionStructure: models.CommissionStructure{Custom: &models.CustomCommission{}},
	}

	got := CalculateSplit(testPartner(), rule, orderOf("400"))
	// custom without custom_rate uses the partner default rate
	if !got.CommissionAmount.Equal(d("40")) {
		t.Fatalf("expected 40, got %s", got.CommissionAmount)
	}

	rule.CommissionStructure.Custom.CustomRate = dPtr("2.5")
	got = CalculateSplit(testPartner(), rule, orderOf("400"))
	if !got.CommissionAmount.Equal(d("10")) {
		t.Fatalf("custom 2.5%% of 400 expected 10, got %s", got.CommissionAmount)
	}
}

func TestCalculateSplit_VolumeBonusesAreCumulative(t *testing.T) {
	partner := testPartner()
	partner.LifetimeRevenue = d("60000")

	rule := &models.SplitRule{
		SplitType: models.SplitTypePercentage,
		CommissionStructure: models.CommissionStructure{
			Percentage: &models.PercentageCommission{Rate: dPtr("10")},
		},
		PerformanceBonuses: &models.PerformanceBonuses{
			VolumeTiers: []models.VolumeBonusTier{
				{Threshold: d("10000"), Rate: d("1")},
				{Threshold: d("50000"), Rate: d("2")},
				{Threshold: d("100000"), Rate: d("3")},
			},
		},
	}

	got := CalculateSplit(partner, rule, orderOf("1000"))

	// 10000 and 50000 thresholds met: 1% + 2% of 1000 = 30
	if !got.BonusAmount.Equal(d("30")) {
		t.Fatalf("cumulative volume bonus expected 30, got %s", got.BonusAmount)
	}
	if !got.TotalSplitAmount.Equal(d("130")) {
		t.Errorf("total split expected 130, got %s", got.TotalSplitAmount)
	}
}

func TestCalculateSplit_NewCustomerAndConversionBonuses(t *testing.T) {
	partner := testPartner()
	partner.AverageConversionRate = d("4")

	rule := &models.SplitRule{
		SplitType: models.SplitTypePercentage,
		CommissionStructure: models.CommissionStructure{
			Percentage: &models.PercentageCommission{Rate: dPtr("10")},
		},
		PerformanceBonuses: &models.PerformanceBonuses{
			NewCustomerBonus: dPtr("5"),
			ConversionBonus:  &models.ConversionRateBonus{Threshold: d("3"), Amount: d("7")},
		},
	}

	order := orderOf("100")
	order.IsNewCustomer = true
	got := CalculateSplit(partner, rule, order)
	if !got.BonusAmount.Equal(d("12")) {
		t.Fatalf("expected new customer + conversion bonus 12, got %s", got.BonusAmount)
	}

	order.IsNewCustomer = false
	got = CalculateSplit(partner, rule, order)
	if !got.BonusAmount.Equal(d("7")) {
		t.Fatalf("expected conversion bonus only 7, got %s", got.BonusAmount)
	}

	partner.AverageConversionRate = d("2.99")
	got = CalculateSplit(partner, rule, order)
	if !got.BonusAmount.IsZero() {
		t.Fatalf("below conversion threshold expected no bonus, got %s", got.BonusAmount)
	}
}

func TestCalculateSplit_NetPayoutNeverNegative(t *testing.T) {
	cases := []string{"0", "0.01", "1", "123.45", "99999.99"}
	for _, amount := range cases {
		got := CalculateSplit(testPartner(), nil, orderOf(amount))
		if got.NetPayoutAmount.IsNegative() {
			t.Errorf("amount %s produced negative net payout %s", amount, got.NetPayoutAmount)
		}
		expectedNet := got.TotalSplitAmount.Sub(got.ProcessingFees).Sub(got.PlatformFees)
		if !got.NetPayoutAmount.Equal(expectedNet.Round(4)) {
			t.Errorf("amount %s: net %s does not reconcile with fees", amount, got.NetPayoutAmount)
		}
	}
}
