package workflow

import (
	"testing"
	"time"

	"github.com/empirehq/revenue_backend/models"
	"github.com/empirehq/revenue_backend/utils"
)

func strP(s string) *string { return &s }

func timeP(t time.Time) *time.Time { return &t }

func percentageRule(id int, priority int) *models.SplitRule {
	return &models.SplitRule{
		ID:        id,
		Priority:  priority,
		SplitType: models.SplitTypePercentage,
		CommissionStructure: models.CommissionStructure{
			Percentage: &models.PercentageCommission{Rate: dPtr("10")},
		},
		IsActive: utils.NewTrue(),
	}
}

func TestMatchRule_HighestPriorityWins(t *testing.T) {
	low := percentageRule(1, 5)
	high := percentageRule(2, 20)
	mid := percentageRule(3, 10)

	got := MatchRule([]*models.SplitRule{low, high, mid}, orderOf("100"), time.Now())
	if got == nil || got.ID != 2 {
		t.Fatalf("expected rule 2 (priority 20), got %+v", got)
	}
}

func TestMatchRule_TiesBreakOnLowestId(t *testing.T) {
	a := percentageRule(7, 10)
	b := percentageRule(3, 10)

	got := MatchRule([]*models.SplitRule{a, b}, orderOf("100"), time.Now())
	if got == nil || got.ID != 3 {
		t.Fatalf("expected lowest id on priority tie, got %+v", got)
	}
}

func TestMatchRule_SkipsInactive(t *testing.T) {
	inactive := percentageRule(1, 20)
	inactive.IsActive = utils.NewFalse()
	active := percentageRule(2, 5)

	got := MatchRule([]*models.SplitRule{inactive, active}, orderOf("100"), time.Now())
	if got == nil || got.ID != 2 {
		t.Fatalf("expected inactive rule skipped, got %+v", got)
	}
}

func TestMatchRule_NoMatchReturnsNil(t *testing.T) {
	rule := percentageRule(1, 10)
	rule.Vertical = strP("electronics")

	order := orderOf("100")
	order.Vertical = strP("beauty")

	if got := MatchRule([]*models.SplitRule{rule}, order, time.Now()); got != nil {
		t.Fatalf("expected nil for non-matching vertical, got %+v", got)
	}
}

func TestRuleMatchesOrder_Predicates(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		mutate   func(rule *models.SplitRule, order *models.SplitOrderInput)
		expected bool
	}{
		{
			"no predicates always match",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {},
			true,
		},
		{
			"vertical match",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.Vertical = strP("electronics")
				order.Vertical = strP("electronics")
			},
			true,
		},
		{
			"vertical mismatch",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.Vertical = strP("electronics")
				order.Vertical = strP("home")
			},
			false,
		},
		{
			"vertical required but order has none",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.Vertical = strP("electronics")
			},
			false,
		},
		{
			"category mismatch",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.ProductCategory = strP("laptops")
				order.ProductCategory = strP("phones")
			},
			false,
		},
		{
			"amount at minimum boundary",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.MinimumOrderValue = dPtr("100")
				order.OriginalAmount = d("100")
			},
			true,
		},
		{
			"amount below minimum",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.MinimumOrderValue = dPtr("100")
				order.OriginalAmount = d("99.99")
			},
			false,
		},
		{
			"amount at maximum boundary",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.MaximumOrderValue = dPtr("500")
				order.OriginalAmount = d("500")
			},
			true,
		},
		{
			"amount above maximum",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.MaximumOrderValue = dPtr("500")
				order.OriginalAmount = d("500.01")
			},
			false,
		},
		{
			"country in eligible list",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.EligibleCountries = []string{"US", "CA"}
				order.CustomerCountry = strP("CA")
			},
			true,
		},
		{
			"country not in eligible list",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.EligibleCountries = []string{"US", "CA"}
				order.CustomerCountry = strP("GB")
			},
			false,
		},
		{
			"country required but order has none",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.EligibleCountries = []string{"US"}
			},
			false,
		},
		{
			"within effective window",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.EffectiveDate = timeP(now.AddDate(0, -1, 0))
				rule.ExpirationDate = timeP(now.AddDate(0, 1, 0))
			},
			true,
		},
		{
			"before effective date",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.EffectiveDate = timeP(now.AddDate(0, 0, 1))
			},
			false,
		},
		{
			"after expiration date",
			func(rule *models.SplitRule, order *models.SplitOrderInput) {
				rule.ExpirationDate = timeP(now.AddDate(0, 0, -1))
			},
			false,
		},
	}

	for _, tc := range cases {
		rule := percentageRule(1, 10)
		order := orderOf("250")
		tc.mutate(rule, order)
		if got := RuleMatchesOrder(rule, order, now); got != tc.expected {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}
