package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCommissionStructureValidate(t *testing.T) {
	cases := []struct {
		name      string
		splitType SplitType
		structure CommissionStructure
		wantErr   bool
	}{
		{
			"flat with amount",
			SplitTypeFlat,
			CommissionStructure{Flat: &FlatCommission{Amount: dec("10")}},
			false,
		},
		{
			"flat missing variant",
			SplitTypeFlat,
			CommissionStructure{},
			true,
		},
		{
			"flat negative amount",
			SplitTypeFlat,
			CommissionStructure{Flat: &FlatCommission{Amount: dec("-1")}},
			true,
		},
		{
			"percentage with rate",
			SplitTypePercentage,
			CommissionStructure{Percentage: &PercentageCommission{Rate: decPtr("12.5")}},
			false,
		},
		{
			"percentage without rate falls back to partner default",
			SplitTypePercentage,
			CommissionStructure{Percentage: &PercentageCommission{}},
			false,
		},
		{
			"percentage missing variant",
			SplitTypePercentage,
			CommissionStructure{Flat: &FlatCommission{Amount: dec("10")}},
			true,
		},
		{
			"tiered with bands",
			SplitTypeTiered,
			CommissionStructure{Tiered: &TieredCommission{Tiers: []CommissionTier{
				{Min: dec("0"), Max: decPtr("100"), Type: TierRateTypePercentage, Rate: dec("5")},
				{Min: dec("100"), Type: TierRateTypePercentage, Rate: dec("10")},
			}}},
			false,
		},
		{
			"tiered with empty tier list",
			SplitTypeTiered,
			CommissionStructure{Tiered: &TieredCommission{}},
			true,
		},
		{
			"tiered missing variant",
			SplitTypeTiered,
			CommissionStructure{},
			true,
		},
		{
			"tiered max not above min",
			SplitTypeTiered,
			CommissionStructure{Tiered: &TieredCommission{Tiers: []CommissionTier{
				{Min: dec("100"), Max: decPtr("100"), Type: TierRateTypePercentage, Rate: dec("5")},
			}}},
			true,
		},
		{
			"tiered bad rate type",
			SplitTypeTiered,
			CommissionStructure{Tiered: &TieredCommission{Tiers: []CommissionTier{
				{Min: dec("0"), Type: TierRateType("bogus"), Rate: dec("5")},
			}}},
			true,
		},
		{
			"custom with rate",
			SplitTypeCustom,
			CommissionStructure{Custom: &CustomCommission{CustomRate: decPtr("3")}},
			false,
		},
		{
			"custom missing variant",
			SplitTypeCustom,
			CommissionStructure{},
			true,
		},
		{
			"unknown split type",
			SplitType("hybrid"),
			CommissionStructure{Flat: &FlatCommission{Amount: dec("10")}},
			true,
		},
	}

	for _, tc := range cases {
		err := tc.structure.Validate(tc.splitType)
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestPartnerMatchesVertical(t *testing.T) {
	cases := []struct {
		name        string
		assignments []string
		vertical    string
		expected    bool
	}{
		{"no assignments match everything", nil, "electronics", true},
		{"wildcard matches everything", []string{"all"}, "beauty", true},
		{"listed vertical matches", []string{"beauty", "fashion"}, "beauty", true},
		{"unlisted vertical does not", []string{"beauty", "fashion"}, "electronics", false},
	}
	for _, tc := range cases {
		p := Partner{VerticalAssignments: tc.assignments}
		if got := p.MatchesVertical(tc.vertical); got != tc.expected {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}
