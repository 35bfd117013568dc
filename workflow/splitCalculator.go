package workflow

import (
	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/models"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// SplitComputation is the result of one commission calculation. Amounts are
// rounded to 4 decimal places, matching column precision.
type SplitComputation struct {
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	BonusAmount      decimal.Decimal
	TotalSplitAmount decimal.Decimal
	ProcessingFees   decimal.Decimal
	PlatformFees     decimal.Decimal
	NetPayoutAmount  decimal.Decimal

	// true when the partner's default percentage path was used, either
	// because no rule matched or because the rule could not be applied
	UsedDefaultRate bool
}

// CalculateSplit computes the commission split for one order. rule may be nil
// (no matching rule); the computation then uses the partner's default rate.
// The calculation never fails: a rule that cannot be applied degrades to the
// default percentage path with a warning instead of leaving amounts undefined.
func CalculateSplit(partner *models.Partner, rule *models.SplitRule, order *models.SplitOrderInput) SplitComputation {

	result := SplitComputation{}

	commissionRate, commissionAmount, usedDefault := baseCommission(partner, rule, order)
	result.CommissionRate = commissionRate
	result.CommissionAmount = commissionAmount
	result.UsedDefaultRate = usedDefault

	if rule != nil && rule.PerformanceBonuses != nil {
		result.BonusAmount = bonusAmount(partner, rule.PerformanceBonuses, order)
	}

	result.TotalSplitAmount = result.CommissionAmount.Add(result.BonusAmount)
	result.ProcessingFees = result.TotalSplitAmount.Mul(models.ProcessingFeeRate)
	result.PlatformFees = result.TotalSplitAmount.Mul(models.PlatformFeeRate)
	result.NetPayoutAmount = result.TotalSplitAmount.Sub(result.ProcessingFees).Sub(result.PlatformFees)

	result.CommissionRate = result.CommissionRate.Round(4)
	result.CommissionAmount = result.CommissionAmount.Round(4)
	result.BonusAmount = result.BonusAmount.Round(4)
	result.TotalSplitAmount = result.TotalSplitAmount.Round(4)
	result.ProcessingFees = result.ProcessingFees.Round(4)
	result.PlatformFees = result.PlatformFees.Round(4)
	result.NetPayoutAmount = result.NetPayoutAmount.Round(4)

	return result
}

// baseCommission dispatches on the rule's split type. Every branch either
// produces a commission or falls back to the partner default.
func baseCommission(partner *models.Partner, rule *models.SplitRule,
	order *models.SplitOrderInput) (rate decimal.Decimal, amount decimal.Decimal, usedDefault bool) {

	if rule == nil {
		return defaultCommission(partner, order, "")
	}

	structure := rule.CommissionStructure
	switch rule.SplitType {

	case models.SplitTypeFlat:
		if structure.Flat == nil {
			return defaultCommission(partner, order, "flat rule missing structure")
		}
		amount = structure.Flat.Amount
		// report-only back-derivation; not used for further math
		if order.OriginalAmount.IsPositive() {
			rate = amount.Div(order.OriginalAmount).Mul(oneHundred)
		}
		return rate, amount, false

	case models.SplitTypePercentage:
		if structure.Percentage == nil {
			return defaultCommission(partner, order, "percentage rule missing structure")
		}
		rate = partner.DefaultCommissionRate
		if structure.Percentage.Rate != nil {
			rate = *structure.Percentage.Rate
		}
		return rate, percentOf(order.OriginalAmount, rate), false

	case models.SplitTypeTiered:
		if structure.Tiered == nil || len(structure.Tiered.Tiers) == 0 {
			return defaultCommission(partner, order, "tiered rule has no tiers")
		}
		for _, tier := range structure.Tiered.Tiers {
			if order.OriginalAmount.LessThan(tier.Min) {
				continue
			}
			if tier.Max != nil && !order.OriginalAmount.LessThan(*tier.Max) {
				continue
			}
			if tier.Type == models.TierRateTypeFlat {
				amount = tier.Rate
				if order.OriginalAmount.IsPositive() {
					rate = amount.Div(order.OriginalAmount).Mul(oneHundred)
				}
				return rate, amount, false
			}
			return tier.Rate, percentOf(order.OriginalAmount, tier.Rate), false
		}
		// no tier covers the amount; a silent zero here would strand the
		// partner's commission, so degrade to the default rate instead
		return defaultCommission(partner, order, "no tier matched order amount")

	case models.SplitTypeCustom:
		if structure.Custom == nil {
			return defaultCommission(partner, order, "custom rule missing structure")
		}
		rate = partner.DefaultCommissionRate
		if structure.Custom.CustomRate != nil {
			rate = *structure.Custom.CustomRate
		}
		return rate, percentOf(order.OriginalAmount, rate), false

	default:
		return defaultCommission(partner, order, "unknown split type "+string(rule.SplitType))
	}
}

func defaultCommission(partner *models.Partner, order *models.SplitOrderInput,
	warning string) (decimal.Decimal, decimal.Decimal, bool) {

	rate := models.DefaultCommissionRatePercent
	if partner != nil && partner.DefaultCommissionRate.IsPositive() {
		rate = partner.DefaultCommissionRate
	}
	if warning != "" {
		logger := config.GetLogger()
		config.LogInfo(logger, "workflow", "CalculateSplit",
			"falling back to default commission rate: "+warning,
			map[string]interface{}{"order_id": order.OrderId})
	}
	return rate, percentOf(order.OriginalAmount, rate), true
}

// bonusAmount evaluates the independently-additive bonus terms. Volume tiers
// are cumulative over the partner's lifetime revenue: every tier whose
// threshold is met contributes rate percent of the order amount.
func bonusAmount(partner *models.Partner, bonuses *models.PerformanceBonuses,
	order *models.SplitOrderInput) decimal.Decimal {

	total := decimal.Zero

	for _, tier := range bonuses.VolumeTiers {
		if !partner.LifetimeRevenue.LessThan(tier.Threshold) {
			total = total.Add(percentOf(order.OriginalAmount, tier.Rate))
		}
	}

	if bonuses.NewCustomerBonus != nil && order.IsNewCustomer {
		total = total.Add(*bonuses.NewCustomerBonus)
	}

	if bonuses.ConversionBonus != nil &&
		!partner.AverageConversionRate.LessThan(bonuses.ConversionBonus.Threshold) {
		total = total.Add(bonuses.ConversionBonus.Amount)
	}

	return total
}

func percentOf(amount decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(oneHundred)
}
