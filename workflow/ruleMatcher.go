package workflow

import (
	"sort"
	"time"

	"github.com/empirehq/revenue_backend/models"
)

// MatchRule picks the authoritative rule for an order: the highest-priority
// active rule whose present predicates are all satisfied. Absent predicates
// are always satisfied. Returns nil when no rule matches; the caller falls
// back to the partner's default rate.
func MatchRule(rules []*models.SplitRule, order *models.SplitOrderInput, now time.Time) *models.SplitRule {

	ordered := make([]*models.SplitRule, 0, len(rules))
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		if rule.IsActive != nil && !*rule.IsActive {
			continue
		}
		ordered = append(ordered, rule)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, rule := range ordered {
		if RuleMatchesOrder(rule, order, now) {
			return rule
		}
	}
	return nil
}

// RuleMatchesOrder evaluates every predicate the rule carries against the
// order context.
func RuleMatchesOrder(rule *models.SplitRule, order *models.SplitOrderInput, now time.Time) bool {

	if rule.Vertical != nil && *rule.Vertical != "" {
		if order.Vertical == nil || *order.Vertical != *rule.Vertical {
			return false
		}
	}

	if rule.ProductCategory != nil && *rule.ProductCategory != "" {
		if order.ProductCategory == nil || *order.ProductCategory != *rule.ProductCategory {
			return false
		}
	}

	if rule.MinimumOrderValue != nil && order.OriginalAmount.LessThan(*rule.MinimumOrderValue) {
		return false
	}
	if rule.MaximumOrderValue != nil && order.OriginalAmount.GreaterThan(*rule.MaximumOrderValue) {
		return false
	}

	if len(rule.EligibleCountries) > 0 {
		if order.CustomerCountry == nil {
			return false
		}
		found := false
		for _, country := range rule.EligibleCountries {
			if country == *order.CustomerCountry {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if rule.EffectiveDate != nil && now.Before(*rule.EffectiveDate) {
		return false
	}
	if rule.ExpirationDate != nil && now.After(*rule.ExpirationDate) {
		return false
	}

	return true
}
