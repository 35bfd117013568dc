package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/shopspring/decimal"
)

// CommissionTier is one band of a tiered structure. Bands are matched in
// stored order; min is inclusive, max exclusive, an omitted max is
// open-ended.
type CommissionTier struct {
	Min  decimal.Decimal  `json:"min"`
	Max  *decimal.Decimal `json:"max,omitempty"`
	Type TierRateType     `json:"type"`
	Rate decimal.Decimal  `json:"rate"`
}

type FlatCommission struct {
	Amount decimal.Decimal `json:"amount"`
}

type PercentageCommission struct {
	// nil falls back to the partner's default rate
	Rate *decimal.Decimal `json:"rate,omitempty"`
}

type TieredCommission struct {
	Tiers []CommissionTier `json:"tiers"`
}

type CustomCommission struct {
	// nil falls back to the partner's default rate
	CustomRate *decimal.Decimal `json:"custom_rate,omitempty"`
}

// CommissionStructure is a union over SplitType: exactly the variant named by
// the owning rule's split_type must be set. Calculators dispatch on the rule's
// split_type and treat a missing or malformed variant as a structural error,
// not a zero commission.
type CommissionStructure struct {
	Flat       *FlatCommission       `json:"flat,omitempty"`
	Percentage *PercentageCommission `json:"percentage,omitempty"`
	Tiered     *TieredCommission     `json:"tiered,omitempty"`
	Custom     *CustomCommission     `json:"custom,omitempty"`
}

// Validate checks the structure against the rule's split type at write time so
// the calculator never sees a rule it cannot dispatch.
func (cs *CommissionStructure) Validate(splitType SplitType) error {
	switch splitType {
	case SplitTypeFlat:
		if cs.Flat == nil {
			return errors.New("flat split requires commission_structure.flat")
		}
		if cs.Flat.Amount.IsNegative() {
			return utils.ErrorNegativeAmount("commission_structure.flat.amount")
		}
	case SplitTypePercentage:
		if cs.Percentage == nil {
			return errors.New("percentage split requires commission_structure.percentage")
		}
		if cs.Percentage.Rate != nil && cs.Percentage.Rate.IsNegative() {
			return utils.ErrorNegativeAmount("commission_structure.percentage.rate")
		}
	case SplitTypeTiered:
		if cs.Tiered == nil || len(cs.Tiered.Tiers) == 0 {
			return errors.New("tiered split requires at least one commission tier")
		}
		for i, tier := range cs.Tiered.Tiers {
			if !tier.Type.IsValid() {
				return utils.ErrorInvalidEnum(fmt.Sprintf("tiers[%d].type", i), string(tier.Type))
			}
			if tier.Min.IsNegative() {
				return utils.ErrorNegativeAmount(fmt.Sprintf("tiers[%d].min", i))
			}
			if tier.Max != nil && !tier.Max.GreaterThan(tier.Min) {
				return fmt.Errorf("tiers[%d]: max must be greater than min", i)
			}
			if tier.Rate.IsNegative() {
				return utils.ErrorNegativeAmount(fmt.Sprintf("tiers[%d].rate", i))
			}
		}
	case SplitTypeCustom:
		if cs.Custom == nil {
			return errors.New("custom split requires commission_structure.custom")
		}
		if cs.Custom.CustomRate != nil && cs.Custom.CustomRate.IsNegative() {
			return utils.ErrorNegativeAmount("commission_structure.custom.custom_rate")
		}
	default:
		return utils.ErrorInvalidEnum("split_type", string(splitType))
	}
	return nil
}

type VolumeBonusTier struct {
	Threshold decimal.Decimal `json:"threshold"`
	Rate      decimal.Decimal `json:"rate"`
}

type ConversionRateBonus struct {
	Threshold decimal.Decimal `json:"threshold"`
	Amount    decimal.Decimal `json:"amount"`
}

// PerformanceBonuses are additive extras on top of the base commission.
// Volume tiers are cumulative: every tier whose threshold the partner's
// lifetime revenue has met contributes.
type PerformanceBonuses struct {
	VolumeTiers      []VolumeBonusTier    `json:"volume_tiers,omitempty"`
	NewCustomerBonus *decimal.Decimal     `json:"new_customer_bonus,omitempty"`
	ConversionBonus  *ConversionRateBonus `json:"conversion_bonus,omitempty"`
}

// SplitRule decides how a matching order is split for one partner. Among a
// partner's active rules the highest priority structurally matching rule wins.
type SplitRule struct {
	ID        int    `gorm:"primary_key" json:"id"`
	PartnerId int    `gorm:"not null;index" json:"partner_id" binding:"required"`
	RuleName  string `gorm:"size:255;not null" json:"rule_name" binding:"required"`
	Priority  int    `gorm:"not null;default:0" json:"priority"`

	// matching predicates; nil/empty means always satisfied
	Vertical          *string          `gorm:"size:100" json:"vertical"`
	ProductCategory   *string          `gorm:"size:100" json:"product_category"`
	MinimumOrderValue *decimal.Decimal `gorm:"type:decimal(20,4)" json:"minimum_order_value"`
	MaximumOrderValue *decimal.Decimal `gorm:"type:decimal(20,4)" json:"maximum_order_value"`
	EligibleCountries []string         `gorm:"serializer:json;type:json" json:"eligible_countries"`
	EffectiveDate     *time.Time       `json:"effective_date"`
	ExpirationDate    *time.Time       `json:"expiration_date"`

	SplitType           SplitType           `gorm:"size:20;not null" json:"split_type"`
	CommissionStructure CommissionStructure `gorm:"serializer:json;type:json" json:"commission_structure"`
	PerformanceBonuses  *PerformanceBonuses `gorm:"serializer:json;type:json" json:"performance_bonuses"`

	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSplitRule struct {
	PartnerId int    `json:"partner_id" binding:"required"`
	RuleName  string `json:"rule_name" binding:"required"`
	Priority  int    `json:"priority"`

	Vertical          *string          `json:"vertical"`
	ProductCategory   *string          `json:"product_category"`
	MinimumOrderValue *decimal.Decimal `json:"minimum_order_value"`
	MaximumOrderValue *decimal.Decimal `json:"maximum_order_value"`
	EligibleCountries []string         `json:"eligible_countries"`
	EffectiveDate     *time.Time       `json:"effective_date"`
	ExpirationDate    *time.Time       `json:"expiration_date"`

	SplitType           SplitType           `json:"split_type" binding:"required"`
	CommissionStructure CommissionStructure `json:"commission_structure"`
	PerformanceBonuses  *PerformanceBonuses `json:"performance_bonuses"`
}

func (r SplitRule) GetCursor() string {
	return fmt.Sprint(r.Priority)
}

func (r SplitRule) GetId() int {
	return r.ID
}

// validate input for both create & update. (id = 0 for create)
func (input *NewSplitRule) validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[Partner](ctx, input.PartnerId); err != nil {
		return err
	}
	if !input.SplitType.IsValid() {
		return utils.ErrorInvalidEnum("split_type", string(input.SplitType))
	}
	if err := input.CommissionStructure.Validate(input.SplitType); err != nil {
		return err
	}
	if input.MinimumOrderValue != nil && input.MaximumOrderValue != nil &&
		input.MaximumOrderValue.LessThan(*input.MinimumOrderValue) {
		return errors.New("maximum_order_value must not be below minimum_order_value")
	}
	if input.EffectiveDate != nil && input.ExpirationDate != nil &&
		input.ExpirationDate.Before(*input.EffectiveDate) {
		return errors.New("expiration_date must not be before effective_date")
	}
	if input.PerformanceBonuses != nil {
		for i, tier := range input.PerformanceBonuses.VolumeTiers {
			if tier.Threshold.IsNegative() || tier.Rate.IsNegative() {
				return fmt.Errorf("volume_tiers[%d] must not be negative", i)
			}
		}
		if input.PerformanceBonuses.NewCustomerBonus != nil &&
			input.PerformanceBonuses.NewCustomerBonus.IsNegative() {
			return utils.ErrorNegativeAmount("new_customer_bonus")
		}
	}
	return nil
}

func (input *NewSplitRule) toModel() SplitRule {
	return SplitRule{
		PartnerId:           input.PartnerId,
		RuleName:            input.RuleName,
		Priority:            input.Priority,
		Vertical:            normalizeTag(input.Vertical),
		ProductCategory:     normalizeTag(input.ProductCategory),
		MinimumOrderValue:   input.MinimumOrderValue,
		MaximumOrderValue:   input.MaximumOrderValue,
		EligibleCountries:   utils.UniqueSlice(input.EligibleCountries),
		EffectiveDate:       input.EffectiveDate,
		ExpirationDate:      input.ExpirationDate,
		SplitType:           input.SplitType,
		CommissionStructure: input.CommissionStructure,
		PerformanceBonuses:  input.PerformanceBonuses,
		IsActive:            utils.NewTrue(),
	}
}

func CreateSplitRule(ctx context.Context, input *NewSplitRule) (*SplitRule, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	rule := input.toModel()

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&rule).Error; err != nil {
		return nil, err
	}
	if err := clearRuleCache(rule.PartnerId, rule.ID); err != nil {
		return nil, err
	}
	return &rule, nil
}

func UpdateSplitRule(ctx context.Context, id int, input *NewSplitRule) (*SplitRule, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	rule, err := utils.FetchModel[SplitRule](ctx, id)
	if err != nil {
		return nil, err
	}
	previousPartnerId := rule.PartnerId

	updated := input.toModel()
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&rule).Updates(map[string]interface{}{
		"PartnerId":           updated.PartnerId,
		"RuleName":            updated.RuleName,
		"Priority":            updated.Priority,
		"Vertical":            updated.Vertical,
		"ProductCategory":     updated.ProductCategory,
		"MinimumOrderValue":   updated.MinimumOrderValue,
		"MaximumOrderValue":   updated.MaximumOrderValue,
		"EligibleCountries":   updated.EligibleCountries,
		"EffectiveDate":       updated.EffectiveDate,
		"ExpirationDate":      updated.ExpirationDate,
		"SplitType":           updated.SplitType,
		"CommissionStructure": updated.CommissionStructure,
		"PerformanceBonuses":  updated.PerformanceBonuses,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := clearRuleCache(previousPartnerId, id); err != nil {
		return nil, err
	}
	if previousPartnerId != updated.PartnerId {
		if err := clearRuleCache(updated.PartnerId, id); err != nil {
			return nil, err
		}
	}
	return rule, nil
}

func DeleteSplitRule(ctx context.Context, id int) (*SplitRule, error) {

	rule, err := utils.FetchModel[SplitRule](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&rule).Error; err != nil {
		return nil, err
	}
	if err := clearRuleCache(rule.PartnerId, id); err != nil {
		return nil, err
	}
	return rule, nil
}

func GetSplitRule(ctx context.Context, id int) (*SplitRule, error) {

	return GetResource[SplitRule](ctx, id)
}

func ToggleSplitRuleActive(ctx context.Context, id int, isActive bool) (*SplitRule, error) {

	rule, err := ToggleActiveModel[SplitRule](ctx, id, isActive)
	if err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[SplitRule](fmt.Sprint(rule.PartnerId)); err != nil {
		return nil, err
	}
	return rule, nil
}

// GetActiveRulesForPartner returns the partner's active rules ordered by
// descending priority, cached per partner.
func GetActiveRulesForPartner(ctx context.Context, partnerId int) ([]*SplitRule, error) {

	suffix := fmt.Sprint(partnerId)
	rules, err := utils.RetrieveRedisList[SplitRule](suffix)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		db := config.GetDB()
		err = db.WithContext(ctx).
			Where("partner_id = ? AND is_active = ?", partnerId, true).
			Order("priority DESC, id").
			Find(&rules).Error
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedisList[SplitRule](rules, suffix); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

func GetSplitRulesByPartner(ctx context.Context, partnerId int) ([]*SplitRule, error) {

	db := config.GetDB()
	var rules []*SplitRule
	err := db.WithContext(ctx).
		Where("partner_id = ?", partnerId).
		Order("priority DESC, id").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// empty-string predicates are stored as NULL so matching can treat
// "absent" uniformly
func normalizeTag(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func clearRuleCache(partnerId int, id int) error {
	if err := utils.RemoveRedisItem[SplitRule](id); err != nil {
		return err
	}
	return utils.RemoveRedisList[SplitRule](fmt.Sprint(partnerId))
}
