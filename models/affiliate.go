package models

import (
	"context"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LegacyAffiliate mirrors the pre-split affiliate_partners table. It is read
// only; rows are migrated into Partner lazily the first time an order
// references their code.
type LegacyAffiliate struct {
	ID             int             `gorm:"primary_key" json:"id"`
	Code           string          `gorm:"size:100;not null;uniqueIndex" json:"code"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	Email          *string         `gorm:"size:255" json:"email"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(8,4);not null;default:10" json:"commission_rate"`
	Vertical       *string         `gorm:"size:100" json:"vertical"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (LegacyAffiliate) TableName() string {
	return "affiliate_partners"
}

func GetLegacyAffiliateByCode(ctx context.Context, code string) (*LegacyAffiliate, error) {

	db := config.GetDB()
	var affiliate LegacyAffiliate
	err := db.WithContext(ctx).Where("code = ?", code).First(&affiliate).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

// EnsurePartnerByCode returns the partner for an affiliate code, migrating a
// legacy affiliate row or minting a default partner on first use. Concurrent
// first-use for the same code races on the unique partner_code index; the
// loser re-reads the winner's row.
func EnsurePartnerByCode(ctx context.Context, code string) (*Partner, error) {

	partner, err := GetPartnerByCode(ctx, code)
	if err == nil {
		return partner, nil
	}
	if err != utils.ErrorRecordNotFound {
		return nil, err
	}

	logger := config.GetLogger()

	candidate := Partner{
		PartnerCode:           code,
		PartnerName:           code,
		PartnerType:           PartnerTypeAffiliate,
		DefaultCommissionRate: DefaultCommissionRatePercent,
		SplitType:             SplitTypePercentage,
		MinimumPayout:         DefaultMinimumPayout,
		PayoutFrequency:       PayoutFrequencyMonthly,
		PaymentMethod:         PaymentMethodBankTransfer,
		Currency:              "USD",
		AutoPayouts:           utils.NewFalse(),
		RequiresApproval:      utils.NewTrue(),
		VerticalAssignments:   []string{"all"},
		IsActive:              utils.NewTrue(),
	}

	affiliate, err := GetLegacyAffiliateByCode(ctx, code)
	switch err {
	case nil:
		candidate.PartnerName = affiliate.Name
		candidate.DefaultCommissionRate = affiliate.CommissionRate
		if affiliate.Vertical != nil && *affiliate.Vertical != "" {
			candidate.VerticalAssignments = []string{*affiliate.Vertical}
		}
		if affiliate.IsActive != nil {
			candidate.IsActive = affiliate.IsActive
		}
	case utils.ErrorRecordNotFound:
		config.LogInfo(logger, "models", "EnsurePartnerByCode",
			"unknown affiliate code, creating default partner", map[string]interface{}{"code": code})
	default:
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&candidate).Error; err != nil {
		if utils.IsDuplicateEntryError(err) {
			return GetPartnerByCode(ctx, code)
		}
		return nil, err
	}
	if err := utils.RemoveRedisList[Partner](""); err != nil {
		return nil, err
	}
	return &candidate, nil
}
