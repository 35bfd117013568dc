package models

import (
	"context"
	"errors"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Partner is the payee side of a revenue split. Running totals
// (total_earnings, pending_payouts, lifetime_revenue) are maintained with
// atomic column increments, never read-modify-write.
type Partner struct {
	ID          int         `gorm:"primary_key" json:"id"`
	PartnerCode string      `gorm:"size:100;not null;uniqueIndex" json:"partner_code" binding:"required"`
	PartnerName string      `gorm:"size:255;not null" json:"partner_name" binding:"required"`
	PartnerType PartnerType `gorm:"size:20;not null;default:affiliate" json:"partner_type"`

	ContactEmail *string `gorm:"size:255" json:"contact_email"`

	DefaultCommissionRate decimal.Decimal `gorm:"type:decimal(8,4);not null;default:10" json:"default_commission_rate"`
	SplitType             SplitType       `gorm:"size:20;not null;default:percentage" json:"split_type"`

	MinimumPayout    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:50" json:"minimum_payout"`
	PayoutFrequency  PayoutFrequency `gorm:"size:20;not null;default:monthly" json:"payout_frequency"`
	PaymentMethod    PaymentMethod   `gorm:"size:20;not null;default:bank_transfer" json:"payment_method"`
	Currency         string          `gorm:"size:3;not null;default:USD" json:"currency"`
	AutoPayouts      *bool           `gorm:"not null;default:false" json:"auto_payouts"`
	RequiresApproval *bool           `gorm:"not null;default:true" json:"requires_approval"`

	// vertical tags this partner can earn on; ["all"] acts as a wildcard
	VerticalAssignments []string `gorm:"serializer:json;type:json" json:"vertical_assignments"`

	TotalEarnings         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_earnings"`
	PendingPayouts        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"pending_payouts"`
	LifetimeRevenue       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"lifetime_revenue"`
	AverageConversionRate decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0" json:"average_conversion_rate"`

	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPartner struct {
	PartnerCode           string           `json:"partner_code" binding:"required"`
	PartnerName           string           `json:"partner_name" binding:"required"`
	PartnerType           PartnerType      `json:"partner_type"`
	ContactEmail          string           `json:"contact_email"`
	DefaultCommissionRate *decimal.Decimal `json:"default_commission_rate"`
	SplitType             SplitType        `json:"split_type"`
	MinimumPayout         *decimal.Decimal `json:"minimum_payout"`
	PayoutFrequency       PayoutFrequency  `json:"payout_frequency"`
	PaymentMethod         PaymentMethod    `json:"payment_method"`
	Currency              string           `json:"currency"`
	AutoPayouts           *bool            `json:"auto_payouts"`
	RequiresApproval      *bool            `json:"requires_approval"`
	VerticalAssignments   []string         `json:"vertical_assignments"`
}

type PartnersEdge Edge[Partner]
type PartnersConnection struct {
	PageInfo *PageInfo       `json:"pageInfo"`
	Edges    []*PartnersEdge `json:"edges"`
}

// node
// returns decoded cursor string
func (p Partner) GetCursor() string {
	return p.PartnerCode
}

func (p Partner) GetId() int {
	return p.ID
}

// MatchesVertical reports whether the partner is assigned to the vertical.
// An empty assignment list or an "all" entry matches everything.
func (p Partner) MatchesVertical(vertical string) bool {
	if len(p.VerticalAssignments) == 0 {
		return true
	}
	for _, v := range p.VerticalAssignments {
		if v == "all" || v == vertical {
			return true
		}
	}
	return false
}

// validate input for both create & update. (id = 0 for create)
func (input *NewPartner) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Partner](ctx, "partner_code", input.PartnerCode, id); err != nil {
		return err
	}
	if input.PartnerType != "" && !input.PartnerType.IsValid() {
		return utils.ErrorInvalidEnum("partner_type", string(input.PartnerType))
	}
	if input.ContactEmail != "" && !utils.IsValidEmail(input.ContactEmail) {
		return errors.New("invalid contact_email")
	}
	if input.SplitType != "" && !input.SplitType.IsValid() {
		return utils.ErrorInvalidEnum("split_type", string(input.SplitType))
	}
	if input.PayoutFrequency != "" && !input.PayoutFrequency.IsValid() {
		return utils.ErrorInvalidEnum("payout_frequency", string(input.PayoutFrequency))
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.IsValid() {
		return utils.ErrorInvalidEnum("payment_method", string(input.PaymentMethod))
	}
	if input.DefaultCommissionRate != nil && input.DefaultCommissionRate.IsNegative() {
		return utils.ErrorNegativeAmount("default_commission_rate")
	}
	if input.MinimumPayout != nil && input.MinimumPayout.IsNegative() {
		return utils.ErrorNegativeAmount("minimum_payout")
	}
	return nil
}

func (input *NewPartner) toModel() Partner {
	partner := Partner{
		PartnerCode:         input.PartnerCode,
		PartnerName:         input.PartnerName,
		PartnerType:         PartnerTypeAffiliate,
		ContactEmail:        utils.NilIfEmpty(input.ContactEmail),
		SplitType:           SplitTypePercentage,
		PayoutFrequency:     PayoutFrequencyMonthly,
		PaymentMethod:       PaymentMethodBankTransfer,
		Currency:            "USD",
		AutoPayouts:         utils.NewFalse(),
		RequiresApproval:    utils.NewTrue(),
		VerticalAssignments: []string{"all"},
		IsActive:            utils.NewTrue(),

		DefaultCommissionRate: DefaultCommissionRatePercent,
		MinimumPayout:         DefaultMinimumPayout,
	}
	if input.PartnerType != "" {
		partner.PartnerType = input.PartnerType
	}
	if input.SplitType != "" {
		partner.SplitType = input.SplitType
	}
	if input.PayoutFrequency != "" {
		partner.PayoutFrequency = input.PayoutFrequency
	}
	if input.PaymentMethod != "" {
		partner.PaymentMethod = input.PaymentMethod
	}
	if input.Currency != "" {
		partner.Currency = input.Currency
	}
	if input.AutoPayouts != nil {
		partner.AutoPayouts = input.AutoPayouts
	}
	if input.RequiresApproval != nil {
		partner.RequiresApproval = input.RequiresApproval
	}
	if len(input.VerticalAssignments) > 0 {
		partner.VerticalAssignments = utils.UniqueSlice(input.VerticalAssignments)
	}
	if input.DefaultCommissionRate != nil {
		partner.DefaultCommissionRate = *input.DefaultCommissionRate
	}
	if input.MinimumPayout != nil {
		partner.MinimumPayout = *input.MinimumPayout
	}
	return partner
}

func CreatePartner(ctx context.Context, input *NewPartner) (*Partner, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	partner := input.toModel()

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&partner).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Partner](""); err != nil {
		return nil, err
	}
	return &partner, nil
}

func UpdatePartner(ctx context.Context, id int, input *NewPartner) (*Partner, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	partner, err := utils.FetchModel[Partner](ctx, id)
	if err != nil {
		return nil, err
	}

	updated := input.toModel()
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&partner).Updates(map[string]interface{}{
		"PartnerCode":           updated.PartnerCode,
		"PartnerName":           updated.PartnerName,
		"PartnerType":           updated.PartnerType,
		"ContactEmail":          updated.ContactEmail,
		"DefaultCommissionRate": updated.DefaultCommissionRate,
		"SplitType":             updated.SplitType,
		"MinimumPayout":         updated.MinimumPayout,
		"PayoutFrequency":       updated.PayoutFrequency,
		"PaymentMethod":         updated.PaymentMethod,
		"Currency":              updated.Currency,
		"AutoPayouts":           updated.AutoPayouts,
		"RequiresApproval":      updated.RequiresApproval,
		"VerticalAssignments":   updated.VerticalAssignments,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := ClearResourceCache[Partner](id); err != nil {
		return nil, err
	}
	return partner, nil
}

func GetPartner(ctx context.Context, id int) (*Partner, error) {

	return GetResource[Partner](ctx, id)
}

func GetPartnerByCode(ctx context.Context, code string) (*Partner, error) {

	db := config.GetDB()
	var partner Partner
	err := db.WithContext(ctx).Where("partner_code = ?", code).First(&partner).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &partner, nil
}

func TogglePartnerActive(ctx context.Context, id int, isActive bool) (*Partner, error) {

	return ToggleActiveModel[Partner](ctx, id, isActive)
}

func PaginatePartners(ctx context.Context, limit *int, after *string,
	name *string, partnerType *PartnerType) (*PartnersConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if name != nil && *name != "" {
		dbCtx = dbCtx.Where("partner_name LIKE ?", "%"+*name+"%")
	}
	if partnerType != nil && *partnerType != "" {
		dbCtx = dbCtx.Where("partner_type = ?", *partnerType)
	}
	edges, pageInfo, err := FetchPagePureCursor[Partner](dbCtx, *limit, after, "partner_code", ">")
	if err != nil {
		return nil, err
	}
	var partnersConnection PartnersConnection
	partnersConnection.PageInfo = pageInfo
	for _, edge := range edges {
		partnerEdge := PartnersEdge(edge)
		partnersConnection.Edges = append(partnersConnection.Edges, &partnerEdge)
	}
	return &partnersConnection, err
}

// EligiblePayoutPartners lists active partners with automatic payouts enabled,
// for the scheduled batch runner.
func EligiblePayoutPartners(ctx context.Context) ([]*Partner, error) {

	db := config.GetDB()
	var partners []*Partner
	err := db.WithContext(ctx).
		Where("is_active = ? AND auto_payouts = ?", true, true).
		Order("id").
		Find(&partners).Error
	if err != nil {
		return nil, err
	}
	return partners, nil
}

// ApplyTransactionTotals accrues a recorded split onto the partner's running
// totals inside the caller's transaction. Increments are pushed down to SQL
// so concurrent recorders cannot lose updates.
func ApplyTransactionTotals(tx *gorm.DB, ctx context.Context, partnerId int,
	totalSplitAmount decimal.Decimal, netPayoutAmount decimal.Decimal, originalAmount decimal.Decimal) error {

	err := tx.WithContext(ctx).Model(&Partner{}).
		Where("id = ?", partnerId).
		UpdateColumns(map[string]interface{}{
			"total_earnings":   gorm.Expr("total_earnings + ?", totalSplitAmount),
			"pending_payouts":  gorm.Expr("pending_payouts + ?", netPayoutAmount),
			"lifetime_revenue": gorm.Expr("lifetime_revenue + ?", originalAmount),
			"updated_at":       time.Now().UTC(),
		}).Error
	if err != nil {
		return err
	}
	return ClearResourceCache[Partner](partnerId)
}

// ApplyPayoutTotals releases batched pending payouts from the partner's
// running totals inside the caller's transaction.
func ApplyPayoutTotals(tx *gorm.DB, ctx context.Context, partnerId int,
	netPayoutAmount decimal.Decimal) error {

	err := tx.WithContext(ctx).Model(&Partner{}).
		Where("id = ?", partnerId).
		UpdateColumns(map[string]interface{}{
			"pending_payouts": gorm.Expr("pending_payouts - ?", netPayoutAmount),
			"updated_at":      time.Now().UTC(),
		}).Error
	if err != nil {
		return err
	}
	return ClearResourceCache[Partner](partnerId)
}
