package models

type PartnerType string

const (
	PartnerTypeAffiliate  PartnerType = "affiliate"
	PartnerTypeVendor     PartnerType = "vendor"
	PartnerTypeInfluencer PartnerType = "influencer"
	PartnerTypeInternal   PartnerType = "internal"
)

var AllPartnerType = []PartnerType{
	PartnerTypeAffiliate,
	PartnerTypeVendor,
	PartnerTypeInfluencer,
	PartnerTypeInternal,
}

func (e PartnerType) IsValid() bool {
	switch e {
	case PartnerTypeAffiliate, PartnerTypeVendor, PartnerTypeInfluencer, PartnerTypeInternal:
		return true
	}
	return false
}

func (e PartnerType) String() string {
	return string(e)
}

type SplitType string

const (
	SplitTypeFlat       SplitType = "flat"
	SplitTypePercentage SplitType = "percentage"
	SplitTypeTiered     SplitType = "tiered"
	SplitTypeCustom     SplitType = "custom"
)

var AllSplitType = []SplitType{
	SplitTypeFlat,
	SplitTypePercentage,
	SplitTypeTiered,
	SplitTypeCustom,
}

func (e SplitType) IsValid() bool {
	switch e {
	case SplitTypeFlat, SplitTypePercentage, SplitTypeTiered, SplitTypeCustom:
		return true
	}
	return false
}

func (e SplitType) String() string {
	return string(e)
}

// TierRateType selects how a matched commission tier is applied:
// percentage-of-amount or a flat amount.
type TierRateType string

const (
	TierRateTypePercentage TierRateType = "percentage"
	TierRateTypeFlat       TierRateType = "flat"
)

func (e TierRateType) IsValid() bool {
	switch e {
	case TierRateTypePercentage, TierRateTypeFlat:
		return true
	}
	return false
}

type SplitTransactionStatus string

const (
	SplitTransactionStatusPending  SplitTransactionStatus = "pending"
	SplitTransactionStatusApproved SplitTransactionStatus = "approved"
	SplitTransactionStatusPaid     SplitTransactionStatus = "paid"
	SplitTransactionStatusDisputed SplitTransactionStatus = "disputed"
)

func (e SplitTransactionStatus) IsValid() bool {
	switch e {
	case SplitTransactionStatusPending, SplitTransactionStatusApproved,
		SplitTransactionStatusPaid, SplitTransactionStatusDisputed:
		return true
	}
	return false
}

func (e SplitTransactionStatus) String() string {
	return string(e)
}

type PayoutBatchStatus string

const (
	PayoutBatchStatusPendingApproval PayoutBatchStatus = "pending_approval"
	PayoutBatchStatusProcessing      PayoutBatchStatus = "processing"
	PayoutBatchStatusPaid            PayoutBatchStatus = "paid"
	PayoutBatchStatusFailed          PayoutBatchStatus = "failed"
)

func (e PayoutBatchStatus) IsValid() bool {
	switch e {
	case PayoutBatchStatusPendingApproval, PayoutBatchStatusProcessing,
		PayoutBatchStatusPaid, PayoutBatchStatusFailed:
		return true
	}
	return false
}

type PayoutFrequency string

const (
	PayoutFrequencyWeekly    PayoutFrequency = "weekly"
	PayoutFrequencyBiweekly  PayoutFrequency = "biweekly"
	PayoutFrequencyMonthly   PayoutFrequency = "monthly"
	PayoutFrequencyQuarterly PayoutFrequency = "quarterly"
)

func (e PayoutFrequency) IsValid() bool {
	switch e {
	case PayoutFrequencyWeekly, PayoutFrequencyBiweekly, PayoutFrequencyMonthly, PayoutFrequencyQuarterly:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodPaypal       PaymentMethod = "paypal"
	PaymentMethodStripe       PaymentMethod = "stripe"
	PaymentMethodManual       PaymentMethod = "manual"
)

func (e PaymentMethod) IsValid() bool {
	switch e {
	case PaymentMethodBankTransfer, PaymentMethodPaypal, PaymentMethodStripe, PaymentMethodManual:
		return true
	}
	return false
}

// SplitEventReferenceType tags outbox rows with the originating document kind.
type SplitEventReferenceType string

const (
	SplitEventReferenceTypeSplitTransaction SplitEventReferenceType = "SplitTransaction"
	SplitEventReferenceTypePayoutBatch      SplitEventReferenceType = "PayoutBatch"
)

type SplitEventAction string

const (
	SplitEventActionRecorded SplitEventAction = "recorded"
	SplitEventActionBatched  SplitEventAction = "batched"
	SplitEventActionUpdated  SplitEventAction = "updated"
)

type MarketCondition string

const (
	MarketConditionDecline MarketCondition = "decline"
	MarketConditionStable  MarketCondition = "stable"
	MarketConditionGrowth  MarketCondition = "growth"
)

func (e MarketCondition) IsValid() bool {
	switch e {
	case MarketConditionDecline, MarketConditionStable, MarketConditionGrowth:
		return true
	}
	return false
}
