package models

import "github.com/shopspring/decimal"

// Platform-wide split policy. Rates are fixed per business agreement and
// applied in the calculator; changing them here changes them everywhere.
var (
	// default commission when neither a rule nor a partner rate applies (percent)
	DefaultCommissionRatePercent = decimal.NewFromInt(10)

	// minimum payout threshold applied to new partners (currency units)
	DefaultMinimumPayout = decimal.NewFromInt(50)

	// payment processing fee, fraction of total split amount
	ProcessingFeeRate = decimal.RequireFromString("0.029")

	// platform fee, fraction of total split amount
	PlatformFeeRate = decimal.RequireFromString("0.02")
)
