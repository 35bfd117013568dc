package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/models"
	"github.com/empirehq/revenue_backend/utils"
	"gorm.io/gorm"
)

const splitHandlerName = "split.process"

var ErrPartnerInactive = errors.New("partner is inactive")
var ErrNoPartnerReference = errors.New("order carries neither partner_id nor affiliate_code")

// ProcessOrder runs the full split pipeline for one (order, partner) pair:
// resolve the partner (lazily migrating legacy affiliates), match a rule,
// compute the split, then atomically record the transaction, accrue partner
// totals, bump the daily summary and stage the outbox event.
//
// Resubmissions of the same (order_id, partner_id) return the existing row
// without double-counting.
func ProcessOrder(ctx context.Context, input *models.SplitOrderInput) (*models.SplitTransaction, error) {

	logger := config.GetLogger()

	if input.OriginalAmount.IsNegative() {
		return nil, utils.ErrorNegativeAmount("original_amount")
	}

	partner, err := resolvePartner(ctx, input)
	if err != nil {
		return nil, err
	}
	if partner.IsActive != nil && !*partner.IsActive {
		return nil, ErrPartnerInactive
	}

	rules, err := models.GetActiveRulesForPartner(ctx, partner.ID)
	if err != nil {
		return nil, err
	}

	transactionDate := time.Now().UTC()
	if input.TransactionDate != nil {
		transactionDate = input.TransactionDate.UTC()
	}

	rule := MatchRule(rules, input, transactionDate)
	computation := CalculateSplit(partner, rule, input)

	transaction := buildTransaction(partner, rule, input, computation, transactionDate)

	messageId := fmt.Sprintf("%s:%d", input.OrderId, partner.ID)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		skip, err := BeginIdempotency(tx, splitHandlerName, messageId)
		if err != nil {
			return err
		}
		if skip {
			return errAlreadyProcessed
		}

		if err := tx.Create(&transaction).Error; err != nil {
			if utils.IsDuplicateEntryError(err) {
				// concurrent duplicate slipped past the idempotency row
				return errAlreadyProcessed
			}
			return err
		}

		err = models.ApplyTransactionTotals(tx, ctx, partner.ID,
			transaction.TotalSplitAmount, transaction.NetPayoutAmount, transaction.OriginalAmount)
		if err != nil {
			return err
		}

		err = models.ApplyToDailySummary(tx, ctx, transaction.TransactionDate,
			transaction.OriginalAmount, transaction.TotalSplitAmount, transaction.NetPayoutAmount)
		if err != nil {
			return err
		}

		err = models.PublishToEvents(tx, ctx, transaction.ID,
			models.SplitEventReferenceTypeSplitTransaction, models.SplitEventActionRecorded, &transaction)
		if err != nil {
			return err
		}

		return MarkIdempotencySucceeded(tx, splitHandlerName, messageId)
	})

	if err == errAlreadyProcessed {
		existing, fetchErr := findExistingSplit(ctx, input.OrderId, partner.ID)
		if fetchErr != nil {
			return nil, fetchErr
		}
		config.LogInfo(logger, "workflow", "ProcessOrder",
			"duplicate submission, returning existing split",
			map[string]interface{}{"order_id": input.OrderId, "partner_id": partner.ID})
		return existing, nil
	}
	if err != nil {
		config.LogError(logger, "workflow", "ProcessOrder", "recording split transaction",
			map[string]interface{}{"order_id": input.OrderId, "partner_id": partner.ID}, err)
		// best effort; only touches a STARTED row left behind by an earlier attempt
		if markErr := MarkIdempotencyFailed(db.WithContext(ctx), splitHandlerName, messageId, err); markErr != nil {
			config.LogError(logger, "workflow", "ProcessOrder", "marking idempotency key failed",
				messageId, markErr)
		}
		return nil, err
	}

	return &transaction, nil
}

var errAlreadyProcessed = errors.New("order already processed for partner")

func resolvePartner(ctx context.Context, input *models.SplitOrderInput) (*models.Partner, error) {
	if input.PartnerId != nil {
		return models.GetPartner(ctx, *input.PartnerId)
	}
	if input.AffiliateCode != nil && *input.AffiliateCode != "" {
		return models.EnsurePartnerByCode(ctx, *input.AffiliateCode)
	}
	return nil, ErrNoPartnerReference
}

func buildTransaction(partner *models.Partner, rule *models.SplitRule,
	input *models.SplitOrderInput, computation SplitComputation,
	transactionDate time.Time) models.SplitTransaction {

	currency := partner.Currency
	if input.Currency != "" {
		currency = input.Currency
	}

	transaction := models.SplitTransaction{
		OrderId:       input.OrderId,
		PartnerId:     partner.ID,
		ClickId:       input.ClickId,
		AffiliateCode: input.AffiliateCode,

		OriginalAmount:   input.OriginalAmount,
		CommissionRate:   computation.CommissionRate,
		CommissionAmount: computation.CommissionAmount,
		BonusAmount:      computation.BonusAmount,
		TotalSplitAmount: computation.TotalSplitAmount,
		ProcessingFees:   computation.ProcessingFees,
		PlatformFees:     computation.PlatformFees,
		NetPayoutAmount:  computation.NetPayoutAmount,
		Currency:         currency,

		Vertical:        input.Vertical,
		ProductCategory: input.ProductCategory,
		ProductId:       input.ProductId,
		ProductName:     input.ProductName,
		CustomerSegment: input.CustomerSegment,
		CustomerCountry: input.CustomerCountry,
		IsNewCustomer:   &input.IsNewCustomer,

		Status:          models.SplitTransactionStatusPending,
		TransactionDate: transactionDate,
	}
	if rule != nil {
		transaction.RuleId = &rule.ID
	}
	return transaction
}

func findExistingSplit(ctx context.Context, orderId string, partnerId int) (*models.SplitTransaction, error) {
	db := config.GetDB()
	var existing models.SplitTransaction
	err := db.WithContext(ctx).
		Where("order_id = ? AND partner_id = ?", orderId, partnerId).
		First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &existing, nil
}
