package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/models"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GeneratePayoutBatch aggregates the partner's pending transactions in the
// period into one batch. Returns (nil, nil) when there is nothing to pay or
// the net sum is below the partner's minimum payout; that is a legitimate
// no-op, not an error.
//
// The select, aggregate, insert and approve all run inside one DB transaction
// under a per-partner advisory lock, so a crash can never leave transactions
// half-batched and a concurrent recorder cannot change the member set.
func GeneratePayoutBatch(ctx context.Context, partnerId int,
	periodStart time.Time, periodEnd time.Time) (*models.PayoutBatch, error) {

	logger := config.GetLogger()

	partner, err := models.GetPartner(ctx, partnerId)
	if err != nil {
		return nil, err
	}

	batchNumber := models.NextBatchNumber(ctx)

	var batch *models.PayoutBatch
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		if err := AcquirePartnerPayoutLock(tx, partnerId); err != nil {
			return err
		}
		defer ReleasePartnerPayoutLock(tx, partnerId)

		transactions, err := models.PendingTransactionsForPayout(tx, ctx, partnerId, periodStart, periodEnd)
		if err != nil {
			return err
		}
		if len(transactions) == 0 {
			config.LogInfo(logger, "workflow", "GeneratePayoutBatch",
				"no pending transactions in period",
				map[string]interface{}{"partner_id": partnerId})
			return nil
		}

		gross := decimal.Zero
		deductions := decimal.Zero
		net := decimal.Zero
		ids := make([]int, 0, len(transactions))
		for _, transaction := range transactions {
			gross = gross.Add(transaction.TotalSplitAmount)
			deductions = deductions.Add(transaction.ProcessingFees).Add(transaction.PlatformFees)
			net = net.Add(transaction.NetPayoutAmount)
			ids = append(ids, transaction.ID)
		}

		if net.LessThan(partner.MinimumPayout) {
			config.LogInfo(logger, "workflow", "GeneratePayoutBatch",
				"net payout below minimum, skipping batch",
				map[string]interface{}{
					"partner_id":     partnerId,
					"net_payout":     net.String(),
					"minimum_payout": partner.MinimumPayout.String(),
				})
			return nil
		}

		status := models.PayoutBatchStatusProcessing
		if partner.RequiresApproval != nil && *partner.RequiresApproval {
			status = models.PayoutBatchStatusPendingApproval
		}

		created := models.PayoutBatch{
			BatchNumber:       batchNumber,
			PartnerId:         partnerId,
			PeriodStart:       periodStart,
			PeriodEnd:         periodEnd,
			GrossAmount:       gross,
			Deductions:        deductions,
			NetPayoutAmount:   net,
			TotalTransactions: len(transactions),
			Currency:          partner.Currency,
			PaymentMethod:     partner.PaymentMethod,
			Status:            status,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		approvedAt := time.Now().UTC()
		if err := models.ApproveTransactionsForBatch(tx, ctx, ids, created.ID, approvedAt); err != nil {
			return err
		}

		if err := models.ApplyPayoutTotals(tx, ctx, partnerId, net); err != nil {
			return err
		}

		err = models.PublishToEvents(tx, ctx, created.ID,
			models.SplitEventReferenceTypePayoutBatch, models.SplitEventActionBatched, &created)
		if err != nil {
			return err
		}

		batch = &created
		return nil
	})
	if err != nil {
		config.LogError(logger, "workflow", "GeneratePayoutBatch", "creating payout batch",
			map[string]interface{}{"partner_id": partnerId}, err)
		return nil, err
	}

	return batch, nil
}

// ApprovePayoutBatch releases a held batch into processing.
func ApprovePayoutBatch(ctx context.Context, batchId int) (*models.PayoutBatch, error) {

	batch, err := models.GetPayoutBatch(ctx, batchId)
	if err != nil {
		return nil, err
	}
	if batch.Status != models.PayoutBatchStatusPendingApproval {
		return nil, errors.New("only pending approval batches can be approved")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&batch).
		UpdateColumn("status", models.PayoutBatchStatusProcessing).Error
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// MarkPayoutBatchPaid finalizes a processing batch after the payment provider
// confirms, flipping member transactions to paid in the same transaction.
func MarkPayoutBatchPaid(ctx context.Context, batchId int) (*models.PayoutBatch, error) {

	batch, err := models.GetPayoutBatch(ctx, batchId)
	if err != nil {
		return nil, err
	}
	if batch.Status != models.PayoutBatchStatusProcessing {
		return nil, errors.New("only processing batches can be marked paid")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		err := tx.Model(&models.PayoutBatch{}).
			Where("id = ?", batchId).
			UpdateColumns(map[string]interface{}{
				"status":  models.PayoutBatchStatusPaid,
				"paid_at": &now,
			}).Error
		if err != nil {
			return err
		}
		if err := models.MarkBatchTransactionsPaid(tx, ctx, batchId); err != nil {
			return err
		}
		return models.PublishToEvents(tx, ctx, batchId,
			models.SplitEventReferenceTypePayoutBatch, models.SplitEventActionUpdated, batch)
	})
	if err != nil {
		return nil, err
	}
	return models.GetPayoutBatch(ctx, batchId)
}

// MarkPayoutBatchFailed records a provider failure. Member transactions stay
// approved; the operator resolves and retries out of band.
func MarkPayoutBatchFailed(ctx context.Context, batchId int, reason string) (*models.PayoutBatch, error) {

	batch, err := models.GetPayoutBatch(ctx, batchId)
	if err != nil {
		return nil, err
	}
	if batch.Status != models.PayoutBatchStatusProcessing {
		return nil, errors.New("only processing batches can be marked failed")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&batch).
		UpdateColumns(map[string]interface{}{
			"status":         models.PayoutBatchStatusFailed,
			"failure_reason": &reason,
		}).Error
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// PayoutPeriodFor derives the batching window ending now for a partner's
// payout frequency.
func PayoutPeriodFor(frequency models.PayoutFrequency, now time.Time) (time.Time, time.Time) {
	end := now.UTC()
	switch frequency {
	case models.PayoutFrequencyWeekly:
		return end.AddDate(0, 0, -7), end
	case models.PayoutFrequencyBiweekly:
		return end.AddDate(0, 0, -14), end
	case models.PayoutFrequencyQuarterly:
		return end.AddDate(0, -3, 0), end
	default:
		return end.AddDate(0, -1, 0), end
	}
}

// RunScheduledPayouts batches every eligible partner once. Partners fail
// independently; one partner's error does not stop the sweep.
func RunScheduledPayouts(ctx context.Context) (created []*models.PayoutBatch, err error) {

	logger := config.GetLogger()

	if !config.AutoPayoutsEnabled() {
		config.LogInfo(logger, "workflow", "RunScheduledPayouts",
			"automatic payouts disabled, skipping sweep", nil)
		return nil, nil
	}

	release, err := utils.JobLock(ctx, "payout-runner", "global", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	defer release()

	partners, err := models.EligiblePayoutPartners(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, partner := range partners {
		start, end := PayoutPeriodFor(partner.PayoutFrequency, now)
		batch, batchErr := GeneratePayoutBatch(ctx, partner.ID, start, end)
		if batchErr != nil {
			config.LogError(logger, "workflow", "RunScheduledPayouts", "partner batch failed",
				map[string]interface{}{"partner_id": partner.ID}, batchErr)
			continue
		}
		if batch != nil {
			created = append(created, batch)
		}
	}

	config.LogInfo(logger, "workflow", "RunScheduledPayouts", "payout sweep complete",
		map[string]interface{}{"partners": len(partners), "batches": len(created)})
	return created, nil
}
