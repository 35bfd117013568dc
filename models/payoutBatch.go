package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutBatch aggregates one partner's approved transactions for a period.
// Batches are never split or merged after creation; net_payout_amount always
// equals the sum of the member transactions' net_payout_amount.
type PayoutBatch struct {
	ID          int    `gorm:"primary_key" json:"id"`
	BatchNumber string `gorm:"size:64;not null;uniqueIndex" json:"batch_number"`
	PartnerId   int    `gorm:"not null;index" json:"partner_id"`

	PeriodStart time.Time `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null" json:"period_end"`

	GrossAmount       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"gross_amount"`
	Deductions        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"deductions"`
	NetPayoutAmount   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"net_payout_amount"`
	TotalTransactions int             `gorm:"not null;default:0" json:"total_transactions"`
	Currency          string          `gorm:"size:3;not null;default:USD" json:"currency"`

	PaymentMethod PaymentMethod     `gorm:"size:20;not null" json:"payment_method"`
	Status        PayoutBatchStatus `gorm:"size:20;not null;index" json:"status"`
	FailureReason *string           `gorm:"type:text" json:"failure_reason"`
	PaidAt        *time.Time        `json:"paid_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type PayoutBatchesEdge Edge[PayoutBatch]
type PayoutBatchesConnection struct {
	PageInfo *PageInfo            `json:"pageInfo"`
	Edges    []*PayoutBatchesEdge `json:"edges"`
}

func (b PayoutBatch) GetCursor() string {
	return b.CreatedAt.UTC().Format("2006-01-02 15:04:05")
}

func (b PayoutBatch) GetId() int {
	return b.ID
}

// NextBatchNumber issues a monotonic batch number from the Redis sequence,
// falling back to a uuid suffix when Redis is unavailable.
func NextBatchNumber(ctx context.Context) string {
	seq, err := config.GetRedisCounter(ctx, "PayoutBatchSeq")
	if err != nil || seq == 0 {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		return "PB-" + strings.ToUpper(suffix)
	}
	return fmt.Sprintf("PB-%06d", seq)
}

func GetPayoutBatch(ctx context.Context, id int) (*PayoutBatch, error) {

	return utils.FetchModel[PayoutBatch](ctx, id)
}

func PaginatePayoutBatches(ctx context.Context, limit *int, after *string,
	partnerId *int, status *PayoutBatchStatus) (*PayoutBatchesConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if partnerId != nil {
		dbCtx = dbCtx.Where("partner_id = ?", *partnerId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	edges, pageInfo, err := FetchPageCompositeCursor[PayoutBatch](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	var connection PayoutBatchesConnection
	connection.PageInfo = pageInfo
	for _, edge := range edges {
		batchEdge := PayoutBatchesEdge(edge)
		connection.Edges = append(connection.Edges, &batchEdge)
	}
	return &connection, err
}

// BatchTransactions lists the member transactions of a batch.
func BatchTransactions(ctx context.Context, batchId int) ([]*SplitTransaction, error) {

	db := config.GetDB()
	var results []*SplitTransaction
	err := db.WithContext(ctx).
		Where("payout_batch_id = ?", batchId).
		Order("transaction_date, id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
