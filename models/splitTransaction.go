package models

import (
	"context"
	"errors"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SplitTransaction is the immutable record of one commission computation.
// Only status, payout_batch_id and approved_at change after insert.
// The (order_id, partner_id) unique index deduplicates resubmissions of the
// same order.
type SplitTransaction struct {
	ID            int     `gorm:"primary_key" json:"id"`
	OrderId       string  `gorm:"size:100;not null;index:uniq_order_partner,unique" json:"order_id"`
	PartnerId     int     `gorm:"not null;index:uniq_order_partner,unique;index" json:"partner_id"`
	RuleId        *int    `gorm:"index" json:"rule_id"`
	ClickId       *string `gorm:"size:100" json:"click_id"`
	AffiliateCode *string `gorm:"size:100" json:"affiliate_code"`

	OriginalAmount   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"original_amount"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0" json:"commission_rate"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"commission_amount"`
	BonusAmount      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"bonus_amount"`
	TotalSplitAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_split_amount"`
	ProcessingFees   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"processing_fees"`
	PlatformFees     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"platform_fees"`
	NetPayoutAmount  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"net_payout_amount"`
	Currency         string          `gorm:"size:3;not null;default:USD" json:"currency"`

	Vertical        *string `gorm:"size:100;index" json:"vertical"`
	ProductCategory *string `gorm:"size:100" json:"product_category"`
	ProductId       *string `gorm:"size:100" json:"product_id"`
	ProductName     *string `gorm:"size:255" json:"product_name"`
	CustomerSegment *string `gorm:"size:100" json:"customer_segment"`
	CustomerCountry *string `gorm:"size:2" json:"customer_country"`
	IsNewCustomer   *bool   `gorm:"not null;default:false" json:"is_new_customer"`

	Status        SplitTransactionStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	PayoutBatchId *int                   `gorm:"index" json:"payout_batch_id"`
	ApprovedAt    *time.Time             `json:"approved_at"`

	TransactionDate time.Time `gorm:"not null;index" json:"transaction_date"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SplitOrderInput is the transaction-processing request as received from the
// order pipeline.
type SplitOrderInput struct {
	OrderId         string          `json:"order_id" binding:"required"`
	AffiliateCode   *string         `json:"affiliate_code"`
	PartnerId       *int            `json:"partner_id"`
	ClickId         *string         `json:"click_id"`
	OriginalAmount  decimal.Decimal `json:"original_amount" binding:"required"`
	Currency        string          `json:"currency"`
	Vertical        *string         `json:"vertical"`
	ProductCategory *string         `json:"product_category"`
	ProductId       *string         `json:"product_id"`
	ProductName     *string         `json:"product_name"`
	CustomerSegment *string         `json:"customer_segment"`
	CustomerCountry *string         `json:"customer_country"`
	IsNewCustomer   bool            `json:"is_new_customer"`
	TransactionDate *time.Time      `json:"transaction_date"`
}

type SplitTransactionsEdge Edge[SplitTransaction]
type SplitTransactionsConnection struct {
	PageInfo *PageInfo                `json:"pageInfo"`
	Edges    []*SplitTransactionsEdge `json:"edges"`
}

func (t SplitTransaction) GetCursor() string {
	return t.TransactionDate.UTC().Format("2006-01-02 15:04:05")
}

func (t SplitTransaction) GetId() int {
	return t.ID
}

func GetSplitTransaction(ctx context.Context, id int) (*SplitTransaction, error) {

	return utils.FetchModel[SplitTransaction](ctx, id)
}

func GetSplitTransactionsByOrder(ctx context.Context, orderId string) ([]*SplitTransaction, error) {

	db := config.GetDB()
	var results []*SplitTransaction
	err := db.WithContext(ctx).
		Where("order_id = ?", orderId).
		Order("partner_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func PaginateSplitTransactions(ctx context.Context, limit *int, after *string,
	partnerId *int, status *SplitTransactionStatus) (*SplitTransactionsConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if partnerId != nil {
		dbCtx = dbCtx.Where("partner_id = ?", *partnerId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	edges, pageInfo, err := FetchPageCompositeCursor[SplitTransaction](dbCtx, *limit, after, "transaction_date", "<")
	if err != nil {
		return nil, err
	}
	var connection SplitTransactionsConnection
	connection.PageInfo = pageInfo
	for _, edge := range edges {
		transactionEdge := SplitTransactionsEdge(edge)
		connection.Edges = append(connection.Edges, &transactionEdge)
	}
	return &connection, err
}

// PendingTransactionsForPayout selects the partner's pending transactions in
// the period, locking the rows for the life of the caller's transaction so a
// concurrent recorder or batcher cannot slip rows in or out of the batch.
func PendingTransactionsForPayout(tx *gorm.DB, ctx context.Context, partnerId int,
	periodStart time.Time, periodEnd time.Time) ([]*SplitTransaction, error) {

	var results []*SplitTransaction
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("partner_id = ? AND status = ?", partnerId, SplitTransactionStatusPending).
		Where("transaction_date >= ? AND transaction_date <= ?", periodStart, periodEnd).
		Order("transaction_date, id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ApproveTransactionsForBatch moves the selected rows into the batch in one
// statement inside the caller's transaction.
func ApproveTransactionsForBatch(tx *gorm.DB, ctx context.Context, ids []int,
	batchId int, approvedAt time.Time) error {

	if len(ids) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&SplitTransaction{}).
		Where("id IN ? AND status = ?", ids, SplitTransactionStatusPending).
		UpdateColumns(map[string]interface{}{
			"status":          SplitTransactionStatusApproved,
			"payout_batch_id": batchId,
			"approved_at":     approvedAt,
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(ids)) {
		return errors.New("payout batch lost transactions to a concurrent writer")
	}
	return nil
}

// MarkBatchTransactionsPaid finalizes a paid batch's rows inside the caller's
// transaction.
func MarkBatchTransactionsPaid(tx *gorm.DB, ctx context.Context, batchId int) error {

	return tx.WithContext(ctx).Model(&SplitTransaction{}).
		Where("payout_batch_id = ? AND status = ?", batchId, SplitTransactionStatusApproved).
		UpdateColumn("status", SplitTransactionStatusPaid).Error
}

// DisputeSplitTransaction flags a pending or approved transaction. Paid
// transactions cannot be disputed here; that is a refund flow.
func DisputeSplitTransaction(ctx context.Context, id int) (*SplitTransaction, error) {

	transaction, err := utils.FetchModel[SplitTransaction](ctx, id)
	if err != nil {
		return nil, err
	}
	if transaction.Status == SplitTransactionStatusPaid {
		return nil, errors.New("paid transactions cannot be disputed")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&transaction).
		UpdateColumn("status", SplitTransactionStatusDisputed).Error
	if err != nil {
		return nil, err
	}
	return transaction, nil
}
