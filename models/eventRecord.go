package models

import (
	"context"
	"time"

	"github.com/empirehq/revenue_backend/appctx"
	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/utils"
	"gorm.io/gorm"
)

// Outbox publish statuses for SplitEventRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// SplitEventRecord is the transactional outbox row for split and payout
// events. Rows are written in the same DB transaction as the document they
// describe; the dispatcher publishes them to Pub/Sub after commit.
type SplitEventRecord struct {
	ID            int                     `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	OccurredAt    time.Time               `gorm:"index;not null" json:"occurred_at"`
	ReferenceId   int                     `gorm:"not null;index" json:"reference_id"`
	ReferenceType SplitEventReferenceType `gorm:"size:30;not null" json:"reference_type"`
	Action        SplitEventAction        `gorm:"size:20;not null" json:"action"`
	Payload       []byte                  `gorm:"type:blob" json:"payload"`

	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`

	CorrelationId string    `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToSplitEventMessage(record SplitEventRecord) config.SplitEventMessage {
	return config.SplitEventMessage{
		ID:            record.ID,
		OccurredAt:    record.OccurredAt,
		ReferenceId:   record.ReferenceId,
		ReferenceType: string(record.ReferenceType),
		Action:        string(record.Action),
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}

// PublishToEvents stages an event in the outbox inside the caller's
// transaction. The actual publish happens after commit via the dispatcher.
func PublishToEvents(tx *gorm.DB, ctx context.Context, referenceId int,
	referenceType SplitEventReferenceType, action SplitEventAction, document any) error {

	payload, err := utils.MarshalToJSON(document)
	if err != nil {
		return err
	}

	correlationId, _ := appctx.GetString(ctx, appctx.ContextKeyCorrelationId)

	record := SplitEventRecord{
		OccurredAt:    time.Now().UTC(),
		ReferenceId:   referenceId,
		ReferenceType: referenceType,
		Action:        action,
		Payload:       []byte(payload),
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationId,
	}

	return tx.WithContext(ctx).Create(&record).Error
}
