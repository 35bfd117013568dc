package workflow

import (
	"context"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/models"
)

// RequeueDeadOutbox reverts DEAD (or terminally FAILED) outbox rows to
// PENDING so the dispatcher picks them up again. Attempts are reset; the
// operator has presumably fixed the underlying publish problem. An empty ids
// slice requeues every DEAD row.
func RequeueDeadOutbox(ctx context.Context, ids []int) (int64, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&models.SplitEventRecord{}).
		Where("publish_status IN ?", []string{models.OutboxPublishStatusDead, models.OutboxPublishStatusFailed})
	if len(ids) > 0 {
		dbCtx = dbCtx.Where("id IN ?", ids)
	}

	result := dbCtx.Updates(map[string]interface{}{
		"publish_status":     models.OutboxPublishStatusPending,
		"publish_attempts":   0,
		"next_attempt_at":    nil,
		"locked_at":          nil,
		"locked_by":          nil,
		"last_publish_error": nil,
	})
	return result.RowsAffected, result.Error
}
