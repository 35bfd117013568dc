package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquirePartnerPayoutLock serializes payout batching per partner across
// instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will run the batching transaction.
func AcquirePartnerPayoutLock(tx *gorm.DB, partnerId int) error {
	lockName := fmt.Sprintf("payout:%d", partnerId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire payout lock for partner_id=%d", partnerId)
	}
	return nil
}

func ReleasePartnerPayoutLock(tx *gorm.DB, partnerId int) {
	lockName := fmt.Sprintf("payout:%d", partnerId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
