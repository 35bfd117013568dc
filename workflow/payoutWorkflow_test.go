package workflow

import (
	"testing"
	"time"

	"github.com/empirehq/revenue_backend/models"
)

func TestPayoutPeriodFor(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		frequency     models.PayoutFrequency
		expectedStart time.Time
	}{
		{models.PayoutFrequencyWeekly, now.AddDate(0, 0, -7)},
		{models.PayoutFrequencyBiweekly, now.AddDate(0, 0, -14)},
		{models.PayoutFrequencyMonthly, now.AddDate(0, -1, 0)},
		{models.PayoutFrequencyQuarterly, now.AddDate(0, -3, 0)},
		{models.PayoutFrequency("unknown"), now.AddDate(0, -1, 0)},
	}
	for _, tc := range cases {
		start, end := PayoutPeriodFor(tc.frequency, now)
		if !start.Equal(tc.expectedStart) {
			t.Errorf("%s: expected start %v, got %v", tc.frequency, tc.expectedStart, start)
		}
		if !end.Equal(now) {
			t.Errorf("%s: expected end %v, got %v", tc.frequency, now, end)
		}
	}
}
