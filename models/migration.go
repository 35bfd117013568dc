package models

import (
	"log"

	"github.com/empirehq/revenue_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Partner{}, &LegacyAffiliate{},
		&SplitRule{}, &SplitTransaction{}, &PayoutBatch{},
		&DailyRevenueSummary{},
		&ForecastModel{}, &Forecast{},
		&SplitEventRecord{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
