// payout-runner sweeps eligible partners and cuts payout batches for the
// period implied by each partner's payout frequency. Intended to run as a
// scheduled job (Cloud Scheduler / cron); the HTTP endpoint does the same
// work for manual runs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/empirehq/revenue_backend/workflow"
	"github.com/google/uuid"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	ctx = utils.SetCorrelationIdInContext(ctx, "payout-runner-"+uuid.NewString())

	batches, err := workflow.RunScheduledPayouts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scheduled payout run failed: %v\n", err)
		os.Exit(1)
	}

	for _, b := range batches {
		fmt.Printf("created batch %s partner=%d net=%s status=%s\n",
			b.BatchNumber, b.PartnerId, b.NetPayoutAmount.String(), b.Status)
	}
	fmt.Printf("Payout run complete (%d batches created)\n", len(batches))
}
