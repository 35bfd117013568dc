package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/models"
)

func main() {
	from := flag.String("from", "", "Optional: start date (YYYY-MM-DD). Defaults to 365 days ago.")
	to := flag.String("to", "", "Optional: end date (YYYY-MM-DD). Defaults to today (UTC).")
	flag.Parse()

	ctx := context.Background()
	// Explicit DB connect (config no longer connects DB in init()).
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	// Ensure schema is up-to-date (creates daily_revenue_summaries if missing).
	models.MigrateTable()

	now := time.Now().UTC().Truncate(24 * time.Hour)
	start := now.AddDate(0, 0, -365)
	if strings.TrimSpace(*from) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*from))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -from %q: %v\n", *from, err)
			os.Exit(1)
		}
		start = parsed
	}
	end := now
	if strings.TrimSpace(*to) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*to))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -to %q: %v\n", *to, err)
			os.Exit(1)
		}
		end = parsed
	}
	if end.Before(start) {
		fmt.Fprintln(os.Stderr, "-to must not be before -from")
		os.Exit(1)
	}

	fmt.Printf("Rebuilding daily_revenue_summaries from=%s to=%s\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	days, err := models.RebuildDailySummaries(ctx, start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backfill failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Backfill complete (%d days rebuilt)\n", days)
}
