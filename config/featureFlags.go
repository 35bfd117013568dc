package config

import (
	"os"
	"strings"
)

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y" || v == "on"
}

// AutoPayoutsEnabled gates the payout runner's unattended batch generation.
// Partners still opt in individually via their auto_payouts flag.
//
// Set via env:
// - AUTO_PAYOUTS_ENABLED=true
func AutoPayoutsEnabled() bool {
	return envBool("AUTO_PAYOUTS_ENABLED")
}

// ForecastPersistenceEnabled controls whether each forecast run is stored.
// Disable to run the engine as a pure read-side computation (load tests,
// backfills).
//
// Set via env:
// - FORECAST_PERSISTENCE_DISABLED=true  (persistence is ON by default)
func ForecastPersistenceEnabled() bool {
	return !envBool("FORECAST_PERSISTENCE_DISABLED")
}

// OutboxDispatcherEnabled controls the background publisher. Workers that
// only serve reads (analytics replicas) run with it off.
//
// Set via env:
// - OUTBOX_DISPATCHER_DISABLED=true  (dispatcher is ON by default)
func OutboxDispatcherEnabled() bool {
	return !envBool("OUTBOX_DISPATCHER_DISABLED")
}
