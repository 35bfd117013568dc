package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/forecast"
	"github.com/empirehq/revenue_backend/middlewares"
	"github.com/empirehq/revenue_backend/models"
	"github.com/empirehq/revenue_backend/models/reports"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/empirehq/revenue_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultPort = "8080"

func respondError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, workflow.ErrIdempotencyInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrPartnerInactive), errors.Is(err, workflow.ErrNoPartnerReference):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &validationErrors):
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
	case errors.As(err, &syntaxError), errors.As(err, &typeError), errors.Is(err, io.EOF):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) *int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return &n
		}
	}
	return nil
}

func queryString(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

func queryLimit(c *gin.Context) *int {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return &limit
}

func queryAfter(c *gin.Context) *string {
	if v := c.Query("after"); v != "" {
		return &v
	}
	return nil
}

func queryDateRange(c *gin.Context) (time.Time, time.Time, error) {
	from, to := utils.GetThisMonthRange()
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return from, to, errors.New("days must be a positive integer")
		}
		from, to = utils.GetLastDaysRange(n)
	}
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, errors.New("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, errors.New("to must be YYYY-MM-DD")
		}
		to = parsed.Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	}
	return from, to, nil
}

/* partners */

func createPartnerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPartner
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		partner, err := models.CreatePartner(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, partner)
	}
}

func updatePartnerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewPartner
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		partner, err := models.UpdatePartner(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, partner)
	}
}

func getPartnerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		partner, err := models.GetPartner(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, partner)
	}
}

func paginatePartnersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var partnerType *models.PartnerType
		if v := c.Query("partner_type"); v != "" {
			t := models.PartnerType(v)
			partnerType = &t
		}
		connection, err := models.PaginatePartners(c.Request.Context(),
			queryLimit(c), queryAfter(c), queryString(c, "name"), partnerType)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, connection)
	}
}

func togglePartnerActiveHandler(isActive bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		partner, err := models.TogglePartnerActive(c.Request.Context(), id, isActive)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, partner)
	}
}

/* split rules */

func createSplitRuleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSplitRule
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		rule, err := models.CreateSplitRule(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rule)
	}
}

func updateSplitRuleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewSplitRule
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		rule, err := models.UpdateSplitRule(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rule)
	}
}

func deleteSplitRuleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		rule, err := models.DeleteSplitRule(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rule)
	}
}

func getSplitRuleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		rule, err := models.GetSplitRule(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rule)
	}
}

func partnerSplitRulesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		rules, err := models.GetSplitRulesByPartner(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rules)
	}
}

/* transactions */

func processTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.SplitOrderInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		transaction, err := workflow.ProcessOrder(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, transaction)
	}
}

func getTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		transaction, err := models.GetSplitTransaction(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	}
}

func orderTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderId := c.Param("orderId")
		transactions, err := models.GetSplitTransactionsByOrder(c.Request.Context(), orderId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transactions)
	}
}

func paginateTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *models.SplitTransactionStatus
		if v := c.Query("status"); v != "" {
			s := models.SplitTransactionStatus(v)
			status = &s
		}
		connection, err := models.PaginateSplitTransactions(c.Request.Context(),
			queryLimit(c), queryAfter(c), queryInt(c, "partner_id"), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, connection)
	}
}

func disputeTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		transaction, err := models.DisputeSplitTransaction(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	}
}

/* payouts */

type payoutBatchRequest struct {
	PartnerId   int       `json:"partner_id" binding:"required"`
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
}

func generatePayoutBatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input payoutBatchRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		batch, err := workflow.GeneratePayoutBatch(c.Request.Context(),
			input.PartnerId, input.PeriodStart, input.PeriodEnd)
		if err != nil {
			respondError(c, err)
			return
		}
		if batch == nil {
			c.JSON(http.StatusOK, gin.H{"batch": nil, "reason": "nothing to pay out"})
			return
		}
		c.JSON(http.StatusCreated, batch)
	}
}

func runPayoutsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		batches, err := workflow.RunScheduledPayouts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"batches": batches, "count": len(batches)})
	}
}

func getPayoutBatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		batch, err := models.GetPayoutBatch(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		transactions, err := models.BatchTransactions(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"batch": batch, "transactions": transactions})
	}
}

func paginatePayoutBatchesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *models.PayoutBatchStatus
		if v := c.Query("status"); v != "" {
			s := models.PayoutBatchStatus(v)
			status = &s
		}
		connection, err := models.PaginatePayoutBatches(c.Request.Context(),
			queryLimit(c), queryAfter(c), queryInt(c, "partner_id"), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, connection)
	}
}

func approvePayoutBatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		batch, err := workflow.ApprovePayoutBatch(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, batch)
	}
}

func markPayoutBatchPaidHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		batch, err := workflow.MarkPayoutBatchPaid(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, batch)
	}
}

func markPayoutBatchFailedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input struct {
			Reason string `json:"reason" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		batch, err := workflow.MarkPayoutBatchFailed(c.Request.Context(), id, input.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, batch)
	}
}

/* analytics */

func revenueAnalyticsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := queryDateRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		report, err := reports.GetRevenueAnalyticsReport(c.Request.Context(),
			from, to, queryString(c, "vertical"), queryInt(c, "partner_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func exportRevenueAnalyticsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := queryDateRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		url, err := reports.ExportRevenueAnalyticsExcel(c.Request.Context(),
			from, to, queryString(c, "vertical"), queryInt(c, "partner_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}

func dailyRevenueHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := queryDateRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		summaries, err := models.DailySummariesInRange(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"summaries": summaries})
	}
}

/* forecasts */

func generateForecastHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req forecast.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, err)
			return
		}
		result, err := forecast.Generate(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		if result == nil {
			c.JSON(http.StatusOK, gin.H{"forecast": nil, "reason": "no historical revenue in scope"})
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func getForecastHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		result, err := models.GetForecast(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func paginateForecastsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		connection, err := models.PaginateForecasts(c.Request.Context(),
			queryLimit(c), queryAfter(c), queryInt(c, "partner_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, connection)
	}
}

func listForecastModelsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		forecastModels, err := models.ListForecastModels(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, forecastModels)
	}
}

func simulateForecastHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req forecast.SimulationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, err)
			return
		}
		result, err := forecast.Simulate(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

/* ops */

func outboxReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if isAdmin, ok := utils.GetIsAdminFromContext(ctx); !ok || !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		var input struct {
			Ids []int `json:"ids"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		requeued, err := workflow.RequeueDeadOutbox(ctx, input.Ids)
		if err != nil {
			respondError(c, err)
			return
		}

		// audit trail for manual replays
		fields := map[string]interface{}{"ids": input.Ids, "requeued": requeued}
		if userId, ok := utils.GetUserIdFromContext(ctx); ok {
			fields["user_id"] = userId
		}
		if userName, ok := utils.GetUserNameFromContext(ctx); ok {
			fields["user_name"] = userName
		}
		config.LogInfo(config.GetLogger(), "server", "outboxReplayHandler", "dead outbox replayed", fields)

		c.JSON(http.StatusOK, gin.H{"requeued": requeued})
	}
}

func registerRoutes(r *gin.Engine) {
	r.POST("/partners", createPartnerHandler())
	r.GET("/partners", paginatePartnersHandler())
	r.GET("/partners/:id", getPartnerHandler())
	r.PUT("/partners/:id", updatePartnerHandler())
	r.POST("/partners/:id/activate", togglePartnerActiveHandler(true))
	r.POST("/partners/:id/deactivate", togglePartnerActiveHandler(false))
	r.GET("/partners/:id/split-rules", partnerSplitRulesHandler())

	r.POST("/split-rules", createSplitRuleHandler())
	r.GET("/split-rules/:id", getSplitRuleHandler())
	r.PUT("/split-rules/:id", updateSplitRuleHandler())
	r.DELETE("/split-rules/:id", deleteSplitRuleHandler())

	r.POST("/transactions/process", processTransactionHandler())
	r.GET("/transactions", paginateTransactionsHandler())
	r.GET("/transactions/:id", getTransactionHandler())
	r.POST("/transactions/:id/dispute", disputeTransactionHandler())
	r.GET("/orders/:orderId/transactions", orderTransactionsHandler())

	r.POST("/payout-batches", generatePayoutBatchHandler())
	r.POST("/payout-batches/run", runPayoutsHandler())
	r.GET("/payout-batches", paginatePayoutBatchesHandler())
	r.GET("/payout-batches/:id", getPayoutBatchHandler())
	r.POST("/payout-batches/:id/approve", approvePayoutBatchHandler())
	r.POST("/payout-batches/:id/paid", markPayoutBatchPaidHandler())
	r.POST("/payout-batches/:id/failed", markPayoutBatchFailedHandler())

	r.GET("/reports/revenue-analytics", revenueAnalyticsHandler())
	r.POST("/reports/revenue-analytics/export", exportRevenueAnalyticsHandler())
	r.GET("/reports/daily-revenue", dailyRevenueHandler())

	r.GET("/forecast-models", listForecastModelsHandler())
	r.POST("/forecasts", generateForecastHandler())
	r.GET("/forecasts", paginateForecastsHandler())
	r.GET("/forecasts/:id", getForecastHandler())
	r.POST("/forecasts/simulate", simulateForecastHandler())

	// Ops tooling (admin only): replay outbox messages that were marked DEAD/FAILED.
	ops := r.Group("/internal/ops", middlewares.OpsAuthMiddleware())
	ops.POST("/outbox/replay", outboxReplayHandler())
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	r.Use(middlewares.RequestContextMiddleware())
	r.Use(middlewares.ReadinessGateMiddleware())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Start outbox dispatcher (publishes AFTER commit).
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	if config.OutboxDispatcherEnabled() {
		go workflow.NewOutboxDispatcher(db, logger).Run(dispatcherCtx)
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<minInt(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelDispatcher()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
