package workflow_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/empirehq/revenue_backend/config"
	"github.com/empirehq/revenue_backend/models"
	"github.com/empirehq/revenue_backend/utils"
	"github.com/empirehq/revenue_backend/workflow"
	"github.com/shopspring/decimal"
)

func TestProcessOrderRecordsSplitAndDeduplicates(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "revenue_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetCorrelationIdInContext(ctx, "workflow-test")

	rate := decimal.RequireFromString("10")
	partner, err := models.CreatePartner(ctx, &models.NewPartner{
		PartnerCode:           "WF-TEST",
		PartnerName:           "Workflow Test Partner",
		DefaultCommissionRate: &rate,
	})
	if err != nil {
		t.Fatalf("CreatePartner: %v", err)
	}

	order := &models.SplitOrderInput{
		OrderId:        "ORD-INT-1",
		PartnerId:      &partner.ID,
		OriginalAmount: decimal.RequireFromString("1000"),
		Currency:       "USD",
	}

	first, err := workflow.ProcessOrder(ctx, order)
	if err != nil {
		t.Fatalf("ProcessOrder: %v", err)
	}
	if !first.TotalSplitAmount.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("expected total split 100, got %s", first.TotalSplitAmount)
	}
	if !first.NetPayoutAmount.Equal(decimal.RequireFromString("95.1")) {
		t.Fatalf("expected net payout 95.1, got %s", first.NetPayoutAmount)
	}

	// resubmitting the same order must return the existing row, not a second split
	second, err := workflow.ProcessOrder(ctx, order)
	if err != nil {
		t.Fatalf("ProcessOrder duplicate: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("duplicate submission created a new row: first=%d second=%d", first.ID, second.ID)
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&models.SplitTransaction{}).
		Where("order_id = ? AND partner_id = ?", order.OrderId, partner.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one transaction, got %d", count)
	}

	// partner running totals reflect exactly one split
	refreshed, err := models.GetPartner(ctx, partner.ID)
	if err != nil {
		t.Fatalf("GetPartner: %v", err)
	}
	if !refreshed.LifetimeRevenue.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("expected lifetime revenue 1000, got %s", refreshed.LifetimeRevenue)
	}
	if !refreshed.PendingPayouts.Equal(decimal.RequireFromString("95.1")) {
		t.Fatalf("expected pending payouts 95.1, got %s", refreshed.PendingPayouts)
	}

	// the recorded event sits in the outbox for the dispatcher
	var events int64
	if err := db.WithContext(ctx).Model(&models.SplitEventRecord{}).
		Where("reference_id = ?", first.ID).Count(&events).Error; err != nil {
		t.Fatalf("count outbox rows: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected one outbox row, got %d", events)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("revenue-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("revenue-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=revenue_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
