package models

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/empirehq/revenue_backend/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// opens gorm over a sqlmock connection and installs it as the global DB
func newMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	previous := config.GetDB()
	config.SetDB(gormDB)
	return mock, func() {
		config.SetDB(previous)
		sqlDB.Close()
	}
}

// the name filter, the cursor predicate, the ordering and the limit+1 must all
// survive into the generated query
func TestPaginatePartnersQuery(t *testing.T) {
	mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `partners` WHERE partner_name LIKE \\? AND partner_code > \\? ORDER BY partner_code LIMIT \\?").
		WithArgs("%acme%", "ACME-AFF", 6).
		WillReturnRows(sqlmock.NewRows([]string{"id", "partner_code", "partner_name"}).
			AddRow(2, "ACME-EU", "Acme Europe").
			AddRow(3, "ACME-US", "Acme US"))

	limit := 5
	name := "acme"
	after := EncodeCursor("ACME-AFF")
	connection, err := PaginatePartners(context.Background(), &limit, &after, &name, nil)
	if err != nil {
		t.Fatalf("PaginatePartners: %v", err)
	}

	if len(connection.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(connection.Edges))
	}
	if connection.Edges[0].Node.PartnerCode != "ACME-EU" {
		t.Errorf("first node = %s, want ACME-EU", connection.Edges[0].Node.PartnerCode)
	}
	if connection.PageInfo.EndCursor != EncodeCursor("ACME-US") {
		t.Errorf("endCursor = %s, want cursor of ACME-US", connection.PageInfo.EndCursor)
	}
	if *connection.PageInfo.HasNextPage {
		t.Errorf("hasNextPage = true, want false for a short page")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPaginateSplitTransactionsQuery(t *testing.T) {
	mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `split_transactions` WHERE partner_id = \\? AND status = \\? AND \\(?transaction_date < \\? OR \\(transaction_date = \\? AND id < \\?\\)\\)? ORDER BY transaction_date DESC, id DESC LIMIT \\?").
		WithArgs(7, "pending", "2026-02-01 00:00:00", "2026-02-01 00:00:00", 42, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "partner_id"}).
			AddRow(41, "ORD-41", 7))

	limit := 3
	partnerId := 7
	status := SplitTransactionStatusPending
	after := EncodeCompositeCursor("2026-02-01 00:00:00", 42)
	connection, err := PaginateSplitTransactions(context.Background(), &limit, &after, &partnerId, &status)
	if err != nil {
		t.Fatalf("PaginateSplitTransactions: %v", err)
	}

	if len(connection.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(connection.Edges))
	}
	if connection.Edges[0].Node.OrderId != "ORD-41" {
		t.Errorf("first node = %s, want ORD-41", connection.Edges[0].Node.OrderId)
	}
	if *connection.PageInfo.HasNextPage {
		t.Errorf("hasNextPage = true, want false for a short page")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
