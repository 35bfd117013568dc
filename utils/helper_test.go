package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{"payouts@acme-affiliates.example", "a.b+c@sub.domain.io"}
	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = false, want true", email)
		}
	}
	invalid := []string{"", "plainaddress", "@missing-local.org", "user@", "user@nodot"}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = true, want false", email)
		}
	}
}

func TestNilIfEmpty(t *testing.T) {
	if got := NilIfEmpty(""); got != nil {
		t.Errorf("empty string should map to nil, got %v", *got)
	}
	if got := NilIfEmpty("x"); got == nil || *got != "x" {
		t.Errorf("non-empty string should round-trip, got %v", got)
	}
	if got := NilIfEmpty(0); got != nil {
		t.Errorf("zero int should map to nil, got %v", *got)
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal(" 12.50 ")
	if err != nil {
		t.Fatalf("ParseDecimal error: %v", err)
	}
	if !d.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("expected 12.5, got %s", d)
	}
	if _, err := ParseDecimal(""); err == nil {
		t.Fatal("expected error for empty string")
	}
	if _, err := ParseDecimal("abc"); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
}

func TestGetLastDaysRange(t *testing.T) {
	from, to := GetLastDaysRange(30)
	if got := to.Sub(from); got < 29*24*time.Hour || got > 31*24*time.Hour {
		t.Fatalf("range length = %v, want about 30 days", got)
	}
	if to.Before(from) {
		t.Fatal("range end precedes start")
	}
}

func TestExecTemplate_ConditionalClauses(t *testing.T) {
	tmpl := `SELECT 1 {{- if .vertical }} AND vertical = @vertical {{- end }}`

	withFilter, err := ExecTemplate(tmpl, map[string]interface{}{"vertical": "beauty"})
	if err != nil {
		t.Fatalf("ExecTemplate error: %v", err)
	}
	if !strings.Contains(withFilter, "AND vertical = @vertical") {
		t.Fatalf("expected filter clause, got %q", withFilter)
	}

	withoutFilter, err := ExecTemplate(tmpl, map[string]interface{}{"vertical": ""})
	if err != nil {
		t.Fatalf("ExecTemplate error: %v", err)
	}
	if strings.Contains(withoutFilter, "vertical") {
		t.Fatalf("expected no filter clause, got %q", withoutFilter)
	}
}

func TestPreviousPeriod(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	prevStart, prevEnd := PreviousPeriod(start, end)
	if !prevEnd.Equal(start) {
		t.Fatalf("previous period must end where current starts, got %v", prevEnd)
	}
	if prevEnd.Sub(prevStart) != end.Sub(start) {
		t.Fatalf("previous period length %v differs from current %v",
			prevEnd.Sub(prevStart), end.Sub(start))
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]string{"US", "CA", "US", "GB", "CA"})
	expected := []string{"US", "CA", "GB"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}

func TestDereferencePtr(t *testing.T) {
	v := 7
	if got := DereferencePtr(&v); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := DereferencePtr[int](nil); got != 0 {
		t.Fatalf("expected zero value, got %d", got)
	}
	if got := DereferencePtr[string](nil, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
