package models

import "testing"

func TestCursorRoundTrip(t *testing.T) {
	encoded := EncodeCursor("ACME-AFF")

	decoded, err := DecodeCursor(&encoded)
	if err != nil {
		t.Fatalf("DecodeCursor error: %v", err)
	}
	if decoded != "ACME-AFF" {
		t.Fatalf("expected ACME-AFF, got %q", decoded)
	}
}

func TestDecodeCursor_NilMeansFirstPage(t *testing.T) {
	decoded, err := DecodeCursor(nil)
	if err != nil {
		t.Fatalf("DecodeCursor(nil) error: %v", err)
	}
	if decoded != "" {
		t.Fatalf("expected empty cursor, got %q", decoded)
	}
}

func TestDecodeCursor_RejectsBadBase64(t *testing.T) {
	bad := "not-base64!!"
	if _, err := DecodeCursor(&bad); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestCompositeCursorRoundTrip(t *testing.T) {
	encoded := EncodeCompositeCursor("2026-08-01 10:30:00", 42)

	value, id := DecodeCompositeCursor(&encoded)
	if value != "2026-08-01 10:30:00" || id != 42 {
		t.Fatalf("expected (2026-08-01 10:30:00, 42), got (%q, %d)", value, id)
	}
}

func TestDecodeCompositeCursor_Malformed(t *testing.T) {
	cases := []struct {
		name   string
		cursor *string
	}{
		{"nil cursor", nil},
		{"empty cursor", strPointer("")},
		{"invalid base64", strPointer("%%%")},
		{"missing separator", strPointer(EncodeCursor("no-separator"))},
		{"non-numeric id", strPointer(EncodeCursor("value|abc"))},
	}
	for _, tc := range cases {
		value, id := DecodeCompositeCursor(tc.cursor)
		if value != "" || id != 0 {
			t.Errorf("%s: expected zero values, got (%q, %d)", tc.name, value, id)
		}
	}
}

func strPointer(s string) *string { return &s }
