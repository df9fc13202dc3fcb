package env

import "testing"

func TestGetTrimsAndFallsBack(t *testing.T) {
	t.Setenv("TIXLEDGER_TEST_VALUE", "  json ")
	if got := Get("TIXLEDGER_TEST_VALUE", "x"); got != "json" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	t.Setenv("TIXLEDGER_TEST_VALUE", "   ")
	if got := Get("TIXLEDGER_TEST_VALUE", "x"); got != "x" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
}

func TestLookupPrefersPrefixed(t *testing.T) {
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("TIXLEDGER_LOG_FORMAT", "")
	if got := Lookup("LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("expected bare value, got %q", got)
	}
	t.Setenv("TIXLEDGER_LOG_FORMAT", "json")
	if got := Lookup("LOG_FORMAT", "console"); got != "json" {
		t.Fatalf("expected prefixed value, got %q", got)
	}
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("TIXLEDGER_LOG_FORMAT", "")
	if got := Lookup("LOG_FORMAT", "json"); got != "json" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
