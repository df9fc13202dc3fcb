package enums

import "testing"

func TestParsePayoutStatus(t *testing.T) {
	for _, raw := range []string{"processing", "completed", "cancelled"} {
		got, err := ParsePayoutStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got.String() != raw || !got.IsValid() {
			t.Fatalf("unexpected status %q", got)
		}
	}
	if _, err := ParsePayoutStatus("failed"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if PayoutStatusProcessing.IsTerminal() {
		t.Fatal("processing must not be terminal")
	}
	if !PayoutStatusCompleted.IsTerminal() || !PayoutStatusCancelled.IsTerminal() {
		t.Fatal("completed and cancelled must be terminal")
	}
}

func TestReportingStatusSets(t *testing.T) {
	for _, s := range ReportableOrderStatuses {
		if !s.IsValid() {
			t.Fatalf("invalid order status %q", s)
		}
	}
	for _, s := range RetainedFeeRefundStatuses {
		if !s.IsValid() {
			t.Fatalf("invalid refund status %q", s)
		}
	}
	for _, s := range VoidGiftCardStatuses {
		if s == GiftCardStatusActive || s == GiftCardStatusRedeemed {
			t.Fatalf("status %q must count as revenue", s)
		}
	}
}

func TestTaxStatusSeverity(t *testing.T) {
	if !(TaxStatusOverdue.Severity() > TaxStatusDueSoon.Severity() && TaxStatusDueSoon.Severity() > TaxStatusPending.Severity()) {
		t.Fatal("unexpected severity ordering")
	}
	if _, err := ParseTaxStatus("due_soon"); err != nil {
		t.Fatalf("parse due_soon: %v", err)
	}
}

func TestOutboxEnumsRoundTrip(t *testing.T) {
	for _, raw := range []string{"payout_created", "payout_completed", "payout_cancelled", "revenue_recorded"} {
		got, err := ParseOutboxEventType(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got.String() != raw || !got.IsValid() {
			t.Fatalf("unexpected event type %q", got)
		}
	}
	if _, err := ParseOutboxEventType("payout.created"); err == nil {
		t.Fatal("expected dotted event name to be rejected")
	}
	for _, raw := range []string{"payout", "organizer"} {
		got, err := ParseOutboxAggregateType(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got.String() != raw || !got.IsValid() {
			t.Fatalf("unexpected aggregate type %q", got)
		}
	}
}
