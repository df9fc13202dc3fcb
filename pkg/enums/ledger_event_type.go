package enums

import "fmt"

// LedgerEventType maps to the ledger_event_type enum in Postgres.
type LedgerEventType string

const (
	LedgerEventTypeRevenueRecorded     LedgerEventType = "revenue_recorded"
	LedgerEventTypePayoutReserved      LedgerEventType = "payout_reserved"
	LedgerEventTypeReservationReleased LedgerEventType = "reservation_released"
	LedgerEventTypePayoutCompleted     LedgerEventType = "payout_completed"
)

var validLedgerEventTypes = []LedgerEventType{
	LedgerEventTypeRevenueRecorded,
	LedgerEventTypePayoutReserved,
	LedgerEventTypeReservationReleased,
	LedgerEventTypePayoutCompleted,
}

// String implements fmt.Stringer.
func (l LedgerEventType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LedgerEventType.
func (l LedgerEventType) IsValid() bool {
	for _, candidate := range validLedgerEventTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLedgerEventType converts raw input into a LedgerEventType.
func ParseLedgerEventType(value string) (LedgerEventType, error) {
	for _, candidate := range validLedgerEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger event type %q", value)
}
