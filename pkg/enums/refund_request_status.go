package enums

import "fmt"

// RefundRequestStatus tracks a buyer refund request.
type RefundRequestStatus string

const (
	RefundRequestStatusPending           RefundRequestStatus = "pending"
	RefundRequestStatusApproved          RefundRequestStatus = "approved"
	RefundRequestStatusRejected          RefundRequestStatus = "rejected"
	RefundRequestStatusRefunded          RefundRequestStatus = "refunded"
	RefundRequestStatusPartiallyRefunded RefundRequestStatus = "partially_refunded"
)

var validRefundRequestStatuses = []RefundRequestStatus{
	RefundRequestStatusPending,
	RefundRequestStatusApproved,
	RefundRequestStatusRejected,
	RefundRequestStatusRefunded,
	RefundRequestStatusPartiallyRefunded,
}

// String implements fmt.Stringer.
func (r RefundRequestStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RefundRequestStatus.
func (r RefundRequestStatus) IsValid() bool {
	for _, candidate := range validRefundRequestStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRefundRequestStatus converts raw input into a RefundRequestStatus.
func ParseRefundRequestStatus(value string) (RefundRequestStatus, error) {
	for _, candidate := range validRefundRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund request status %q", value)
}

// RetainedFeeRefundStatuses are the completed states whose fees the marketplace keeps.
var RetainedFeeRefundStatuses = []RefundRequestStatus{
	RefundRequestStatusRefunded,
	RefundRequestStatusPartiallyRefunded,
}
