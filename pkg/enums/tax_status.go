package enums

import "fmt"

// TaxStatus classifies a tax liability by its filing deadline.
type TaxStatus string

const (
	TaxStatusPending TaxStatus = "pending"
	TaxStatusDueSoon TaxStatus = "due_soon"
	TaxStatusOverdue TaxStatus = "overdue"
)

var validTaxStatuses = []TaxStatus{
	TaxStatusPending,
	TaxStatusDueSoon,
	TaxStatusOverdue,
}

// String implements fmt.Stringer.
func (t TaxStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaxStatus.
func (t TaxStatus) IsValid() bool {
	for _, candidate := range validTaxStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaxStatus converts raw input into a TaxStatus.
func ParseTaxStatus(value string) (TaxStatus, error) {
	for _, candidate := range validTaxStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tax status %q", value)
}

// Severity orders statuses by urgency.
func (t TaxStatus) Severity() int {
	switch t {
	case TaxStatusOverdue:
		return 2
	case TaxStatusDueSoon:
		return 1
	default:
		return 0
	}
}
