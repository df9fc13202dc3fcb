package enums

import "fmt"

// OrganizerStatus tracks organizer onboarding state.
type OrganizerStatus string

const (
	OrganizerStatusPending   OrganizerStatus = "pending"
	OrganizerStatusActive    OrganizerStatus = "active"
	OrganizerStatusSuspended OrganizerStatus = "suspended"
)

var validOrganizerStatuses = []OrganizerStatus{
	OrganizerStatusPending,
	OrganizerStatusActive,
	OrganizerStatusSuspended,
}

// String implements fmt.Stringer.
func (o OrganizerStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrganizerStatus.
func (o OrganizerStatus) IsValid() bool {
	for _, candidate := range validOrganizerStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrganizerStatus converts raw input into a OrganizerStatus.
func ParseOrganizerStatus(value string) (OrganizerStatus, error) {
	for _, candidate := range validOrganizerStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid organizer status %q", value)
}
