package enums

import "fmt"

// TaxScope distinguishes country-wide rules from location-bound ones.
type TaxScope string

const (
	TaxScopeGeneral TaxScope = "general"
	TaxScopeLocal   TaxScope = "local"
)

var validTaxScopes = []TaxScope{
	TaxScopeGeneral,
	TaxScopeLocal,
}

// String implements fmt.Stringer.
func (t TaxScope) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaxScope.
func (t TaxScope) IsValid() bool {
	for _, candidate := range validTaxScopes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaxScope converts raw input into a TaxScope.
func ParseTaxScope(value string) (TaxScope, error) {
	for _, candidate := range validTaxScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tax scope %q", value)
}
