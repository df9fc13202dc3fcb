package enums

import "fmt"

// TaxRateType controls how a rule rate is applied.
type TaxRateType string

const (
	TaxRateTypePercent TaxRateType = "percent"
	TaxRateTypeFixed   TaxRateType = "fixed"
)

var validTaxRateTypes = []TaxRateType{
	TaxRateTypePercent,
	TaxRateTypeFixed,
}

// String implements fmt.Stringer.
func (t TaxRateType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaxRateType.
func (t TaxRateType) IsValid() bool {
	for _, candidate := range validTaxRateTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaxRateType converts raw input into a TaxRateType.
func ParseTaxRateType(value string) (TaxRateType, error) {
	for _, candidate := range validTaxRateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tax rate type %q", value)
}
