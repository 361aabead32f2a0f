package enums

import "fmt"

// DeliveryType selects where an order is handed over to the customer.
type DeliveryType string

const (
	DeliveryTypeHome    DeliveryType = "home"
	DeliveryTypeAirport DeliveryType = "airport"
)

var validDeliveryTypes = []DeliveryType{
	DeliveryTypeHome,
	DeliveryTypeAirport,
}

// String implements fmt.Stringer.
func (d DeliveryType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryType.
func (d DeliveryType) IsValid() bool {
	for _, candidate := range validDeliveryTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryType converts raw input into a DeliveryType.
func ParseDeliveryType(value string) (DeliveryType, error) {
	for _, candidate := range validDeliveryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery type %q", value)
}
