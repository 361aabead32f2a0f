package types

import (
	"database/sql/driver"
	"encoding/json"
)

// DeliveryDetails captures the handover selection for an order. Airport
// deliveries fill the terminal fields, home deliveries the address fields.
type DeliveryDetails struct {
	Terminal *string `json:"terminal,omitempty"`
	Gate     *string `json:"gate,omitempty"`
	Lounge   *string `json:"lounge,omitempty"`

	Address       *string `json:"address,omitempty"`
	City          *string `json:"city,omitempty"`
	Pincode       *string `json:"pincode,omitempty"`
	ContactNumber *string `json:"contact_number,omitempty"`
}

// Value serializes the delivery details to JSON.
func (d *DeliveryDetails) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan decodes JSONB into the delivery details struct.
func (d *DeliveryDetails) Scan(value interface{}) error {
	if value == nil {
		*d = DeliveryDetails{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, d)
}
