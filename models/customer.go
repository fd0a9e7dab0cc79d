package models

// Measurements maps a measurement field key (see MeasurementLabels) to its
// numeric value. A zero value means "not set" for display purposes.
type Measurements map[string]float64

// Customer is stored inside the customers JSON blob, not as its own table.
// Balance is a cached derived value: it must always equal the sum of this
// customer's transaction amounts. Positive = customer owes the shop.
type Customer struct {
	ID           string       `json:"id"`
	Code         int          `json:"code,omitempty"`
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	Address      string       `json:"address,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	Measurements Measurements `json:"measurements"`
	Balance      float64      `json:"balance"`
	CreatedAt    int64        `json:"createdAt,omitempty"` // epoch millis
}
