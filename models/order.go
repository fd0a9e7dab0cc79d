package models

// OrderStatus is a free-form enumerated field: the workshop sets it by hand,
// so any status may move to any other status directly.
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusSewn       OrderStatus = "SEWN"
	StatusReady      OrderStatus = "READY"
	StatusCompleted  OrderStatus = "COMPLETED"
)

// ValidStatus reports whether s is one of the five known order states.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSewn, StatusReady, StatusCompleted:
		return true
	}
	return false
}

// Order is stored inside the orders JSON blob. TotalPrice is always
// ClothPrice + SewingFee. What is still owed on an order is never stored
// here: it is the sum of the transactions linked by OrderID.
type Order struct {
	ID          string      `json:"id"`
	CustomerID  string      `json:"customerId"`
	Description string      `json:"description"`
	Status      OrderStatus `json:"status"`
	DateCreated string      `json:"dateCreated"`
	DueDate     string      `json:"dueDate,omitempty"`
	TotalPrice  float64     `json:"totalPrice"`
	ClothPrice  float64     `json:"clothPrice,omitempty"`
	SewingFee   float64     `json:"sewingFee,omitempty"`
	Deposit     float64     `json:"deposit"`
	// StyleDetails carries free-text style notes keyed by measurement field
	// ("collar": "round"), independent of the numeric measurement.
	StyleDetails map[string]string `json:"styleDetails,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    int64             `json:"createdAt,omitempty"` // epoch millis
}
