package models

// Transaction is stored inside the transactions JSON blob and is never
// mutated after creation. The sign convention is the single source of truth
// for all debt math: positive increases what the customer owes, negative
// records a payment. OrderID, when set, ties the row to one order's running
// debt.
type Transaction struct {
	ID          string  `json:"id"`
	CustomerID  string  `json:"customerId"`
	OrderID     string  `json:"orderId,omitempty"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	CreatedAt   int64   `json:"createdAt,omitempty"` // epoch millis
}
