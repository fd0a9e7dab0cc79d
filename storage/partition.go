package storage

import (
	"context"

	"tailorbook-backend/models"
)

// Partition names one of the two fully isolated data sets. The simple mode
// (traditional quick orders) and the professional mode never share IDs or
// cross-reference each other.
type Partition string

const (
	Professional Partition = "professional"
	Simple       Partition = "simple"
)

// ParsePartition maps the mode query value to a partition,
// defaulting to professional.
func ParsePartition(mode string) Partition {
	if mode == string(Simple) {
		return Simple
	}
	return Professional
}

func (p Partition) prefix() string {
	if p == Simple {
		return "simple_"
	}
	return ""
}

func (p Partition) CustomersKey() string    { return p.prefix() + KeyCustomers }
func (p Partition) OrdersKey() string       { return p.prefix() + KeyOrders }
func (p Partition) TransactionsKey() string { return p.prefix() + KeyTransactions }

// Customers loads the partition's customer collection, empty when unset.
func (p Partition) Customers(ctx context.Context, s Store) ([]models.Customer, error) {
	var out []models.Customer
	if _, err := GetJSON(ctx, s, p.CustomersKey(), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Customer{}
	}
	return out, nil
}

// Orders loads the partition's order collection, empty when unset.
func (p Partition) Orders(ctx context.Context, s Store) ([]models.Order, error) {
	var out []models.Order
	if _, err := GetJSON(ctx, s, p.OrdersKey(), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Order{}
	}
	return out, nil
}

// Transactions loads the partition's transaction collection, empty when unset.
func (p Partition) Transactions(ctx context.Context, s Store) ([]models.Transaction, error) {
	var out []models.Transaction
	if _, err := GetJSON(ctx, s, p.TransactionsKey(), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Transaction{}
	}
	return out, nil
}
