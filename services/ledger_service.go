package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"tailorbook-backend/models"
	"tailorbook-backend/storage"
)

// SettleEpsilon is the tolerance for treating a floating-point balance as
// settled. Deletion preconditions are defined against it.
const SettleEpsilon = 0.1

// LedgerService owns all mutations of the customer/order/transaction
// collections. Two rules keep the cached balances honest:
//
//  1. every mutation runs under one mutex, so read-modify-write sequences
//     never interleave, and
//  2. every multi-collection write goes through Store.SetMulti, so the
//     collections can not be torn apart by a failure between writes.
type LedgerService struct {
	store  storage.Store
	events *Dispatcher

	mu sync.Mutex
}

func NewLedgerService(store storage.Store, events *Dispatcher) *LedgerService {
	return &LedgerService{store: store, events: events}
}

func newID() string { return uuid.NewString() }

func displayDate() string { return time.Now().Format("2006-01-02") }

func epochMillis() int64 { return time.Now().UnixMilli() }

func settled(amount float64) bool { return math.Abs(amount) < SettleEpsilon }

// ─── Reads ───

func (s *LedgerService) Customers(ctx context.Context, p storage.Partition) ([]models.Customer, error) {
	return p.Customers(ctx, s.store)
}

func (s *LedgerService) Orders(ctx context.Context, p storage.Partition) ([]models.Order, error) {
	return p.Orders(ctx, s.store)
}

func (s *LedgerService) Transactions(ctx context.Context, p storage.Partition) ([]models.Transaction, error) {
	return p.Transactions(ctx, s.store)
}

// Customer returns one customer by id.
func (s *LedgerService) Customer(ctx context.Context, p storage.Partition, id string) (models.Customer, error) {
	return s.customerByID(ctx, p, id)
}

// OrdersForCustomer lists a customer's orders, newest first.
func (s *LedgerService) OrdersForCustomer(ctx context.Context, p storage.Partition, customerID string) ([]models.Order, error) {
	orders, err := p.Orders(ctx, s.store)
	if err != nil {
		return nil, err
	}
	out := []models.Order{}
	for i := len(orders) - 1; i >= 0; i-- {
		if orders[i].CustomerID == customerID {
			out = append(out, orders[i])
		}
	}
	return out, nil
}

// TransactionsForCustomer lists a customer's transactions, newest first.
func (s *LedgerService) TransactionsForCustomer(ctx context.Context, p storage.Partition, customerID string) ([]models.Transaction, error) {
	txs, err := p.Transactions(ctx, s.store)
	if err != nil {
		return nil, err
	}
	out := []models.Transaction{}
	for i := len(txs) - 1; i >= 0; i-- {
		if txs[i].CustomerID == customerID {
			out = append(out, txs[i])
		}
	}
	return out, nil
}

// OrderDebt is the amount still owed on one order: the fold of its linked
// transaction amounts. 0 = settled, >0 = customer owes, <0 = shop owes.
func (s *LedgerService) OrderDebt(ctx context.Context, p storage.Partition, orderID string) (float64, error) {
	txs, err := p.Transactions(ctx, s.store)
	if err != nil {
		return 0, err
	}
	return orderDebt(txs, orderID), nil
}

func orderDebt(txs []models.Transaction, orderID string) float64 {
	var debt float64
	for _, t := range txs {
		if t.OrderID == orderID {
			debt += t.Amount
		}
	}
	return debt
}

func balanceOf(txs []models.Transaction, customerID string) float64 {
	var sum float64
	for _, t := range txs {
		if t.CustomerID == customerID {
			sum += t.Amount
		}
	}
	return sum
}

// ─── Customer management ───

func (s *LedgerService) CreateCustomer(ctx context.Context, p storage.Partition, name, phone string, measurements models.Measurements, address, notes string) (models.Customer, error) {
	if name == "" {
		return models.Customer{}, validationf("customer name is required")
	}
	if phone == "" {
		return models.Customer{}, validationf("customer phone is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := p.Customers(ctx, s.store)
	if err != nil {
		return models.Customer{}, err
	}

	maxCode := 0
	for _, c := range customers {
		if c.Code > maxCode {
			maxCode = c.Code
		}
	}

	if measurements == nil {
		measurements = models.Measurements{}
	}
	customer := models.Customer{
		ID:           newID(),
		Code:         maxCode + 1,
		Name:         name,
		Phone:        phone,
		Address:      address,
		Notes:        notes,
		Measurements: measurements,
		Balance:      0,
		CreatedAt:    epochMillis(),
	}
	customers = append(customers, customer)
	if err := s.store.Set(ctx, p.CustomersKey(), customers); err != nil {
		return models.Customer{}, err
	}
	return customer, nil
}

// CustomerUpdate carries the editable fields; nil means "leave unchanged".
// Balance and code are system-managed and can not be set through here.
type CustomerUpdate struct {
	Name         *string
	Phone        *string
	Address      *string
	Notes        *string
	Measurements *models.Measurements
}

func (s *LedgerService) UpdateCustomer(ctx context.Context, p storage.Partition, id string, update CustomerUpdate) (models.Customer, error) {
	if update.Name != nil && *update.Name == "" {
		return models.Customer{}, validationf("customer name is required")
	}
	if update.Phone != nil && *update.Phone == "" {
		return models.Customer{}, validationf("customer phone is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := p.Customers(ctx, s.store)
	if err != nil {
		return models.Customer{}, err
	}
	for i := range customers {
		if customers[i].ID != id {
			continue
		}
		if update.Name != nil {
			customers[i].Name = *update.Name
		}
		if update.Phone != nil {
			customers[i].Phone = *update.Phone
		}
		if update.Address != nil {
			customers[i].Address = *update.Address
		}
		if update.Notes != nil {
			customers[i].Notes = *update.Notes
		}
		if update.Measurements != nil {
			customers[i].Measurements = *update.Measurements
		}
		if err := s.store.Set(ctx, p.CustomersKey(), customers); err != nil {
			return models.Customer{}, err
		}
		return customers[i], nil
	}
	return models.Customer{}, ErrCustomerNotFound
}

func (s *LedgerService) DeleteCustomer(ctx context.Context, p storage.Partition, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := p.Customers(ctx, s.store)
	if err != nil {
		return err
	}
	idx := -1
	for i, c := range customers {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrCustomerNotFound
	}

	orders, err := p.Orders(ctx, s.store)
	if err != nil {
		return err
	}
	for _, o := range orders {
		if o.CustomerID == id {
			return preconditionf("cannot delete: customer still has open orders")
		}
	}
	if !settled(customers[idx].Balance) {
		return preconditionf("cannot delete: customer has an unsettled balance of %.2f", customers[idx].Balance)
	}

	customers = append(customers[:idx], customers[idx+1:]...)
	return s.store.Set(ctx, p.CustomersKey(), customers)
}

// EnsureCustomerCodes backfills missing subscription codes for customers
// created before the field existed. It scans the full set once, tracking the
// running maximum, and assigns max+1 in encounter order — a single atomic
// pass over the complete collection, run at startup before any other writer.
func (s *LedgerService) EnsureCustomerCodes(ctx context.Context, p storage.Partition) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := p.Customers(ctx, s.store)
	if err != nil {
		return 0, err
	}
	maxCode := 0
	for _, c := range customers {
		if c.Code > maxCode {
			maxCode = c.Code
		}
	}
	assigned := 0
	for i := range customers {
		if customers[i].Code == 0 {
			maxCode++
			customers[i].Code = maxCode
			assigned++
		}
	}
	if assigned == 0 {
		return 0, nil
	}
	if err := s.store.Set(ctx, p.CustomersKey(), customers); err != nil {
		return 0, err
	}
	return assigned, nil
}

// ─── Orders & settlement ───

// OrderInput is the creation form for an order. TotalPrice is derived:
// cloth price + sewing fee.
type OrderInput struct {
	CustomerID   string
	Description  string
	ClothPrice   float64
	SewingFee    float64
	Deposit      float64
	DueDate      string
	StyleDetails map[string]string
	Notes        string
}

// CreateOrder creates the order plus exactly one linked remainder
// transaction (amount = total - deposit, zero included), and moves the
// owner's balance by the same remainder. All three collections are written
// as one atomic unit.
func (s *LedgerService) CreateOrder(ctx context.Context, p storage.Partition, input OrderInput) (models.Order, error) {
	if input.ClothPrice < 0 || input.SewingFee < 0 || input.Deposit < 0 {
		return models.Order{}, validationf("prices cannot be negative")
	}
	total := input.ClothPrice + input.SewingFee
	if input.Deposit > total {
		return models.Order{}, validationf("deposit %.2f exceeds the order total %.2f", input.Deposit, total)
	}
	// Due dates are compared lexically by the reminder sweep, so only the
	// ISO form is accepted.
	if input.DueDate != "" {
		if _, err := time.Parse("2006-01-02", input.DueDate); err != nil {
			return models.Order{}, validationf("due date must be in YYYY-MM-DD format")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := p.Customers(ctx, s.store)
	if err != nil {
		return models.Order{}, err
	}
	custIdx := -1
	for i, c := range customers {
		if c.ID == input.CustomerID {
			custIdx = i
			break
		}
	}
	if custIdx == -1 {
		return models.Order{}, ErrCustomerNotFound
	}

	orders, err := p.Orders(ctx, s.store)
	if err != nil {
		return models.Order{}, err
	}
	txs, err := p.Transactions(ctx, s.store)
	if err != nil {
		return models.Order{}, err
	}

	description := input.Description
	if description == "" {
		description = "untitled"
	}
	remaining := total - input.Deposit

	order := models.Order{
		ID:           newID(),
		CustomerID:   input.CustomerID,
		Description:  description,
		Status:       models.StatusPending,
		DateCreated:  displayDate(),
		DueDate:      input.DueDate,
		TotalPrice:   total,
		ClothPrice:   input.ClothPrice,
		SewingFee:    input.SewingFee,
		Deposit:      input.Deposit,
		StyleDetails: input.StyleDetails,
		Notes:        input.Notes,
		CreatedAt:    epochMillis(),
	}
	// The remainder transaction is created even when it is zero, so every
	// order has a linked row for settlement tracking.
	tx := models.Transaction{
		ID:          newID(),
		CustomerID:  input.CustomerID,
		OrderID:     order.ID,
		Amount:      remaining,
		Date:        displayDate(),
		Description: fmt.Sprintf("remainder of order %s", description),
		CreatedAt:   epochMillis(),
	}

	orders = append(orders, order)
	txs = append(txs, tx)
	customers[custIdx].Balance += remaining

	err = s.store.SetMulti(ctx, map[string]any{
		p.OrdersKey():       orders,
		p.TransactionsKey(): txs,
		p.CustomersKey():    customers,
	})
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// AddPayment records a partial or remainder payment toward an order.
func (s *LedgerService) AddPayment(ctx context.Context, p storage.Partition, orderID string, amount float64) (models.Transaction, error) {
	if amount <= 0 {
		return models.Transaction{}, validationf("payment amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := p.Orders(ctx, s.store)
	if err != nil {
		return models.Transaction{}, err
	}
	var order *models.Order
	for i := range orders {
		if orders[i].ID == orderID {
			order = &orders[i]
			break
		}
	}
	if order == nil {
		return models.Transaction{}, ErrOrderNotFound
	}

	customers, err := p.Customers(ctx, s.store)
	if err != nil {
		return models.Transaction{}, err
	}
	custIdx := -1
	for i, c := range customers {
		if c.ID == order.CustomerID {
			custIdx = i
			break
		}
	}
	if custIdx == -1 {
		return models.Transaction{}, ErrCustomerNotFound
	}

	txs, err := p.Transactions(ctx, s.store)
	if err != nil {
		return models.Transaction{}, err
	}

	tx := models.Transaction{
		ID:          newID(),
		CustomerID:  order.CustomerID,
		OrderID:     orderID,
		Amount:      -amount,
		Date:        displayDate(),
		Description: fmt.Sprintf("payment toward order %s", order.Description),
		CreatedAt:   epochMillis(),
	}
	txs = append(txs, tx)
	customers[custIdx].Balance -= amount

	err = s.store.SetMulti(ctx, map[string]any{
		p.TransactionsKey(): txs,
		p.CustomersKey():    customers,
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// AddTransaction records a free-form debt (positive) or payment (negative)
// not tied to any order — the accounting view's manual entries.
func (s *LedgerService) AddTransaction(ctx context.Context, p storage.Partition, customerID string, amount float64, description string) (models.Transaction, error) {
	if amount == 0 {
		return models.Transaction{}, validationf("transaction amount cannot be zero")
	}
	if description == "" {
		return models.Transaction{}, validationf("transaction description is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := p.Customers(ctx, s.store)
	if err != nil {
		return models.Transaction{}, err
	}
	custIdx := -1
	for i, c := range customers {
		if c.ID == customerID {
			custIdx = i
			break
		}
	}
	if custIdx == -1 {
		return models.Transaction{}, ErrCustomerNotFound
	}

	txs, err := p.Transactions(ctx, s.store)
	if err != nil {
		return models.Transaction{}, err
	}

	tx := models.Transaction{
		ID:          newID(),
		CustomerID:  customerID,
		Amount:      amount,
		Date:        displayDate(),
		Description: description,
		CreatedAt:   epochMillis(),
	}
	txs = append(txs, tx)
	customers[custIdx].Balance += amount

	err = s.store.SetMulti(ctx, map[string]any{
		p.TransactionsKey(): txs,
		p.CustomersKey():    customers,
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// UpdateOrderStatus sets the order's status. Statuses are a free choice, not
// an enforced pipeline. Entering READY fires the order-ready event for the
// external messaging dispatcher; the core performs no I/O itself. The event
// is fired only after the mutation lock is released: listeners may block on
// network calls, and a held mutex would stall every other ledger mutation for
// the duration.
func (s *LedgerService) UpdateOrderStatus(ctx context.Context, p storage.Partition, orderID string, status models.OrderStatus) (models.Order, error) {
	if !models.ValidStatus(status) {
		return models.Order{}, validationf("unknown order status %q", status)
	}

	order, ready, err := s.setOrderStatus(ctx, p, orderID, status)
	if err != nil {
		return models.Order{}, err
	}
	if ready != nil && s.events != nil {
		s.events.Fire(EventOrderReady, *ready)
	}
	return order, nil
}

// setOrderStatus performs the locked mutation and, when the order just
// entered READY, captures the event payload to fire after unlock.
func (s *LedgerService) setOrderStatus(ctx context.Context, p storage.Partition, orderID string, status models.OrderStatus) (models.Order, *OrderReadyEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := p.Orders(ctx, s.store)
	if err != nil {
		return models.Order{}, nil, err
	}
	idx := -1
	for i := range orders {
		if orders[i].ID == orderID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Order{}, nil, ErrOrderNotFound
	}

	becameReady := status == models.StatusReady && orders[idx].Status != models.StatusReady
	orders[idx].Status = status
	if err := s.store.Set(ctx, p.OrdersKey(), orders); err != nil {
		return models.Order{}, nil, err
	}

	var ready *OrderReadyEvent
	if becameReady {
		customer, err := s.customerByID(ctx, p, orders[idx].CustomerID)
		if err == nil {
			ready = &OrderReadyEvent{
				CustomerID:       customer.ID,
				CustomerName:     customer.Name,
				CustomerPhone:    customer.Phone,
				OrderID:          orders[idx].ID,
				OrderDescription: orders[idx].Description,
				ShopName:         s.shopName(ctx),
			}
		}
	}
	return orders[idx], ready, nil
}

// DeleteOrder removes a fully settled order and cascades its linked
// transactions. The precondition guarantees the cascade nets to ~0, but the
// owner's balance is recomputed from the surviving rows rather than trusted.
func (s *LedgerService) DeleteOrder(ctx context.Context, p storage.Partition, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := p.Orders(ctx, s.store)
	if err != nil {
		return err
	}
	idx := -1
	for i := range orders {
		if orders[i].ID == orderID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrOrderNotFound
	}
	customerID := orders[idx].CustomerID

	txs, err := p.Transactions(ctx, s.store)
	if err != nil {
		return err
	}
	if debt := orderDebt(txs, orderID); !settled(debt) {
		return preconditionf("cannot delete: this order has an unsettled balance of %.2f", debt)
	}

	orders = append(orders[:idx], orders[idx+1:]...)
	kept := txs[:0:0]
	for _, t := range txs {
		if t.OrderID != orderID {
			kept = append(kept, t)
		}
	}
	if kept == nil {
		kept = []models.Transaction{}
	}

	pending := map[string]any{
		p.OrdersKey():       orders,
		p.TransactionsKey(): kept,
	}

	customers, err := p.Customers(ctx, s.store)
	if err != nil {
		return err
	}
	for i := range customers {
		if customers[i].ID == customerID {
			customers[i].Balance = balanceOf(kept, customerID)
			pending[p.CustomersKey()] = customers
			break
		}
	}

	return s.store.SetMulti(ctx, pending)
}

// ─── Consistency ───

// BalanceDiscrepancy reports one customer whose cached balance drifted from
// the fold of their transactions.
type BalanceDiscrepancy struct {
	CustomerID string  `json:"customerId"`
	Code       int     `json:"code,omitempty"`
	Cached     float64 `json:"cached"`
	Computed   float64 `json:"computed"`
}

// RecomputeBalances recomputes every cached balance from the transaction
// collection, rewrites the cache, and returns the discrepancies it found.
// Used by tests and after a backup restore.
func (s *LedgerService) RecomputeBalances(ctx context.Context, p storage.Partition) ([]BalanceDiscrepancy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := p.Customers(ctx, s.store)
	if err != nil {
		return nil, err
	}
	txs, err := p.Transactions(ctx, s.store)
	if err != nil {
		return nil, err
	}

	var drift []BalanceDiscrepancy
	for i := range customers {
		computed := balanceOf(txs, customers[i].ID)
		if !settled(computed - customers[i].Balance) {
			drift = append(drift, BalanceDiscrepancy{
				CustomerID: customers[i].ID,
				Code:       customers[i].Code,
				Cached:     customers[i].Balance,
				Computed:   computed,
			})
		}
		customers[i].Balance = computed
	}
	if len(drift) == 0 {
		return nil, nil
	}
	if err := s.store.Set(ctx, p.CustomersKey(), customers); err != nil {
		return nil, err
	}
	return drift, nil
}

// ─── internals ───

func (s *LedgerService) customerByID(ctx context.Context, p storage.Partition, id string) (models.Customer, error) {
	customers, err := p.Customers(ctx, s.store)
	if err != nil {
		return models.Customer{}, err
	}
	for _, c := range customers {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Customer{}, ErrCustomerNotFound
}

func (s *LedgerService) shopName(ctx context.Context) string {
	var info models.ShopInfo
	if _, err := storage.GetJSON(ctx, s.store, storage.KeyShopInfo, &info); err != nil {
		return ""
	}
	return info.Name
}
