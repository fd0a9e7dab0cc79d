package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorbook-backend/models"
	"tailorbook-backend/services"
	"tailorbook-backend/storage"
)

func newTestLedger(t *testing.T) (*services.LedgerService, storage.Store, *services.Dispatcher) {
	t.Helper()
	store := storage.NewMemoryStore()
	events := services.NewDispatcher()
	return services.NewLedgerService(store, events), store, events
}

func mustCreateCustomer(t *testing.T, ledger *services.LedgerService, p storage.Partition, name, phone string) models.Customer {
	t.Helper()
	customer, err := ledger.CreateCustomer(context.Background(), p, name, phone, nil, "", "")
	require.NoError(t, err)
	return customer
}

// balanceFold recomputes a balance from scratch; used to assert the cached
// value never drifts from the transaction collection.
func balanceFold(t *testing.T, ledger *services.LedgerService, p storage.Partition, customerID string) float64 {
	t.Helper()
	txs, err := ledger.Transactions(context.Background(), p)
	require.NoError(t, err)
	var sum float64
	for _, tx := range txs {
		if tx.CustomerID == customerID {
			sum += tx.Amount
		}
	}
	return sum
}

func TestCreateCustomer_AssignsSequentialCodes(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "0700000000")
	assert.Equal(t, 1, ali.Code)
	assert.Zero(t, ali.Balance)

	omar := mustCreateCustomer(t, ledger, storage.Professional, "Omar", "0711111111")
	assert.Equal(t, 2, omar.Code)
}

func TestCreateCustomer_RequiresNameAndPhone(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CreateCustomer(ctx, storage.Professional, "", "0700000000", nil, "", "")
	var validation *services.ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = ledger.CreateCustomer(ctx, storage.Professional, "Ali", "", nil, "", "")
	require.ErrorAs(t, err, &validation)

	customers, err := ledger.Customers(ctx, storage.Professional)
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestOrderLifecycle_CreatePayDelete(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "0700000000")

	order, err := ledger.CreateOrder(ctx, storage.Professional, services.OrderInput{
		CustomerID:  ali.ID,
		Description: "suit",
		ClothPrice:  3000,
		SewingFee:   2000,
		Deposit:     1000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 5000.0, order.TotalPrice)

	// Exactly one linked remainder transaction of total - deposit.
	txs, err := ledger.Transactions(ctx, storage.Professional)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, order.ID, txs[0].OrderID)
	assert.Equal(t, 4000.0, txs[0].Amount)

	updated, err := ledger.Customer(ctx, storage.Professional, ali.ID)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, updated.Balance)

	debt, err := ledger.OrderDebt(ctx, storage.Professional, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, debt)

	// Unsettled order and indebted customer refuse deletion.
	var precondition *services.PreconditionError
	require.ErrorAs(t, ledger.DeleteOrder(ctx, storage.Professional, order.ID), &precondition)
	require.ErrorAs(t, ledger.DeleteCustomer(ctx, storage.Professional, ali.ID), &precondition)

	// Full payment settles the order and the customer.
	_, err = ledger.AddPayment(ctx, storage.Professional, order.ID, 4000)
	require.NoError(t, err)

	debt, err = ledger.OrderDebt(ctx, storage.Professional, order.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, debt, services.SettleEpsilon)

	updated, err = ledger.Customer(ctx, storage.Professional, ali.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, updated.Balance, services.SettleEpsilon)
	assert.Equal(t, balanceFold(t, ledger, storage.Professional, ali.ID), updated.Balance)

	// Settled order deletes and cascades its transactions.
	require.NoError(t, ledger.DeleteOrder(ctx, storage.Professional, order.ID))
	txs, err = ledger.Transactions(ctx, storage.Professional)
	require.NoError(t, err)
	assert.Empty(t, txs)

	// With zero orders and a settled balance the customer can go too.
	require.NoError(t, ledger.DeleteCustomer(ctx, storage.Professional, ali.ID))
}

func TestCreateOrder_DepositExceedsTotal_NoSideEffects(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "0700000000")

	_, err := ledger.CreateOrder(ctx, storage.Professional, services.OrderInput{
		CustomerID: ali.ID,
		ClothPrice: 3000,
		SewingFee:  2000,
		Deposit:    6000,
	})
	var validation *services.ValidationError
	require.ErrorAs(t, err, &validation)

	orders, err := ledger.Orders(ctx, storage.Professional)
	require.NoError(t, err)
	assert.Empty(t, orders)

	txs, err := ledger.Transactions(ctx, storage.Professional)
	require.NoError(t, err)
	assert.Empty(t, txs)

	unchanged, err := ledger.Customer(ctx, storage.Professional, ali.ID)
	require.NoError(t, err)
	assert.Zero(t, unchanged.Balance)
}

func TestCreateOrder_ZeroRemainder_StillLinksTransaction(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "0700000000")

	order, err := ledger.CreateOrder(ctx, storage.Professional, services.OrderInput{
		CustomerID: ali.ID,
		ClothPrice: 2000,
		SewingFee:  1000,
		Deposit:    3000,
	})
	require.NoError(t, err)

	txs, err := ledger.Transactions(ctx, storage.Professional)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Zero(t, txs[0].Amount)
	assert.Equal(t, order.ID, txs[0].OrderID)

	// A prepaid order is deletable right away.
	require.NoError(t, ledger.DeleteOrder(ctx, storage.Professional, order.ID))
}

func TestAddPayment_NonPositiveRejected(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "0700000000")
	order, err := ledger.CreateOrder(ctx, storage.Professional, services.OrderInput{
		CustomerID: ali.ID, ClothPrice: 1000, SewingFee: 500,
	})
	require.NoError(t, err)

	var validation *services.ValidationError
	_, err = ledger.AddPayment(ctx, storage.Professional, order.ID, 0)
	require.ErrorAs(t, err, &validation)
	_, err = ledger.AddPayment(ctx, storage.Professional, order.ID, -50)
	require.ErrorAs(t, err, &validation)
}

func TestAddTransaction_ManualDebtAndPayment(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "0700000000")

	_, err := ledger.AddTransaction(ctx, storage.Professional, ali.ID, 1500, "fabric on credit")
	require.NoError(t, err)
	_, err = ledger.AddTransaction(ctx, storage.Professional, ali.ID, -500, "cash received")
	require.NoError(t, err)

	updated, err := ledger.Customer(ctx, storage.Professional, ali.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, updated.Balance)
	assert.Equal(t, balanceFold(t, ledger, storage.Professional, ali.ID), updated.Balance)

	var validation *services.ValidationError
	_, err = ledger.AddTransaction(ctx, storage.Professional, ali.ID, 0, "nothing")
	require.ErrorAs(t, err, &validation)
}

func TestDeleteCustomer_OverpaidBalanceRejected(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "0700000000")
	_, err := ledger.AddTransaction(ctx, storage.Professional, ali.ID, -200, "advance payment")
	require.NoError(t, err)

	// Shop owes the customer: still not deletable.
	var precondition *services.PreconditionError
	require.ErrorAs(t, ledger.DeleteCustomer(ctx, storage.Professional, ali.ID), &precondition)
}

func TestUpdateOrderStatus_ReadyFiresEventOnce(t *testing.T) {
	ledger, store, events := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, storage.KeyShopInfo, models.ShopInfo{Name: "Golden Needle"}))

	var fired []services.OrderReadyEvent
	events.Listen(services.EventOrderReady, func(payload any) {
		fired = append(fired, payload.(services.OrderReadyEvent))
	})

	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "+93700000000")
	order, err := ledger.CreateOrder(ctx, storage.Professional, services.OrderInput{
		CustomerID: ali.ID, Description: "suit", ClothPrice: 1000,
	})
	require.NoError(t, err)

	_, err = ledger.UpdateOrderStatus(ctx, storage.Professional, order.ID, models.StatusReady)
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, "Ali", fired[0].CustomerName)
	assert.Equal(t, "+93700000000", fired[0].CustomerPhone)
	assert.Equal(t, "suit", fired[0].OrderDescription)
	assert.Equal(t, "Golden Needle", fired[0].ShopName)

	// Re-setting READY does not re-notify.
	_, err = ledger.UpdateOrderStatus(ctx, storage.Professional, order.ID, models.StatusReady)
	require.NoError(t, err)
	assert.Len(t, fired, 1)

	// Other transitions are free and silent.
	_, err = ledger.UpdateOrderStatus(ctx, storage.Professional, order.ID, models.StatusPending)
	require.NoError(t, err)
	_, err = ledger.UpdateOrderStatus(ctx, storage.Professional, order.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, fired, 1)

	var validation *services.ValidationError
	_, err = ledger.UpdateOrderStatus(ctx, storage.Professional, order.ID, "LOST")
	require.ErrorAs(t, err, &validation)
}

func TestUpdateOrderStatus_SlowListenerDoesNotBlockLedger(t *testing.T) {
	ledger, _, events := newTestLedger(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	events.Listen(services.EventOrderReady, func(any) {
		close(entered)
		<-release
	})

	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "0700000000")
	order, err := ledger.CreateOrder(ctx, storage.Professional, services.OrderInput{
		CustomerID: ali.ID, Description: "suit", ClothPrice: 1000,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := ledger.UpdateOrderStatus(ctx, storage.Professional, order.ID, models.StatusReady)
		done <- err
	}()

	// While the listener is stuck in its send, other mutations must still go
	// through; if the event fired under the service mutex this would hang.
	<-entered
	_, err = ledger.CreateCustomer(ctx, storage.Professional, "Omar", "0711111111", nil, "", "")
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}

func TestCreateOrder_RejectsNonISODueDate(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "0700000000")

	var validation *services.ValidationError
	for _, due := range []string{"31/12/2026", "2026-13-40", "tomorrow"} {
		_, err := ledger.CreateOrder(ctx, storage.Professional, services.OrderInput{
			CustomerID: ali.ID, ClothPrice: 1000, DueDate: due,
		})
		require.ErrorAs(t, err, &validation, due)
	}

	_, err := ledger.CreateOrder(ctx, storage.Professional, services.OrderInput{
		CustomerID: ali.ID, ClothPrice: 1000, DueDate: "2026-12-31",
	})
	require.NoError(t, err)
}

func TestEnsureCustomerCodes_BackfillIsStableAndUnique(t *testing.T) {
	ledger, store, _ := newTestLedger(t)
	ctx := context.Background()

	// Customers written before the code field existed, one already coded.
	seeded := []models.Customer{
		{ID: "a", Name: "A", Phone: "1", Measurements: models.Measurements{}},
		{ID: "b", Name: "B", Phone: "2", Code: 5, Measurements: models.Measurements{}},
		{ID: "c", Name: "C", Phone: "3", Measurements: models.Measurements{}},
	}
	require.NoError(t, store.Set(ctx, storage.Professional.CustomersKey(), seeded))

	assigned, err := ledger.EnsureCustomerCodes(ctx, storage.Professional)
	require.NoError(t, err)
	assert.Equal(t, 2, assigned)

	customers, err := ledger.Customers(ctx, storage.Professional)
	require.NoError(t, err)
	codes := map[int]bool{}
	for _, c := range customers {
		assert.NotZero(t, c.Code)
		assert.False(t, codes[c.Code], "duplicate code %d", c.Code)
		codes[c.Code] = true
	}
	// Existing codes are never reassigned; missing ones continue past the max.
	assert.Equal(t, 5, customers[1].Code)
	assert.Equal(t, 6, customers[0].Code)
	assert.Equal(t, 7, customers[2].Code)

	// A second pass is a no-op.
	assigned, err = ledger.EnsureCustomerCodes(ctx, storage.Professional)
	require.NoError(t, err)
	assert.Zero(t, assigned)
}

func TestPartitions_AreIsolated(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	simple := mustCreateCustomer(t, ledger, storage.Simple, "Ali", "0700000000")
	_, err := ledger.CreateOrder(ctx, storage.Simple, services.OrderInput{
		CustomerID: simple.ID, ClothPrice: 700, Deposit: 200,
	})
	require.NoError(t, err)

	proCustomers, err := ledger.Customers(ctx, storage.Professional)
	require.NoError(t, err)
	assert.Empty(t, proCustomers)
	proOrders, err := ledger.Orders(ctx, storage.Professional)
	require.NoError(t, err)
	assert.Empty(t, proOrders)

	// Codes restart per partition.
	pro := mustCreateCustomer(t, ledger, storage.Professional, "Omar", "0711111111")
	assert.Equal(t, 1, pro.Code)
}

func TestRecomputeBalances_FlagsAndRepairsDrift(t *testing.T) {
	ledger, store, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, storage.Professional.CustomersKey(), []models.Customer{
		{ID: "a", Code: 1, Name: "A", Phone: "1", Balance: 999, Measurements: models.Measurements{}},
	}))
	require.NoError(t, store.Set(ctx, storage.Professional.TransactionsKey(), []models.Transaction{
		{ID: "t1", CustomerID: "a", Amount: 400},
		{ID: "t2", CustomerID: "a", Amount: -100},
	}))

	drift, err := ledger.RecomputeBalances(ctx, storage.Professional)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, 999.0, drift[0].Cached)
	assert.Equal(t, 300.0, drift[0].Computed)

	repaired, err := ledger.Customer(ctx, storage.Professional, "a")
	require.NoError(t, err)
	assert.Equal(t, 300.0, repaired.Balance)

	// A consistent ledger reports no drift.
	drift, err = ledger.RecomputeBalances(ctx, storage.Professional)
	require.NoError(t, err)
	assert.Empty(t, drift)
}
