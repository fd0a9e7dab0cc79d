package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorbook-backend/models"
	"tailorbook-backend/services"
	"tailorbook-backend/storage"
)

type fakeRemote struct {
	objects map[string][]byte
	putErr  error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{objects: map[string][]byte{}}
}

func (r *fakeRemote) Put(_ context.Context, userID string, data []byte) error {
	if r.putErr != nil {
		return r.putErr
	}
	r.objects[userID] = data
	return nil
}

func (r *fakeRemote) Fetch(_ context.Context, userID string) ([]byte, error) {
	data, ok := r.objects[userID]
	if !ok {
		return nil, nil
	}
	return data, nil
}

func newTestBackup(t *testing.T, remote services.RemoteStore) (*services.BackupService, *services.LedgerService, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	ledger := services.NewLedgerService(store, services.NewDispatcher())
	return services.NewBackupService(store, ledger, remote), ledger, store
}

func seedBothPartitions(t *testing.T, ledger *services.LedgerService) {
	t.Helper()
	ctx := context.Background()

	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "0700000000")
	_, err := ledger.CreateOrder(ctx, storage.Professional, services.OrderInput{
		CustomerID: ali.ID, Description: "suit", ClothPrice: 3000, SewingFee: 2000, Deposit: 1000,
	})
	require.NoError(t, err)

	sara := mustCreateCustomer(t, ledger, storage.Simple, "Sara", "0711111111")
	_, err = ledger.AddTransaction(ctx, storage.Simple, sara.ID, 250, "hemming")
	require.NoError(t, err)
}

func TestExportImport_RoundTripBothPartitions(t *testing.T) {
	ctx := context.Background()

	source, sourceLedger, _ := newTestBackup(t, nil)
	seedBothPartitions(t, sourceLedger)

	env, err := source.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, services.EnvelopeVersion, env.Version)
	assert.NotEmpty(t, env.ExportedAt)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	require.True(t, services.ValidateEnvelope(raw))

	dest, destLedger, _ := newTestBackup(t, nil)
	require.NoError(t, dest.ImportSnapshot(ctx, raw))

	for _, p := range []storage.Partition{storage.Professional, storage.Simple} {
		wantCustomers, err := sourceLedger.Customers(ctx, p)
		require.NoError(t, err)
		gotCustomers, err := destLedger.Customers(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, wantCustomers, gotCustomers, "%s customers", p)

		wantOrders, err := sourceLedger.Orders(ctx, p)
		require.NoError(t, err)
		gotOrders, err := destLedger.Orders(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, wantOrders, gotOrders, "%s orders", p)

		wantTxs, err := sourceLedger.Transactions(ctx, p)
		require.NoError(t, err)
		gotTxs, err := destLedger.Transactions(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, wantTxs, gotTxs, "%s transactions", p)
	}
}

func TestImport_ReplacesExistingState(t *testing.T) {
	ctx := context.Background()

	source, sourceLedger, _ := newTestBackup(t, nil)
	mustCreateCustomer(t, sourceLedger, storage.Professional, "Ali", "0700000000")
	env, err := source.ExportSnapshot(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	// The destination already has different data; import is a full replace.
	dest, destLedger, _ := newTestBackup(t, nil)
	mustCreateCustomer(t, destLedger, storage.Professional, "Old", "0722222222")
	mustCreateCustomer(t, destLedger, storage.Simple, "OldSimple", "0733333333")

	require.NoError(t, dest.ImportSnapshot(ctx, raw))

	customers, err := destLedger.Customers(ctx, storage.Professional)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Ali", customers[0].Name)

	// The envelope's empty simple partition wipes the old simple data too.
	simple, err := destLedger.Customers(ctx, storage.Simple)
	require.NoError(t, err)
	assert.Empty(t, simple)
}

func TestImport_LegacyFlatShapeRestoresProfessionalOnly(t *testing.T) {
	ctx := context.Background()

	backup, ledger, _ := newTestBackup(t, nil)
	sara := mustCreateCustomer(t, ledger, storage.Simple, "Sara", "0711111111")

	legacy := map[string]any{
		"customers": []models.Customer{
			{ID: "a", Code: 1, Name: "Ali", Phone: "0700000000", Balance: 600, Measurements: models.Measurements{}},
		},
		"orders": []models.Order{},
		"transactions": []models.Transaction{
			{ID: "t1", CustomerID: "a", Amount: 600, Date: "2024-01-10"},
		},
	}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)

	require.NoError(t, backup.ImportSnapshot(ctx, raw))

	customers, err := ledger.Customers(ctx, storage.Professional)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Ali", customers[0].Name)
	assert.Equal(t, 600.0, customers[0].Balance)

	// The simple partition is left untouched by a legacy restore.
	simple, err := ledger.Customers(ctx, storage.Simple)
	require.NoError(t, err)
	require.Len(t, simple, 1)
	assert.Equal(t, sara.ID, simple[0].ID)
}

func TestImport_LegacyPartialShapeDefaultsMissingCollections(t *testing.T) {
	ctx := context.Background()

	backup, ledger, _ := newTestBackup(t, nil)
	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "0700000000")
	_, err := ledger.CreateOrder(ctx, storage.Professional, services.OrderInput{
		CustomerID: ali.ID, ClothPrice: 1000, Deposit: 200,
	})
	require.NoError(t, err)

	// Some old app versions exported customers only.
	raw := `{"customers":[{"id":"b","code":1,"name":"Bashir","phone":"0744444444","balance":0,"measurements":{}}]}`
	require.NoError(t, backup.ImportSnapshot(ctx, json.RawMessage(raw)))

	customers, err := ledger.Customers(ctx, storage.Professional)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Bashir", customers[0].Name)

	orders, err := ledger.Orders(ctx, storage.Professional)
	require.NoError(t, err)
	assert.Empty(t, orders)

	txs, err := ledger.Transactions(ctx, storage.Professional)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestImport_MalformedPayloadLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()

	backup, ledger, _ := newTestBackup(t, nil)
	ali := mustCreateCustomer(t, ledger, storage.Professional, "Ali", "0700000000")

	for _, raw := range []string{
		`not json at all`,
		`{"version":"2.0"}`,
		`{"version":"3.0","professional":{"customers":[],"orders":[],"transactions":[]},"simple":{"customers":[],"orders":[],"transactions":[]}}`,
		`{"orders":[],"transactions":[]}`,
		`{}`,
	} {
		err := backup.ImportSnapshot(ctx, json.RawMessage(raw))
		require.ErrorIs(t, err, services.ErrMalformedBackup, "payload: %s", raw)
	}

	customers, err := ledger.Customers(ctx, storage.Professional)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, ali.ID, customers[0].ID)
}

func TestImport_RepairsDriftedBalances(t *testing.T) {
	ctx := context.Background()

	backup, ledger, _ := newTestBackup(t, nil)

	env := services.Envelope{
		Version: services.EnvelopeVersion,
		Professional: services.PartitionData{
			Customers: []models.Customer{
				{ID: "a", Code: 1, Name: "Ali", Phone: "0700000000", Balance: 999, Measurements: models.Measurements{}},
			},
			Orders: []models.Order{},
			Transactions: []models.Transaction{
				{ID: "t1", CustomerID: "a", Amount: 400, Date: "2024-01-10"},
			},
		},
		Simple: services.PartitionData{
			Customers:    []models.Customer{},
			Orders:       []models.Order{},
			Transactions: []models.Transaction{},
		},
	}
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	require.NoError(t, backup.ImportSnapshot(ctx, raw))

	repaired, err := ledger.Customer(ctx, storage.Professional, "a")
	require.NoError(t, err)
	assert.Equal(t, 400.0, repaired.Balance)
}

func TestValidateEnvelope(t *testing.T) {
	valid := `{"version":"2.0","professional":{"customers":[],"orders":[],"transactions":[]},"simple":{"customers":[],"orders":[],"transactions":[]},"exportedAt":"2024-01-01T00:00:00Z"}`
	assert.True(t, services.ValidateEnvelope(json.RawMessage(valid)))

	for name, raw := range map[string]string{
		"wrong version":       `{"version":"1.0","professional":{"customers":[],"orders":[],"transactions":[]},"simple":{"customers":[],"orders":[],"transactions":[]}}`,
		"missing simple":      `{"version":"2.0","professional":{"customers":[],"orders":[],"transactions":[]}}`,
		"collection not list": `{"version":"2.0","professional":{"customers":{},"orders":[],"transactions":[]},"simple":{"customers":[],"orders":[],"transactions":[]}}`,
		"missing collection":  `{"version":"2.0","professional":{"customers":[],"orders":[]},"simple":{"customers":[],"orders":[],"transactions":[]}}`,
		"not an object":       `[1,2,3]`,
	} {
		assert.False(t, services.ValidateEnvelope(json.RawMessage(raw)), name)
	}
}

func TestCloudUploadDownload_RoundTrip(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()

	source, sourceLedger, _ := newTestBackup(t, remote)
	seedBothPartitions(t, sourceLedger)
	require.NoError(t, source.UploadToRemote(ctx, "user-1"))
	require.Contains(t, remote.objects, "user-1")

	dest, destLedger, _ := newTestBackup(t, remote)
	require.NoError(t, dest.DownloadFromRemote(ctx, "user-1"))

	customers, err := destLedger.Customers(ctx, storage.Professional)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Ali", customers[0].Name)

	// A later upload overwrites the previous object outright.
	before := remote.objects["user-1"]
	_, err = sourceLedger.AddTransaction(ctx, storage.Professional, customers[0].ID, -100, "cash received")
	require.NoError(t, err)
	require.NoError(t, source.UploadToRemote(ctx, "user-1"))
	assert.NotEqual(t, string(before), string(remote.objects["user-1"]))
}

func TestCloudDownload_NoBackupFound(t *testing.T) {
	backup, _, _ := newTestBackup(t, newFakeRemote())
	err := backup.DownloadFromRemote(context.Background(), "nobody")
	require.ErrorIs(t, err, services.ErrNoRemoteBackup)
}

func TestCloud_UnconfiguredRemote(t *testing.T) {
	backup, _, _ := newTestBackup(t, nil)
	ctx := context.Background()

	var syncErr *services.RemoteSyncError
	require.ErrorAs(t, backup.UploadToRemote(ctx, "user-1"), &syncErr)
	assert.Equal(t, "upload", syncErr.Op)
	require.ErrorAs(t, backup.DownloadFromRemote(ctx, "user-1"), &syncErr)
	assert.Equal(t, "download", syncErr.Op)
}
