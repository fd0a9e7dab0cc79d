package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"tailorbook-backend/models"
	"tailorbook-backend/storage"
)

// EnvelopeVersion is the current backup format tag.
const EnvelopeVersion = "2.0"

// PartitionData is one partition's three collections inside an envelope.
type PartitionData struct {
	Customers    []models.Customer    `json:"customers"`
	Orders       []models.Order       `json:"orders"`
	Transactions []models.Transaction `json:"transactions"`
}

// Envelope is the versioned backup wrapper. Legacy backups may instead be a
// flat {customers, orders, transactions} object; ImportSnapshot handles both.
type Envelope struct {
	Version      string        `json:"version"`
	Professional PartitionData `json:"professional"`
	Simple       PartitionData `json:"simple"`
	ExportedAt   string        `json:"exportedAt"`
}

// legacyEnvelope is the pre-2.0 flat shape: professional collections only.
type legacyEnvelope struct {
	Customers    []models.Customer    `json:"customers"`
	Orders       []models.Order       `json:"orders"`
	Transactions []models.Transaction `json:"transactions"`
}

// RemoteStore is the object-storage boundary: one opaque blob per user id,
// last write wins, no versioning.
type RemoteStore interface {
	Put(ctx context.Context, userID string, data []byte) error
	Fetch(ctx context.Context, userID string) ([]byte, error)
}

// BackupService serializes the full ledger state (both partitions) to the
// envelope format and back, and moves envelopes to and from the remote store.
type BackupService struct {
	store  storage.Store
	ledger *LedgerService
	remote RemoteStore
}

func NewBackupService(store storage.Store, ledger *LedgerService, remote RemoteStore) *BackupService {
	return &BackupService{store: store, ledger: ledger, remote: remote}
}

func (s *BackupService) partitionData(ctx context.Context, p storage.Partition) (PartitionData, error) {
	customers, err := p.Customers(ctx, s.store)
	if err != nil {
		return PartitionData{}, err
	}
	orders, err := p.Orders(ctx, s.store)
	if err != nil {
		return PartitionData{}, err
	}
	txs, err := p.Transactions(ctx, s.store)
	if err != nil {
		return PartitionData{}, err
	}
	return PartitionData{Customers: customers, Orders: orders, Transactions: txs}, nil
}

// ExportSnapshot reads both partitions and wraps them in a versioned envelope.
func (s *BackupService) ExportSnapshot(ctx context.Context) (Envelope, error) {
	professional, err := s.partitionData(ctx, storage.Professional)
	if err != nil {
		return Envelope{}, err
	}
	simple, err := s.partitionData(ctx, storage.Simple)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Version:      EnvelopeVersion,
		Professional: professional,
		Simple:       simple,
		ExportedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ValidateEnvelope is a structural check only: version tag present and each
// partition carries its three collections as sequences (possibly empty).
// Numeric invariants are handled by the repair pass on import instead.
func ValidateEnvelope(raw json.RawMessage) bool {
	var probe struct {
		Version      string                     `json:"version"`
		Professional map[string]json.RawMessage `json:"professional"`
		Simple       map[string]json.RawMessage `json:"simple"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	if probe.Version != EnvelopeVersion {
		return false
	}
	for _, part := range []map[string]json.RawMessage{probe.Professional, probe.Simple} {
		if part == nil {
			return false
		}
		for _, key := range []string{"customers", "orders", "transactions"} {
			var seq []json.RawMessage
			raw, ok := part[key]
			if !ok || json.Unmarshal(raw, &seq) != nil {
				return false
			}
		}
	}
	return true
}

// ImportSnapshot replaces the local collections with the envelope's content.
// A v2.0 envelope replaces both partitions in one atomic write; a legacy
// flat shape restores the professional partition only. Anything else aborts
// with ErrMalformedBackup before any write. After a successful restore the
// cached balances are recomputed from the restored transactions, and any
// drift found in the backup is logged rather than silently trusted.
func (s *BackupService) ImportSnapshot(ctx context.Context, raw json.RawMessage) error {
	if ValidateEnvelope(raw) {
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return ErrMalformedBackup
		}
		err := s.store.SetMulti(ctx, map[string]any{
			storage.KeyCustomers:          orEmptyCustomers(env.Professional.Customers),
			storage.KeyOrders:             orEmptyOrders(env.Professional.Orders),
			storage.KeyTransactions:       orEmptyTransactions(env.Professional.Transactions),
			storage.KeySimpleCustomers:    orEmptyCustomers(env.Simple.Customers),
			storage.KeySimpleOrders:       orEmptyOrders(env.Simple.Orders),
			storage.KeySimpleTransactions: orEmptyTransactions(env.Simple.Transactions),
		})
		if err != nil {
			return err
		}
		s.repairAfterImport(ctx, storage.Professional, storage.Simple)
		return nil
	}

	// Legacy fallback: flat professional-only backups from before the
	// partition split. These were written by several app versions, so only
	// the customers list is required; absent collections restore as empty.
	var legacy legacyEnvelope
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return ErrMalformedBackup
	}
	if legacy.Customers == nil {
		return ErrMalformedBackup
	}
	err := s.store.SetMulti(ctx, map[string]any{
		storage.KeyCustomers:    legacy.Customers,
		storage.KeyOrders:       orEmptyOrders(legacy.Orders),
		storage.KeyTransactions: orEmptyTransactions(legacy.Transactions),
	})
	if err != nil {
		return err
	}
	s.repairAfterImport(ctx, storage.Professional)
	return nil
}

func (s *BackupService) repairAfterImport(ctx context.Context, partitions ...storage.Partition) {
	for _, p := range partitions {
		drift, err := s.ledger.RecomputeBalances(ctx, p)
		if err != nil {
			log.Printf("backup: balance repair failed for %s partition: %v", p, err)
			continue
		}
		for _, d := range drift {
			log.Printf("backup: repaired balance for customer %s (code %d) in %s partition: stored %.2f, recomputed %.2f",
				d.CustomerID, d.Code, p, d.Cached, d.Computed)
		}
	}
}

// UploadToRemote exports a snapshot and replaces the user's remote backup
// with it. Local state is never touched; a remote failure surfaces as a
// RemoteSyncError with a retry affordance.
func (s *BackupService) UploadToRemote(ctx context.Context, userID string) error {
	if s.remote == nil {
		return &RemoteSyncError{Op: "upload", Err: errors.New("cloud storage is not configured")}
	}
	env, err := s.ExportSnapshot(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := s.remote.Put(ctx, userID, data); err != nil {
		return &RemoteSyncError{Op: "upload", Err: err}
	}
	return nil
}

// DownloadFromRemote fetches the user's remote backup and imports it. Local
// writes only happen after a fully successful remote fetch.
func (s *BackupService) DownloadFromRemote(ctx context.Context, userID string) error {
	if s.remote == nil {
		return &RemoteSyncError{Op: "download", Err: errors.New("cloud storage is not configured")}
	}
	data, err := s.remote.Fetch(ctx, userID)
	if err != nil {
		return &RemoteSyncError{Op: "download", Err: err}
	}
	if data == nil {
		return ErrNoRemoteBackup
	}
	return s.ImportSnapshot(ctx, data)
}

func orEmptyCustomers(in []models.Customer) []models.Customer {
	if in == nil {
		return []models.Customer{}
	}
	return in
}

func orEmptyOrders(in []models.Order) []models.Order {
	if in == nil {
		return []models.Order{}
	}
	return in
}

func orEmptyTransactions(in []models.Transaction) []models.Transaction {
	if in == nil {
		return []models.Transaction{}
	}
	return in
}
