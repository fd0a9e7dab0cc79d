// Package storage implements the local persistence layer: named JSON blobs
// in a single key-value table, mirroring the contract the rest of the app
// is written against — get(key) -> value|nil, set(key, value).
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"tailorbook-backend/models"
)

// Keys for the named blobs. The professional partition uses the bare
// collection keys; the simple partition prefixes them with "simple_".
const (
	KeyCustomers          = "customers"
	KeyOrders             = "orders"
	KeyTransactions       = "transactions"
	KeySimpleCustomers    = "simple_customers"
	KeySimpleOrders       = "simple_orders"
	KeySimpleTransactions = "simple_transactions"
	KeyShopInfo           = "shop_info"
	KeyMeasurementLabels  = "measurement_labels"
	KeyApprovalCache      = "approval_status_cache"
	KeyMigrationDone      = "migration_done"
)

// Legacy keys from the flat storage format, copied once by Migrate.
const (
	legacyCustomers    = "tailor_customers"
	legacyOrders       = "tailor_orders"
	legacyTransactions = "tailor_transactions"
)

// Store is the persistence adapter contract. Get returns (nil, nil) for a
// missing key; it never fails just because a key is absent. SetMulti writes
// all pairs as one atomic unit so a multi-collection mutation can not be
// torn by a crash between writes.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value any) error
	SetMulti(ctx context.Context, values map[string]any) error
}

// GetJSON reads key into out, leaving out untouched when the key is absent.
// Returns true when the key existed.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("storage: decode %s: %w", key, err)
	}
	return true, nil
}

// ─── gorm-backed store ───

type dbStore struct {
	db *gorm.DB
}

// NewDBStore returns a Store over the kv_entries table.
func NewDBStore(db *gorm.DB) Store {
	return &dbStore{db: db}
}

func (s *dbStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var entry models.KVEntry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return json.RawMessage(entry.Value), nil
}

func (s *dbStore) Set(ctx context.Context, key string, value any) error {
	return s.SetMulti(ctx, map[string]any{key: value})
}

func (s *dbStore) SetMulti(ctx context.Context, values map[string]any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			raw, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("storage: encode %s: %w", key, err)
			}
			entry := models.KVEntry{Key: key, Value: raw}
			if err := tx.Save(&entry).Error; err != nil {
				return fmt.Errorf("storage: set %s: %w", key, err)
			}
		}
		return nil
	})
}

// Migrate copies the legacy flat-format blobs to the current collection keys.
// It runs exactly once: the migration_done flag guards re-entry, and the
// whole pass happens before any other writer touches the store.
func Migrate(ctx context.Context, s Store) error {
	var done bool
	if _, err := GetJSON(ctx, s, KeyMigrationDone, &done); err != nil {
		return err
	}
	if done {
		return nil
	}

	moves := map[string]string{
		legacyCustomers:    KeyCustomers,
		legacyOrders:       KeyOrders,
		legacyTransactions: KeyTransactions,
	}
	pending := map[string]any{KeyMigrationDone: true}
	for old, current := range moves {
		raw, err := s.Get(ctx, old)
		if err != nil {
			return err
		}
		if raw != nil {
			pending[current] = json.RawMessage(raw)
			log.Printf("storage: migrating legacy blob %s -> %s", old, current)
		}
	}
	return s.SetMulti(ctx, pending)
}
