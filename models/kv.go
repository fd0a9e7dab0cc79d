package models

// KVEntry is one named JSON blob in the local store. The whole ledger state
// (customer/order/transaction collections for both partitions, shop config,
// migration flag) lives in this table.
type KVEntry struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value []byte `gorm:"type:jsonb"`
}

func (KVEntry) TableName() string { return "kv_entries" }
