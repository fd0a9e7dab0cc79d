package services

import (
	"errors"
	"fmt"
)

// Sentinel errors, used with errors.Is().
var (
	// ErrCustomerNotFound is returned when the referenced customer is not
	// in the partition's collection.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrOrderNotFound is returned when the referenced order is not in the
	// partition's collection.
	ErrOrderNotFound = errors.New("order not found")

	// ErrMalformedBackup is returned when an import envelope fails
	// structural validation. Import aborts before any destructive write.
	ErrMalformedBackup = errors.New("backup envelope not recognized")

	// ErrNoRemoteBackup is returned when the user has no backup object in
	// the remote store yet.
	ErrNoRemoteBackup = errors.New("no remote backup found for this account")
)

// ValidationError rejects user input before any write happens. The reason
// names the violated rule so the caller can surface it verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// PreconditionError rejects a deletion against an entity with outstanding
// orders, balance, or order debt. No mutation is performed.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

func preconditionf(format string, args ...any) error {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// RemoteSyncError wraps a failed backup upload/download so callers can offer
// a retry instead of treating it as a local fault.
type RemoteSyncError struct {
	Op  string
	Err error
}

func (e *RemoteSyncError) Error() string { return fmt.Sprintf("cloud %s failed: %v", e.Op, e.Err) }
func (e *RemoteSyncError) Unwrap() error { return e.Err }
