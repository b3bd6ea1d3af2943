package measurement

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the measurement core. Callers discriminate
// with errors.Is; none of these carry storage-level detail.
var (
	// ErrInvalidSchema is returned when a schema does not contain exactly
	// one date or datetime column.
	ErrInvalidSchema = errors.New("schema must contain exactly one date or datetime column")

	// ErrTableNotFound is returned when the referenced identity was never
	// provisioned, or its table no longer carries a usable temporal column.
	ErrTableNotFound = errors.New("measurement table not found")

	// ErrTableExists reports a provisioning conflict at the storage
	// boundary. Provision converts it into the AlreadyExists result; it
	// is an expected outcome, not a fault.
	ErrTableExists = errors.New("measurement table already exists")

	// ErrSchemaMismatch is returned when a record's column set differs
	// from the live table schema.
	ErrSchemaMismatch = errors.New("record columns do not match table schema")

	// ErrMalformedTimestamp is returned when a temporal value cannot be
	// parsed by any accepted layout.
	ErrMalformedTimestamp = errors.New("unparseable timestamp value")

	// ErrEmptyResult is returned when a query produced zero rows.
	ErrEmptyResult = errors.New("no measurement rows found")

	// ErrInvalidTargetCount is returned when a downsample target is below 1.
	ErrInvalidTargetCount = errors.New("downsample target count must be at least 1")

	// ErrDuplicateTimestamp reports a uniqueness-constraint conflict on the
	// temporal column during ingestion. The whole batch is rejected.
	ErrDuplicateTimestamp = errors.New("duplicate timestamp in measurement table")
)

// StorageError wraps a fault reported by the storage collaborator. The
// core never recovers from these; they pass through with the operation
// that failed attached for context.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
