package measurement

import "context"

// TableStore is the storage collaborator the measurement core drives.
// Implementations own connection lifecycle, timeouts, and the uniqueness
// constraint on the temporal column; the core owns everything above that.
type TableStore interface {
	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, name string) (bool, error)

	// CreateTable creates a table with a surrogate auto-incrementing id
	// column plus the given columns. Columns flagged Temporal receive a
	// uniqueness constraint and a secondary index.
	CreateTable(ctx context.Context, name string, columns []ColumnSpec) error

	// ListColumns returns the table's columns in ordinal position,
	// including the surrogate id, with concrete storage types.
	ListColumns(ctx context.Context, name string) ([]Column, error)

	// InsertRows appends a batch of rows. On a temporal uniqueness
	// violation the whole batch fails and the error wraps
	// ErrDuplicateTimestamp.
	InsertRows(ctx context.Context, name string, rows []Record) (int64, error)

	// SelectRange returns rows whose column value lies between the bounds,
	// ordered ascending by that column. Bounds are compared inclusively or
	// exclusively per end as requested. Surrogate ids are stripped.
	SelectRange(ctx context.Context, name, column, lower, upper string, inclusiveLower, inclusiveUpper bool) ([]Record, error)

	// SelectLatest returns up to limit rows ordered descending by the
	// given column. Surrogate ids are stripped.
	SelectLatest(ctx context.Context, name, column string, limit int) ([]Record, error)
}
