package measurement

import (
	"context"
	"time"
)

// BoundsMode selects how range endpoints are compared. The JSON fetch
// path queries exclusive-exclusive; the CSV export path queries
// inclusive-inclusive. Both call sites exist on purpose.
type BoundsMode int

const (
	// BoundsExclusive returns rows strictly inside (start, end).
	BoundsExclusive BoundsMode = iota
	// BoundsInclusive returns rows inside [start, end].
	BoundsInclusive
)

// Engine executes range and latest-row queries against provisioned
// measurement tables. It re-derives the temporal column from live
// metadata on every call and orders explicitly by it, so results stay
// chronological even under backfilled inserts.
type Engine struct {
	store    TableStore
	registry *Registry
}

// NewEngine creates a query engine backed by the given store.
func NewEngine(store TableStore) *Engine {
	return &Engine{store: store, registry: NewRegistry(store)}
}

// Columns exposes the identity's live logical columns and temporal
// column name, for callers that need the export column order or the
// downsample temporal key.
func (e *Engine) Columns(ctx context.Context, identity TableIdentity) ([]Column, string, error) {
	return e.registry.Columns(ctx, identity)
}

// RangeQuery returns the identity's rows whose temporal value lies
// between start and end under the given bounds mode, ascending by the
// temporal column. Zero matching rows is reported as ErrEmptyResult.
func (e *Engine) RangeQuery(ctx context.Context, identity TableIdentity, start, end time.Time, mode BoundsMode) ([]Record, error) {
	_, temporal, err := e.registry.Columns(ctx, identity)
	if err != nil {
		return nil, err
	}

	inclusive := mode == BoundsInclusive
	rows, err := e.store.SelectRange(ctx, identity.TableName(), temporal,
		start.UTC().Format(TimeLayout), end.UTC().Format(TimeLayout), inclusive, inclusive)
	if err != nil {
		return nil, storageErr("range select", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyResult
	}
	return rows, nil
}

// LastRow returns the identity's most recent row by temporal column, or
// ErrEmptyResult if the table holds no rows.
func (e *Engine) LastRow(ctx context.Context, identity TableIdentity) (Record, error) {
	_, temporal, err := e.registry.Columns(ctx, identity)
	if err != nil {
		return nil, err
	}

	rows, err := e.store.SelectLatest(ctx, identity.TableName(), temporal, 1)
	if err != nil {
		return nil, storageErr("latest select", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyResult
	}
	return rows[0], nil
}
