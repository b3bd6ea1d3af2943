// Package memstore provides an in-memory measurement.TableStore. It backs
// the test suites and serves as a storage backend for running without a
// database. Semantics mirror the Postgres store: surrogate ids, temporal
// uniqueness, and ascending range scans.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sensorstack/telemetryd/internal/measurement"
)

type table struct {
	specs []measurement.ColumnSpec
	rows  []measurement.Record
	// temporal is cached at creation for the uniqueness check
	temporal string
}

// Store is an in-memory TableStore. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
}

// New creates an empty store.
func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

// TableExists reports whether the named table has been created.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tables[name]
	return ok, nil
}

// CreateTable creates the named table. Creating an existing table is an
// error, matching the database's behavior when the provisioner loses a
// creation race.
func (s *Store) CreateTable(ctx context.Context, name string, columns []measurement.ColumnSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; ok {
		return fmt.Errorf("%w: %s", measurement.ErrTableExists, name)
	}

	t := &table{specs: columns}
	for _, col := range columns {
		if col.Temporal {
			t.temporal = col.Name
		}
	}
	s.tables[name] = t
	return nil
}

// ListColumns returns the surrogate id column followed by the logical
// columns in creation order, with their concrete storage types.
func (s *Store) ListColumns(ctx context.Context, name string) ([]measurement.Column, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q does not exist", name)
	}

	cols := make([]measurement.Column, 0, len(t.specs)+1)
	cols = append(cols, measurement.Column{Name: measurement.SurrogateIDColumn, Type: "bigint"})
	for _, spec := range t.specs {
		cols = append(cols, measurement.Column{Name: spec.Name, Type: spec.SQLType})
	}
	return cols, nil
}

// InsertRows appends the batch atomically. A duplicate temporal value,
// against existing rows or within the batch, fails the whole batch with
// measurement.ErrDuplicateTimestamp.
func (s *Store) InsertRows(ctx context.Context, name string, rows []measurement.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return 0, fmt.Errorf("table %q does not exist", name)
	}

	if t.temporal != "" {
		seen := make(map[string]struct{}, len(t.rows)+len(rows))
		for _, existing := range t.rows {
			seen[timestampKey(existing[t.temporal])] = struct{}{}
		}
		for _, row := range rows {
			key := timestampKey(row[t.temporal])
			if _, dup := seen[key]; dup {
				return 0, fmt.Errorf("%w: %s", measurement.ErrDuplicateTimestamp, key)
			}
			seen[key] = struct{}{}
		}
	}

	for _, row := range rows {
		copied := make(measurement.Record, len(row))
		for k, v := range row {
			copied[k] = v
		}
		t.rows = append(t.rows, copied)
	}
	return int64(len(rows)), nil
}

// SelectRange returns rows between the bounds ordered ascending by the
// given column. Canonical timestamp text compares chronologically, so
// plain string comparison matches the database's ordering.
func (s *Store) SelectRange(ctx context.Context, name, column, lower, upper string, inclusiveLower, inclusiveUpper bool) ([]measurement.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q does not exist", name)
	}

	var out []measurement.Record
	for _, row := range t.rows {
		v := timestampKey(row[column])
		if inclusiveLower && v < lower || !inclusiveLower && v <= lower {
			continue
		}
		if inclusiveUpper && v > upper || !inclusiveUpper && v >= upper {
			continue
		}
		out = append(out, cloneRecord(row))
	}

	sort.Slice(out, func(i, j int) bool {
		return timestampKey(out[i][column]) < timestampKey(out[j][column])
	})
	return out, nil
}

// SelectLatest returns up to limit rows ordered descending by the given
// column.
func (s *Store) SelectLatest(ctx context.Context, name, column string, limit int) ([]measurement.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q does not exist", name)
	}

	sorted := make([]measurement.Record, len(t.rows))
	copy(sorted, t.rows)
	sort.Slice(sorted, func(i, j int) bool {
		return timestampKey(sorted[i][column]) > timestampKey(sorted[j][column])
	})

	if limit > len(sorted) {
		limit = len(sorted)
	}
	out := make([]measurement.Record, 0, limit)
	for _, row := range sorted[:limit] {
		out = append(out, cloneRecord(row))
	}
	return out, nil
}

func cloneRecord(row measurement.Record) measurement.Record {
	copied := make(measurement.Record, len(row))
	for k, v := range row {
		copied[k] = v
	}
	return copied
}

func timestampKey(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
