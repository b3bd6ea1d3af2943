package measurement

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimeLayout is the canonical textual timestamp form stored in
// measurement tables. Values are normalized to it at ingestion and it
// sorts chronologically as text.
const TimeLayout = "2006-01-02 15:04:05"

// timestampLayouts is the ladder of accepted input formats, tried in
// order. Machine timestamps first, then the common human-entered forms
// including slash-delimited dates (month first).
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// ParseTimestamp parses a temporal value permissively. Offsets carried by
// RFC3339 inputs are honored; offset-free inputs are read as UTC so the
// canonical form never shifts with the host timezone.
func ParseTimestamp(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timestampLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t, nil
			}
		}
	case float64:
		// Epoch seconds, the form JSON numbers arrive in.
		return time.Unix(int64(v), 0).UTC(), nil
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case int:
		return time.Unix(int64(v), 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedTimestamp, value)
}

// Normalize verifies that every record's column set exactly equals the
// live table column set and rewrites the temporal column to TimeLayout.
// The first failing record rejects the whole batch; an empty batch is a
// valid no-op. Input records are not modified.
func Normalize(tableColumns []string, temporalColumn string, records []Record) ([]Record, error) {
	want := make(map[string]struct{}, len(tableColumns))
	for _, name := range tableColumns {
		want[name] = struct{}{}
	}

	out := make([]Record, 0, len(records))
	for i, rec := range records {
		if err := checkColumnSet(want, tableColumns, rec, i); err != nil {
			return nil, err
		}

		normalized := make(Record, len(rec))
		for k, v := range rec {
			normalized[k] = v
		}

		if raw, ok := normalized[temporalColumn]; ok {
			ts, err := ParseTimestamp(raw)
			if err != nil {
				return nil, fmt.Errorf("record %d, column %q: %w", i, temporalColumn, err)
			}
			normalized[temporalColumn] = ts.UTC().Format(TimeLayout)
		}

		out = append(out, normalized)
	}
	return out, nil
}

// checkColumnSet requires exact column-set equality: no missing columns,
// no extras.
func checkColumnSet(want map[string]struct{}, tableColumns []string, rec Record, index int) error {
	for k := range rec {
		if _, ok := want[k]; !ok {
			return fmt.Errorf("%w: record %d has unknown column %q", ErrSchemaMismatch, index, k)
		}
	}
	if len(rec) != len(want) {
		missing := make([]string, 0)
		for _, name := range tableColumns {
			if _, ok := rec[name]; !ok {
				missing = append(missing, name)
			}
		}
		sort.Strings(missing)
		return fmt.Errorf("%w: record %d is missing columns %s", ErrSchemaMismatch, index, strings.Join(missing, ", "))
	}
	return nil
}

// Ingestor validates and appends record batches to provisioned tables.
type Ingestor struct {
	store    TableStore
	registry *Registry
}

// NewIngestor creates an ingestor backed by the given store.
func NewIngestor(store TableStore) *Ingestor {
	return &Ingestor{store: store, registry: NewRegistry(store)}
}

// Ingest normalizes the batch against the identity's live columns and
// appends it. The append is atomic: a schema mismatch, a malformed
// timestamp, or a duplicate-timestamp conflict inserts nothing. An empty
// batch inserts zero rows and is not an error.
func (ing *Ingestor) Ingest(ctx context.Context, identity TableIdentity, records []Record) (int64, error) {
	cols, temporal, err := ing.registry.Columns(ctx, identity)
	if err != nil {
		return 0, err
	}

	normalized, err := Normalize(Schema(cols).Names(), temporal, records)
	if err != nil {
		return 0, err
	}
	if len(normalized) == 0 {
		return 0, nil
	}

	n, err := ing.store.InsertRows(ctx, identity.TableName(), normalized)
	if err != nil {
		return 0, storageErr("row insert", err)
	}
	return n, nil
}
