package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/sensorstack/telemetryd/internal/measurement"
)

// uniqueViolation is the Postgres error code for a uniqueness-constraint
// conflict.
const uniqueViolation = "23505"

// TableExists reports whether a table with the given name exists.
func (c *Client) TableExists(ctx context.Context, name string) (bool, error) {
	return c.DB.WithContext(ctx).Migrator().HasTable(name), nil
}

// CreateTable creates a measurement table: a bigserial surrogate id, one
// column per spec, a uniqueness constraint on the temporal column to
// guard against duplicate timestamps, and a secondary index on it for
// range and order-by scans. Identifiers are quoted; table and column
// names come from user input.
func (c *Client) CreateTable(ctx context.Context, name string, columns []measurement.ColumnSpec) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n\t%s BIGSERIAL PRIMARY KEY",
		pq.QuoteIdentifier(name), pq.QuoteIdentifier(measurement.SurrogateIDColumn))
	for _, col := range columns {
		fmt.Fprintf(&b, ",\n\t%s %s", pq.QuoteIdentifier(col.Name), col.SQLType)
		if col.Temporal {
			b.WriteString(" UNIQUE")
		}
	}
	b.WriteString("\n)")

	if err := c.DB.WithContext(ctx).Exec(b.String()).Error; err != nil {
		return fmt.Errorf("creating table %q: %w", name, err)
	}

	for _, col := range columns {
		if !col.Temporal {
			continue
		}
		idx := fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			pq.QuoteIdentifier("idx_"+name+"_"+col.Name),
			pq.QuoteIdentifier(name),
			pq.QuoteIdentifier(col.Name))
		if err := c.DB.WithContext(ctx).Exec(idx).Error; err != nil {
			return fmt.Errorf("creating index on %q.%q: %w", name, col.Name, err)
		}
	}
	return nil
}

// ListColumns returns the table's columns in ordinal position with their
// concrete data types, surrogate id included.
func (c *Client) ListColumns(ctx context.Context, name string) ([]measurement.Column, error) {
	var rows []struct {
		ColumnName string `gorm:"column:column_name"`
		DataType   string `gorm:"column:data_type"`
	}
	err := c.DB.WithContext(ctx).
		Raw("SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ? ORDER BY ordinal_position", name).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing columns of %q: %w", name, err)
	}

	cols := make([]measurement.Column, len(rows))
	for i, row := range rows {
		cols[i] = measurement.Column{Name: row.ColumnName, Type: row.DataType}
	}
	return cols, nil
}

// InsertRows appends a batch of rows inside one transaction. A temporal
// uniqueness violation rolls the whole batch back and is reported as
// measurement.ErrDuplicateTimestamp.
func (c *Client) InsertRows(ctx context.Context, name string, rows []measurement.Record) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		batch[i] = map[string]interface{}(row)
	}

	tx := c.DB.WithContext(ctx).Table(name).Create(batch)
	if tx.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(tx.Error, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%w: %v", measurement.ErrDuplicateTimestamp, pgErr.Detail)
		}
		return 0, fmt.Errorf("inserting into %q: %w", name, tx.Error)
	}
	return tx.RowsAffected, nil
}

// SelectRange returns rows between the bounds ordered ascending by the
// given column. The data is append-ordered in practice, but the ORDER BY
// is what the ordering guarantee rests on.
func (c *Client) SelectRange(ctx context.Context, name, column, lower, upper string, inclusiveLower, inclusiveUpper bool) ([]measurement.Record, error) {
	lowOp := ">"
	if inclusiveLower {
		lowOp = ">="
	}
	highOp := "<"
	if inclusiveUpper {
		highOp = "<="
	}

	qcol := pq.QuoteIdentifier(column)
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s %s ? AND %s %s ? ORDER BY %s ASC",
		pq.QuoteIdentifier(name), qcol, lowOp, qcol, highOp, qcol)

	var rows []map[string]interface{}
	if err := c.DB.WithContext(ctx).Raw(query, lower, upper).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("range select on %q: %w", name, err)
	}
	return toRecords(rows), nil
}

// SelectLatest returns up to limit rows ordered descending by the given
// column.
func (c *Client) SelectLatest(ctx context.Context, name, column string, limit int) ([]measurement.Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC LIMIT ?",
		pq.QuoteIdentifier(name), pq.QuoteIdentifier(column))

	var rows []map[string]interface{}
	if err := c.DB.WithContext(ctx).Raw(query, limit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("latest select on %q: %w", name, err)
	}
	return toRecords(rows), nil
}

// toRecords strips surrogate ids and rewrites temporal values scanned as
// time.Time back to the canonical textual form, so rows leave the store
// layer looking the same regardless of backend.
func toRecords(rows []map[string]interface{}) []measurement.Record {
	out := make([]measurement.Record, len(rows))
	for i, row := range rows {
		rec := make(measurement.Record, len(row))
		for k, v := range row {
			if k == measurement.SurrogateIDColumn {
				continue
			}
			if ts, ok := v.(time.Time); ok {
				rec[k] = ts.UTC().Format(measurement.TimeLayout)
				continue
			}
			rec[k] = v
		}
		out[i] = rec
	}
	return out
}
