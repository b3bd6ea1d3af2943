package measurement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// ExportCSV renders rows as comma-delimited text with a header row, in
// the given column order. The order should come from the live schema
// (Engine.Columns) so it matches declaration order, not map iteration.
// encoding/csv handles quoting of embedded delimiters and newlines.
func ExportCSV(rows []Record, columns []string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("writing CSV header: %w", err)
	}

	fields := make([]string, len(columns))
	for _, rec := range rows {
		for i, col := range columns {
			fields[i] = formatValue(rec[col])
		}
		if err := w.Write(fields); err != nil {
			return "", fmt.Errorf("writing CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing CSV: %w", err)
	}
	return buf.String(), nil
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(TimeLayout)
	default:
		return fmt.Sprintf("%v", t)
	}
}
