package measurement_test

import (
	"errors"
	"testing"

	"github.com/sensorstack/telemetryd/internal/measurement"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
		wantErr  bool
	}{
		{"canonical form", "2024-03-05 14:00:00", "2024-03-05 14:00:00", false},
		{"slash-delimited date and time", "3/5/2024 14:00:00", "2024-03-05 14:00:00", false},
		{"zero-padded slash date", "03/05/2024 14:00", "2024-03-05 14:00:00", false},
		{"bare slash date", "3/5/2024", "2024-03-05 00:00:00", false},
		{"year-first slash date", "2024/03/05 14:00:00", "2024-03-05 14:00:00", false},
		{"ISO T separator", "2024-03-05T14:00:00", "2024-03-05 14:00:00", false},
		{"RFC3339 offset is honored", "2024-03-05T14:00:00+02:00", "2024-03-05 12:00:00", false},
		{"bare date", "2024-03-05", "2024-03-05 00:00:00", false},
		{"epoch seconds", int64(1709647200), "2024-03-05 14:00:00", false},
		{"surrounding whitespace", "  2024-03-05 14:00:00 ", "2024-03-05 14:00:00", false},
		{"garbage fails", "yesterday-ish", "", true},
		{"day-count overflow fails", "13/45/2024", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := measurement.ParseTimestamp(tt.value)
			if tt.wantErr {
				if !errors.Is(err, measurement.ErrMalformedTimestamp) {
					t.Errorf("ParseTimestamp(%v) error = %v, expected ErrMalformedTimestamp", tt.value, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%v) unexpected error: %v", tt.value, err)
			}
			if got := ts.UTC().Format(measurement.TimeLayout); got != tt.expected {
				t.Errorf("ParseTimestamp(%v) = %q, expected %q", tt.value, got, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	columns := []string{"temp", "humidity", "ts"}

	t.Run("round-trips a slash date to canonical form", func(t *testing.T) {
		out, err := measurement.Normalize(columns, "ts", []measurement.Record{
			{"temp": 21.5, "humidity": 40.0, "ts": "3/5/2024 14:00:00"},
		})
		if err != nil {
			t.Fatalf("Normalize() unexpected error: %v", err)
		}
		if got := out[0]["ts"]; got != "2024-03-05 14:00:00" {
			t.Errorf("normalized ts = %v, expected 2024-03-05 14:00:00", got)
		}
	})

	t.Run("does not modify input records", func(t *testing.T) {
		in := []measurement.Record{
			{"temp": 21.5, "humidity": 40.0, "ts": "3/5/2024 14:00:00"},
		}
		if _, err := measurement.Normalize(columns, "ts", in); err != nil {
			t.Fatalf("Normalize() unexpected error: %v", err)
		}
		if in[0]["ts"] != "3/5/2024 14:00:00" {
			t.Errorf("input record was modified: ts = %v", in[0]["ts"])
		}
	})

	t.Run("rejects a record with an extra column", func(t *testing.T) {
		_, err := measurement.Normalize(columns, "ts", []measurement.Record{
			{"temp": 1.0, "humidity": 2.0, "ts": "2024-03-05 14:00:00", "pressure": 1013.0},
		})
		if !errors.Is(err, measurement.ErrSchemaMismatch) {
			t.Errorf("error = %v, expected ErrSchemaMismatch", err)
		}
	})

	t.Run("rejects a record with a missing column", func(t *testing.T) {
		_, err := measurement.Normalize(columns, "ts", []measurement.Record{
			{"temp": 1.0, "ts": "2024-03-05 14:00:00"},
		})
		if !errors.Is(err, measurement.ErrSchemaMismatch) {
			t.Errorf("error = %v, expected ErrSchemaMismatch", err)
		}
	})

	t.Run("one bad record rejects the whole batch", func(t *testing.T) {
		out, err := measurement.Normalize(columns, "ts", []measurement.Record{
			{"temp": 1.0, "humidity": 2.0, "ts": "2024-03-05 14:00:00"},
			{"temp": 1.0, "humidity": 2.0},
		})
		if !errors.Is(err, measurement.ErrSchemaMismatch) {
			t.Errorf("error = %v, expected ErrSchemaMismatch", err)
		}
		if out != nil {
			t.Errorf("expected no normalized records on batch failure, got %d", len(out))
		}
	})

	t.Run("malformed timestamp rejects the batch", func(t *testing.T) {
		_, err := measurement.Normalize(columns, "ts", []measurement.Record{
			{"temp": 1.0, "humidity": 2.0, "ts": "not a time"},
		})
		if !errors.Is(err, measurement.ErrMalformedTimestamp) {
			t.Errorf("error = %v, expected ErrMalformedTimestamp", err)
		}
	})

	t.Run("empty batch is a valid no-op", func(t *testing.T) {
		out, err := measurement.Normalize(columns, "ts", nil)
		if err != nil {
			t.Fatalf("Normalize() unexpected error: %v", err)
		}
		if len(out) != 0 {
			t.Errorf("expected zero records, got %d", len(out))
		}
	})
}
