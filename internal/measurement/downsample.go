package measurement

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Downsample partitions chronologically ordered rows into target
// contiguous windows and emits one averaged record per window. Window
// sizes are floor(n/target), with the n mod target leftover rows
// distributed one each to the leading windows. The temporal column
// averages to the mean instant; other numeric columns to the arithmetic
// mean; non-numeric columns carry the window's first value unchanged.
//
// A target above len(rows) clamps to len(rows). A target below 1 is an
// input error. Input rows are not modified.
func Downsample(rows []Record, temporalColumn string, target int) ([]Record, error) {
	if target < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTargetCount, target)
	}

	n := len(rows)
	if n == 0 {
		return []Record{}, nil
	}
	if target > n {
		target = n
	}

	base := n / target
	extra := n % target

	out := make([]Record, 0, target)
	start := 0
	for i := 0; i < target; i++ {
		size := base
		if i < extra {
			size++
		}
		window := rows[start : start+size]
		start += size

		averaged, err := windowMean(window, temporalColumn)
		if err != nil {
			return nil, err
		}
		out = append(out, averaged)
	}
	return out, nil
}

// windowMean collapses one window into a single averaged record.
func windowMean(window []Record, temporalColumn string) (Record, error) {
	out := make(Record, len(window[0]))

	for col := range window[0] {
		if col == temporalColumn {
			mean, err := meanInstant(window, col)
			if err != nil {
				return nil, err
			}
			out[col] = mean.Format(TimeLayout)
			continue
		}

		values := make([]float64, 0, len(window))
		numeric := true
		for _, rec := range window {
			f, ok := toFloat(rec[col])
			if !ok {
				numeric = false
				break
			}
			values = append(values, f)
		}
		if numeric {
			out[col] = stat.Mean(values, nil)
		} else {
			out[col] = window[0][col]
		}
	}
	return out, nil
}

// meanInstant converts each timestamp to an absolute instant, means the
// instants, and converts back. Millisecond resolution keeps sub-second
// precision through the division without overflowing float64.
func meanInstant(window []Record, col string) (time.Time, error) {
	instants := make([]float64, 0, len(window))
	for i, rec := range window {
		ts, err := ParseTimestamp(rec[col])
		if err != nil {
			return time.Time{}, fmt.Errorf("window row %d, column %q: %w", i, col, err)
		}
		instants = append(instants, float64(ts.UnixMilli()))
	}
	mean := stat.Mean(instants, nil)
	return time.UnixMilli(int64(mean)).UTC(), nil
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	default:
		return 0, false
	}
}
