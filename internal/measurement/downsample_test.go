package measurement_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/sensorstack/telemetryd/internal/measurement"
)

// hourlyRows builds n chronological rows starting at 2024-03-05 00:00:00,
// one hour apart, with humidity 1..n.
func hourlyRows(n int) []measurement.Record {
	rows := make([]measurement.Record, n)
	for i := 0; i < n; i++ {
		rows[i] = measurement.Record{
			"ts":       fmt.Sprintf("2024-03-05 %02d:00:00", i),
			"humidity": float64(i + 1),
		}
	}
	return rows
}

func TestDownsampleWindowSizes(t *testing.T) {
	tests := []struct {
		name       string
		rows       int
		target     int
		humidities []float64
		timestamps []string
	}{
		{
			// 10 rows into 3 windows: sizes [4,3,3], the leftover row
			// going to the leading window.
			name:       "ten rows into three windows",
			rows:       10,
			target:     3,
			humidities: []float64{2.5, 6, 9},
			timestamps: []string{"2024-03-05 01:30:00", "2024-03-05 05:00:00", "2024-03-05 08:00:00"},
		},
		{
			name:       "nine rows into three equal windows",
			rows:       9,
			target:     3,
			humidities: []float64{2, 5, 8},
			timestamps: []string{"2024-03-05 01:00:00", "2024-03-05 04:00:00", "2024-03-05 07:00:00"},
		},
		{
			name:       "ten rows into two windows",
			rows:       10,
			target:     2,
			humidities: []float64{3, 8},
			timestamps: []string{"2024-03-05 02:00:00", "2024-03-05 07:00:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := measurement.Downsample(hourlyRows(tt.rows), "ts", tt.target)
			if err != nil {
				t.Fatalf("Downsample() unexpected error: %v", err)
			}
			if len(out) != tt.target {
				t.Fatalf("len(out) = %d, expected %d", len(out), tt.target)
			}
			for i := range out {
				if got := out[i]["humidity"].(float64); math.Abs(got-tt.humidities[i]) > 1e-9 {
					t.Errorf("window %d humidity = %v, expected %v", i, got, tt.humidities[i])
				}
				if got := out[i]["ts"]; got != tt.timestamps[i] {
					t.Errorf("window %d ts = %v, expected %v", i, got, tt.timestamps[i])
				}
			}
		})
	}
}

func TestDownsampleClampsTarget(t *testing.T) {
	rows := hourlyRows(5)
	out, err := measurement.Downsample(rows, "ts", 10)
	if err != nil {
		t.Fatalf("Downsample() unexpected error: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("len(out) = %d, expected clamp to 5", len(out))
	}
	// Each single-row window's average equals the row itself.
	for i := range out {
		if got := out[i]["humidity"].(float64); got != float64(i+1) {
			t.Errorf("window %d humidity = %v, expected %v", i, got, float64(i+1))
		}
		if got := out[i]["ts"]; got != rows[i]["ts"] {
			t.Errorf("window %d ts = %v, expected %v", i, got, rows[i]["ts"])
		}
	}
}

func TestDownsampleInvalidTarget(t *testing.T) {
	for _, target := range []int{0, -3} {
		if _, err := measurement.Downsample(hourlyRows(4), "ts", target); !errors.Is(err, measurement.ErrInvalidTargetCount) {
			t.Errorf("Downsample(target=%d) error = %v, expected ErrInvalidTargetCount", target, err)
		}
	}
}

func TestDownsampleEmptyInput(t *testing.T) {
	out, err := measurement.Downsample(nil, "ts", 3)
	if err != nil {
		t.Fatalf("Downsample() unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("len(out) = %d, expected 0", len(out))
	}
}

func TestDownsampleNonNumericCarriesFirstValue(t *testing.T) {
	rows := hourlyRows(4)
	for i, label := range []string{"calm", "breezy", "windy", "storm"} {
		rows[i]["conditions"] = label
	}

	out, err := measurement.Downsample(rows, "ts", 2)
	if err != nil {
		t.Fatalf("Downsample() unexpected error: %v", err)
	}
	if got := out[0]["conditions"]; got != "calm" {
		t.Errorf("window 0 conditions = %v, expected first value %q", got, "calm")
	}
	if got := out[1]["conditions"]; got != "windy" {
		t.Errorf("window 1 conditions = %v, expected first value %q", got, "windy")
	}
}

func TestDownsampleMalformedTimestamp(t *testing.T) {
	rows := hourlyRows(2)
	rows[1]["ts"] = "broken"
	if _, err := measurement.Downsample(rows, "ts", 1); !errors.Is(err, measurement.ErrMalformedTimestamp) {
		t.Errorf("error = %v, expected ErrMalformedTimestamp", err)
	}
}
