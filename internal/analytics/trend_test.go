// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package analytics

import (
	"testing"

	json "github.com/goccy/go-json"
)

func TestTrend_NoSamples(t *testing.T) {
	got := Trend(nil, "tps")

	if got.Direction != TrendStable {
		t.Errorf("Direction = %q, want %q", got.Direction, TrendStable)
	}
	if got.Slope != 0 || got.ChangePercent != 0 {
		t.Errorf("Slope = %v, ChangePercent = %v, want both 0", got.Slope, got.ChangePercent)
	}
	if got.Current != nil || got.Average != nil || got.Min != nil || got.Max != nil {
		t.Error("summary stats should be absent for an empty window")
	}
}

func TestTrend_SingleSample(t *testing.T) {
	got := Trend(metricSamples("tps", 19.5), "tps")

	if got.Direction != TrendStable {
		t.Errorf("Direction = %q, want %q", got.Direction, TrendStable)
	}
	if got.Slope != 0 || got.ChangePercent != 0 {
		t.Errorf("Slope = %v, ChangePercent = %v, want both 0", got.Slope, got.ChangePercent)
	}
	for name, p := range map[string]*float64{
		"Current": got.Current,
		"Average": got.Average,
		"Min":     got.Min,
		"Max":     got.Max,
	} {
		if deref(t, p) != 19.5 {
			t.Errorf("%s = %v, want 19.5", name, *p)
		}
	}
}

func TestTrend_SingleZeroSample(t *testing.T) {
	// One sample at zero still reports summary stats; only multi-sample
	// all-zero windows collapse to the bare result.
	got := Trend(metricSamples("tps", 0), "tps")

	if got.Current == nil || *got.Current != 0 {
		t.Errorf("Current = %v, want 0", got.Current)
	}
	if got.Average == nil || got.Min == nil || got.Max == nil {
		t.Error("summary stats should be present for a single zero sample")
	}
}

func TestTrend_AllZeroValues(t *testing.T) {
	got := Trend(metricSamples("cpu", 0, 0, 0, 0), "cpu")

	if got.Direction != TrendStable {
		t.Errorf("Direction = %q, want %q", got.Direction, TrendStable)
	}
	if got.Slope != 0 || got.ChangePercent != 0 {
		t.Errorf("Slope = %v, ChangePercent = %v, want both 0", got.Slope, got.ChangePercent)
	}
	if got.Current != nil || got.Average != nil || got.Min != nil || got.Max != nil {
		t.Error("summary stats should be absent for an all-zero window")
	}
}

func TestTrend_MissingFieldCollapsesToZero(t *testing.T) {
	samples := metricSamples("tps", 20, 19, 18)
	got := Trend(samples, "players_online")

	if got.Direction != TrendStable {
		t.Errorf("Direction = %q, want %q", got.Direction, TrendStable)
	}
	if got.Current != nil {
		t.Error("summary stats should be absent when the field never appears")
	}
}

func TestTrend_Directions(t *testing.T) {
	tests := []struct {
		name          string
		values        []float64
		wantDirection string
		wantSlope     float64
		wantChange    float64
	}{
		{
			name:          "strictly increasing",
			values:        []float64{10, 12, 14, 16, 18},
			wantDirection: TrendIncreasing,
			wantSlope:     2,
			wantChange:    80,
		},
		{
			name:          "strictly decreasing",
			values:        []float64{20, 19.5, 19, 18.5},
			wantDirection: TrendDecreasing,
			wantSlope:     -0.5,
			wantChange:    -7.5,
		},
		{
			name:          "flat",
			values:        []float64{7, 7, 7, 7},
			wantDirection: TrendStable,
			wantSlope:     0,
			wantChange:    0,
		},
		{
			name:          "drift inside dead band",
			values:        []float64{5, 5.0078125, 5.015625, 5.0234375},
			wantDirection: TrendStable,
			wantSlope:     0.0078125,
			wantChange:    0.47,
		},
		{
			name:          "downward drift inside dead band",
			values:        []float64{5.0234375, 5.015625, 5.0078125, 5},
			wantDirection: TrendStable,
			wantSlope:     -0.0078125,
			wantChange:    -0.47,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trend(metricSamples("tps", tt.values...), "tps")

			if got.Direction != tt.wantDirection {
				t.Errorf("Direction = %q, want %q", got.Direction, tt.wantDirection)
			}
			if got.Slope != tt.wantSlope {
				t.Errorf("Slope = %v, want %v", got.Slope, tt.wantSlope)
			}
			if got.ChangePercent != tt.wantChange {
				t.Errorf("ChangePercent = %v, want %v", got.ChangePercent, tt.wantChange)
			}
		})
	}
}

func TestTrend_SummaryStats(t *testing.T) {
	got := Trend(metricSamples("memory", 1000, 1100, 1050, 1200), "memory")

	if deref(t, got.Current) != 1200 {
		t.Errorf("Current = %v, want 1200", *got.Current)
	}
	if deref(t, got.Average) != 1087.5 {
		t.Errorf("Average = %v, want 1087.5", *got.Average)
	}
	if deref(t, got.Min) != 1000 {
		t.Errorf("Min = %v, want 1000", *got.Min)
	}
	if deref(t, got.Max) != 1200 {
		t.Errorf("Max = %v, want 1200", *got.Max)
	}
}

func TestTrend_ChangePercentRounding(t *testing.T) {
	got := Trend(metricSamples("tps", 3, 4), "tps")

	if got.ChangePercent != 33.33 {
		t.Errorf("ChangePercent = %v, want 33.33", got.ChangePercent)
	}
	if got.Slope != 1 {
		t.Errorf("Slope = %v, want 1", got.Slope)
	}
}

func TestTrend_ZeroFirstValue(t *testing.T) {
	// Change percent is undefined against a zero baseline and reports 0.
	got := Trend(metricSamples("cpu", 0, 10), "cpu")

	if got.ChangePercent != 0 {
		t.Errorf("ChangePercent = %v, want 0", got.ChangePercent)
	}
	if got.Direction != TrendIncreasing {
		t.Errorf("Direction = %q, want %q", got.Direction, TrendIncreasing)
	}
	if deref(t, got.Current) != 10 {
		t.Errorf("Current = %v, want 10", *got.Current)
	}
}

func TestTrendResult_JSONShape(t *testing.T) {
	t.Run("empty window", func(t *testing.T) {
		data, err := json.Marshal(Trend(nil, "tps"))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var m map[string]interface{}
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(m) != 3 {
			t.Errorf("got %d keys %v, want direction/slope/change_percent only", len(m), m)
		}
		for _, key := range []string{"direction", "slope", "change_percent"} {
			if _, ok := m[key]; !ok {
				t.Errorf("missing key %q", key)
			}
		}
	})

	t.Run("populated window", func(t *testing.T) {
		data, err := json.Marshal(Trend(metricSamples("tps", 20, 19), "tps"))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var m map[string]interface{}
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		for _, key := range []string{"direction", "slope", "change_percent", "current", "average", "min", "max"} {
			if _, ok := m[key]; !ok {
				t.Errorf("missing key %q", key)
			}
		}
	})
}

func BenchmarkTrend(b *testing.B) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = 20 - float64(i)*0.001
	}
	samples := metricSamples("tps", values...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Trend(samples, "tps")
	}
}
