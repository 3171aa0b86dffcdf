// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package analytics

import "testing"

func TestDetectAnomalies_TooFewSamples(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(100 * (i + 1))
		}

		got := DetectAnomalies(metricSamples("tps", values...), "tps", DefaultAnomalyThreshold)
		if got == nil {
			t.Fatalf("n=%d: expected empty slice, got nil", n)
		}
		if len(got) != 0 {
			t.Errorf("n=%d: got %d anomalies, want 0", n, len(got))
		}
	}
}

func TestDetectAnomalies_IdenticalValues(t *testing.T) {
	got := DetectAnomalies(metricSamples("cpu", 50, 50, 50, 50, 50), "cpu", DefaultAnomalyThreshold)

	if len(got) != 0 {
		t.Errorf("got %d anomalies for a zero-variance window, want 0", len(got))
	}
}

func TestDetectAnomalies_SingleOutlier(t *testing.T) {
	// mean 28, sample stdev ~40.25; the spike scores z ~1.79 and the
	// steady values ~0.45.
	samples := metricSamples("memory", 10, 10, 10, 10, 100)

	tests := []struct {
		name      string
		threshold float64
		wantCount int
	}{
		{"below spike score", 1.5, 1},
		{"above spike score", 1.79, 0},
		{"catches everything over baseline", 0.4, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectAnomalies(samples, "memory", tt.threshold)
			if len(got) != tt.wantCount {
				t.Fatalf("threshold %v: got %d anomalies, want %d", tt.threshold, len(got), tt.wantCount)
			}
		})
	}

	got := DetectAnomalies(samples, "memory", 1.5)
	if len(got) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(got))
	}
	a := got[0]
	if a.Value != 100 {
		t.Errorf("Value = %v, want 100", a.Value)
	}
	if a.ZScore != 1.79 {
		t.Errorf("ZScore = %v, want 1.79", a.ZScore)
	}
	if a.Severity != SeverityMedium {
		t.Errorf("Severity = %q, want %q", a.Severity, SeverityMedium)
	}
	if a.Timestamp != samples[4].Timestamp {
		t.Errorf("Timestamp = %v, want %v", a.Timestamp, samples[4].Timestamp)
	}
	if a.Datetime != samples[4].Datetime {
		t.Errorf("Datetime = %q, want %q", a.Datetime, samples[4].Datetime)
	}
}

func TestDetectAnomalies_HighSeverity(t *testing.T) {
	values := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		values = append(values, 10)
	}
	values = append(values, 1000)

	got := DetectAnomalies(metricSamples("memory", values...), "memory", 2.0)
	if len(got) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(got))
	}
	if got[0].Severity != SeverityHigh {
		t.Errorf("Severity = %q, want %q", got[0].Severity, SeverityHigh)
	}
	if got[0].ZScore <= highSeverityZScore {
		t.Errorf("ZScore = %v, want > %v", got[0].ZScore, highSeverityZScore)
	}
}

func TestDetectAnomalies_ChronologicalOrder(t *testing.T) {
	// Two spikes, one at each end of the window.
	samples := metricSamples("tps", 100, 10, 10, 10, 100)

	got := DetectAnomalies(samples, "tps", 1.0)
	if len(got) != 2 {
		t.Fatalf("got %d anomalies, want 2", len(got))
	}
	if got[0].Timestamp >= got[1].Timestamp {
		t.Errorf("anomalies out of order: %v then %v", got[0].Timestamp, got[1].Timestamp)
	}
}

func TestDetectAnomalies_MissingFieldIsZero(t *testing.T) {
	// A sample without the field contributes a zero, which itself can
	// be the outlier.
	samples := metricSamples("tps", 20, 20, 20, 20)
	samples = append(samples, Sample{
		Timestamp: samples[3].Timestamp + 60,
		Data:      map[string]interface{}{"cpu": 50.0},
	})

	got := DetectAnomalies(samples, "tps", 1.5)
	if len(got) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(got))
	}
	if got[0].Value != 0 {
		t.Errorf("Value = %v, want 0", got[0].Value)
	}
}

func BenchmarkDetectAnomalies(b *testing.B) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = 20
	}
	values[500] = 200
	samples := metricSamples("tps", values...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DetectAnomalies(samples, "tps", DefaultAnomalyThreshold)
	}
}
