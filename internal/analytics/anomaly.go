// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package analytics

import "math"

// DefaultAnomalyThreshold is the Z-score cutoff used when a caller does
// not supply a metric-specific threshold.
const DefaultAnomalyThreshold = 2.0

// ThresholdFor returns the Z-score cutoff used for a known performance
// metric, or DefaultAnomalyThreshold for anything else. TPS tolerates
// less deviation before a sample is flagged.
func ThresholdFor(field string) float64 {
	for _, m := range performanceMetrics {
		if m.name == field {
			return m.threshold
		}
	}
	return DefaultAnomalyThreshold
}

// highSeverityZScore marks the boundary between medium and high
// severity findings.
const highSeverityZScore = 3.0

// Severity labels for anomaly findings.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// Anomaly is a single sample whose value sits unusually far from the
// window mean.
type Anomaly struct {
	Timestamp float64 `json:"timestamp"`
	Datetime  string  `json:"datetime"`
	Value     float64 `json:"value"`
	ZScore    float64 `json:"z_score"`
	Severity  string  `json:"severity"`
}

// DetectAnomalies flags samples whose field value deviates from the
// window mean by more than threshold standard deviations. The standard
// deviation uses the sample (n-1) form. Fewer than three samples, or a
// window with zero variance, yields no findings. Results keep the input
// order, which Load guarantees is ascending by timestamp.
func DetectAnomalies(samples []Sample, field string, threshold float64) []Anomaly {
	anomalies := []Anomaly{}

	values := fieldValues(samples, field)
	n := len(values)
	if n < 3 {
		return anomalies
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	stdev := math.Sqrt(sq / float64(n-1))
	if stdev == 0 {
		return anomalies
	}

	for i, v := range values {
		z := math.Abs(v-mean) / stdev
		if z <= threshold {
			continue
		}

		severity := SeverityMedium
		if z > highSeverityZScore {
			severity = SeverityHigh
		}

		anomalies = append(anomalies, Anomaly{
			Timestamp: samples[i].Timestamp,
			Datetime:  samples[i].Datetime,
			Value:     v,
			ZScore:    round2(z),
			Severity:  severity,
		})
	}

	return anomalies
}
