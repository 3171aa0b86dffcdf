// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package analytics

// Prediction is a linear extrapolation of a metric some hours into the
// future. Trend is omitted when there are too few samples to derive a
// rate of change.
type Prediction struct {
	Predicted  float64  `json:"predicted"`
	Confidence float64  `json:"confidence"`
	Trend      *float64 `json:"trend,omitempty"`
}

// Predict extrapolates the named field hoursAhead hours forward by
// extending the average per-sample change between the first and last
// values of the window. Confidence grows linearly with sample count and
// saturates at 100 once the window holds a hundred samples. The
// projection is deliberately unbounded; callers decide whether a
// negative or runaway value is meaningful for their metric.
func Predict(samples []Sample, field string, hoursAhead int) Prediction {
	values := fieldValues(samples, field)
	n := len(values)
	if n < 2 {
		return Prediction{}
	}

	trendPerPoint := (values[n-1] - values[0]) / float64(n-1)
	predicted := values[n-1] + trendPerPoint*float64(hoursAhead)

	confidence := (float64(n) / 100.0) * 100.0
	if confidence > 100 {
		confidence = 100
	}
	if confidence < 0 {
		confidence = 0
	}

	return Prediction{
		Predicted:  round2(predicted),
		Confidence: round1(confidence),
		Trend:      fptr(round2(trendPerPoint)),
	}
}
