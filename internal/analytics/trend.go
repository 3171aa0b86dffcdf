// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package analytics

// Trend direction labels.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// slopeDeadBand is the regression slope magnitude below which a metric
// is reported as stable rather than drifting.
const slopeDeadBand = 0.01

// TrendResult describes how a metric moved across the analysis window.
// Current, Average, Min, and Max are omitted entirely when the window
// holds no samples, so consumers can distinguish "no data" from a
// metric that really sits at zero.
type TrendResult struct {
	Direction     string   `json:"direction"`
	Slope         float64  `json:"slope"`
	ChangePercent float64  `json:"change_percent"`
	Current       *float64 `json:"current,omitempty"`
	Average       *float64 `json:"average,omitempty"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
}

// Trend fits a least-squares line through the named field of the given
// samples and classifies the movement. Samples are taken in order, one
// regression point per sample; missing or non-numeric fields count as
// zero so a sensor that stops reporting drags the trend down instead of
// silently shrinking the window.
func Trend(samples []Sample, field string) TrendResult {
	values := fieldValues(samples, field)

	if len(values) == 0 {
		return TrendResult{Direction: TrendStable}
	}

	if len(values) == 1 {
		v := values[0]
		return TrendResult{
			Direction: TrendStable,
			Current:   fptr(v),
			Average:   fptr(round2(v)),
			Min:       fptr(round2(v)),
			Max:       fptr(round2(v)),
		}
	}

	if allZero(values) {
		return TrendResult{Direction: TrendStable}
	}

	n := len(values)

	var sumX, sumY float64
	for i, v := range values {
		sumX += float64(i)
		sumY += v
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var num, den float64
	for i, v := range values {
		dx := float64(i) - meanX
		num += dx * (v - meanY)
		den += dx * dx
	}

	var slope float64
	if den != 0 {
		slope = num / den
	}

	first := values[0]
	last := values[n-1]

	var changePercent float64
	if first != 0 {
		changePercent = (last - first) / first * 100
	}

	direction := TrendStable
	switch {
	case slope > slopeDeadBand:
		direction = TrendIncreasing
	case slope < -slopeDeadBand:
		direction = TrendDecreasing
	}

	sum := 0.0
	minV := values[0]
	maxV := values[0]
	for _, v := range values {
		sum += v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	return TrendResult{
		Direction:     direction,
		Slope:         slope,
		ChangePercent: round2(changePercent),
		Current:       fptr(last),
		Average:       fptr(round2(sum / float64(n))),
		Min:           fptr(round2(minV)),
		Max:           fptr(round2(maxV)),
	}
}
