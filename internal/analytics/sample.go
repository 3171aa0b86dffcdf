// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package analytics

import (
	"fmt"
	"math"
	"strconv"
)

// Sample is one record of a metric stream. The payload under Data is
// either a map of metric name to numeric value (performance-class
// streams) or a list of identifiers (players-class streams).
type Sample struct {
	Timestamp float64     `json:"timestamp"`
	Datetime  string      `json:"datetime,omitempty"`
	Data      interface{} `json:"data"`
}

// Field extracts a numeric metric value from the sample payload.
// Missing fields, non-map payloads, and non-numeric values all coerce
// to 0 rather than erroring; this default participates in trend and
// anomaly math and is deliberate.
func (s Sample) Field(field string) float64 {
	m, ok := s.Data.(map[string]interface{})
	if !ok {
		return 0
	}
	return coerceFloat(m[field])
}

// Players returns the payload as a list of identifier strings, or nil
// when the payload is not a list.
func (s Sample) Players() []string {
	list, ok := s.Data.([]interface{})
	if !ok {
		return nil
	}
	players := make([]string, 0, len(list))
	for _, el := range list {
		players = append(players, canonicalID(el))
	}
	return players
}

// coerceFloat converts arbitrary JSON values to float64 with a zero
// default for anything non-numeric.
func coerceFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// canonicalID renders an arbitrary payload element as a stable string
// key so numeric and string identifiers count distinctly but
// consistently across samples.
func canonicalID(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return "null"
	default:
		return fmt.Sprint(x)
	}
}

// fieldValues extracts one metric column from a sample sequence, in
// input order.
func fieldValues(samples []Sample, field string) []float64 {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Field(field)
	}
	return values
}

// allZero reports whether every value in the slice is exactly zero.
func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

// round2 rounds to 2 decimal places, ties away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round1 rounds to 1 decimal place, ties away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// fptr returns a pointer to v, used for optional numeric report fields
// that must be absent (not zero) when there is no data.
func fptr(v float64) *float64 {
	return &v
}
