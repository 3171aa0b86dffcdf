// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package analytics turns raw game-server metric streams into trends,
// anomaly findings, forecasts, and periodic health reports.
//
// # Data model
//
// Metrics are stored as JSONL streams, one file per stream under the
// store's base directory. Every line is a Sample:
//
//	{"timestamp": 1756500000, "datetime": "2026-08-23T14:00:00Z", "data": {"tps": 19.8, "cpu": 47.2, "memory": 1843}}
//
// The data payload is free-form. Numeric analysis reads one named field
// per computation and coerces anything non-numeric to zero, so a field
// that disappears from the payload shows up as a drop to zero rather
// than a shrinking window. Player snapshots carry a roster list instead
// of a numeric map:
//
//	{"timestamp": 1756500000, "datetime": "...", "data": ["Steve", "Alex"]}
//
// # Loading
//
// Store.Load reads a stream, discards lines that fail to parse, keeps
// records whose timestamp falls inside the look-back window, and
// returns them sorted ascending by timestamp. A stream that does not
// exist yet is an empty result, not an error; analysis code never has
// to care whether a server has produced data before.
//
// # Analysis
//
// The computational pieces are pure functions over []Sample:
//
//   - Trend fits an ordinary least-squares line through the values (one
//     point per sample, index as x) and classifies the slope as
//     increasing, decreasing, or stable around a +/-0.01 dead band.
//   - DetectAnomalies flags samples more than a threshold of sample
//     standard deviations from the window mean. Z-scores above 3 are
//     high severity, the rest medium.
//   - Predict extrapolates the average first-to-last change per sample
//     some hours forward. Confidence is simply the sample count capped
//     at 100, so a forecast from five points advertises itself as weak.
//
// # Reports
//
// Processor composes the pieces into health reports. GenerateReport
// analyzes the performance stream (tps, cpu, memory fields), aggregates
// player behavior, and derives an overall status of healthy, warning,
// or critical together with operator-facing warnings and
// recommendations. GenerateAll produces the standard 1h/6h/24h/168h set
// and persists it under the report directory.
//
// Processor reads through the DataSource interface; production wiring
// hands it a *Store, tests hand it an in-memory fake.
package analytics
