// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package analytics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/danhux/craftwarden/internal/metrics"
)

// Health status labels for report summaries.
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// Thresholds driving summary status decisions.
const (
	lowTPSThreshold      = 18.0
	defaultTPS           = 20.0
	highMemoryThreshold  = 3000.0
	criticalAnomalyCount = 3
	forecastHoursAhead   = 1
	tpsAnomalyThreshold  = 1.4
	cpuAnomalyThreshold  = 1.5
	memAnomalyThreshold  = 1.5
)

// reportPeriods are the look-back windows generated by GenerateAll,
// in hours.
var reportPeriods = []int{1, 6, 24, 168}

// performanceMetrics describes the fields read from the performance
// stream. TPS tolerates less deviation than CPU or memory before a
// sample is flagged, and CPU is too spiky for a one-hour projection to
// mean anything.
var performanceMetrics = []struct {
	name      string
	threshold float64
	predict   bool
}{
	{name: "tps", threshold: tpsAnomalyThreshold, predict: true},
	{name: "cpu", threshold: cpuAnomalyThreshold, predict: false},
	{name: "memory", threshold: memAnomalyThreshold, predict: true},
}

// PerformanceMetricNames returns the fields read from the performance
// stream, in report order.
func PerformanceMetricNames() []string {
	names := make([]string, len(performanceMetrics))
	for i, m := range performanceMetrics {
		names[i] = m.name
	}
	return names
}

// MetricReport is the per-metric block of a health report.
type MetricReport struct {
	Trend      TrendResult `json:"trend"`
	Anomalies  []Anomaly   `json:"anomalies"`
	Prediction *Prediction `json:"prediction,omitempty"`
	Current    float64     `json:"current"`
	Average    float64     `json:"average"`
}

// Summary is the operator-facing verdict of a report.
type Summary struct {
	Status          string   `json:"status"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

// Report is a complete server health report for one look-back window.
// Performance is empty when the window holds no performance samples.
type Report struct {
	GeneratedAt    string                  `json:"generated_at"`
	PeriodHours    int                     `json:"period_hours"`
	PlayerBehavior BehaviorSummary         `json:"player_behavior"`
	Performance    map[string]MetricReport `json:"performance"`
	Summary        Summary                 `json:"summary"`
}

// Processor turns raw metric streams into trend, anomaly, forecast, and
// health-report results. It reads through a DataSource and writes
// finished reports under outputDir.
type Processor struct {
	src       DataSource
	outputDir string
}

// NewProcessor creates a processor reading from src and writing reports
// to outputDir.
func NewProcessor(src DataSource, outputDir string) *Processor {
	return &Processor{src: src, outputDir: outputDir}
}

// GenerateReport builds a health report covering the last hours hours.
func (p *Processor) GenerateReport(hours int) (Report, error) {
	start := time.Now()
	report, err := p.generateReport(hours)
	metrics.RecordReportGeneration(periodLabel(hours), time.Since(start), err)
	return report, err
}

func (p *Processor) generateReport(hours int) (Report, error) {
	behavior, err := p.PlayerBehavior(hours)
	if err != nil {
		return Report{}, err
	}

	perf, err := p.src.Load("performance", hours)
	if err != nil {
		return Report{}, fmt.Errorf("load performance: %w", err)
	}

	performance := make(map[string]MetricReport)
	if len(perf) > 0 {
		for _, m := range performanceMetrics {
			performance[m.name] = buildMetricReport(perf, m.name, m.threshold, m.predict)
		}
	}

	return Report{
		GeneratedAt:    time.Now().Format(time.RFC3339),
		PeriodHours:    hours,
		PlayerBehavior: behavior,
		Performance:    performance,
		Summary:        buildSummary(performance),
	}, nil
}

func buildMetricReport(perf []Sample, field string, threshold float64, predict bool) MetricReport {
	values := fieldValues(perf, field)

	var current, average float64
	if len(values) > 0 {
		current = values[len(values)-1]
		var sum float64
		for _, v := range values {
			sum += v
		}
		average = round2(sum / float64(len(values)))
	}

	report := MetricReport{
		Trend:     Trend(perf, field),
		Anomalies: DetectAnomalies(perf, field, threshold),
		Current:   current,
		Average:   average,
	}
	if predict {
		prediction := Predict(perf, field, forecastHoursAhead)
		report.Prediction = &prediction
	}
	return report
}

// buildSummary derives the overall status from the per-metric blocks.
// Checks run in a fixed order so a critical anomaly verdict overrides
// earlier warnings. A server with no TPS block is treated as running at
// the nominal 20 ticks per second.
func buildSummary(performance map[string]MetricReport) Summary {
	status := StatusHealthy
	warnings := []string{}
	recommendations := []string{}

	tps, hasTPS := performance["tps"]
	mem, hasMem := performance["memory"]

	tpsCurrent := defaultTPS
	if hasTPS {
		tpsCurrent = tps.Current
	}
	if tpsCurrent < lowTPSThreshold {
		status = StatusWarning
		warnings = append(warnings, "Low TPS detected - server may be lagging")
	}

	if hasMem && mem.Current > highMemoryThreshold {
		if status == StatusHealthy {
			status = StatusWarning
		}
		warnings = append(warnings, "High memory usage detected")
	}

	if hasTPS && len(tps.Anomalies) > criticalAnomalyCount {
		status = StatusCritical
		warnings = append(warnings, fmt.Sprintf("%d TPS anomalies detected", len(tps.Anomalies)))
	}

	if hasTPS && tps.Trend.Direction == TrendDecreasing {
		recommendations = append(recommendations, "Consider reducing view distance or max players")
	}
	if hasMem && mem.Trend.Direction == TrendIncreasing {
		recommendations = append(recommendations, "Monitor memory usage - may need optimization")
	}

	return Summary{
		Status:          status,
		Warnings:        warnings,
		Recommendations: recommendations,
	}
}

// SaveReport writes v as indented JSON under the processor's output
// directory and returns the full path written.
func (p *Processor) SaveReport(v interface{}, filename string) (string, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(p.outputDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}

// GenerateAll produces reports for every standard period, persists the
// 24h report as latest_report.json and the full set as
// all_reports.json, and returns the set keyed by period label.
func (p *Processor) GenerateAll() (map[string]Report, error) {
	reports := make(map[string]Report)
	for _, hours := range reportPeriods {
		report, err := p.GenerateReport(hours)
		if err != nil {
			return nil, fmt.Errorf("generate %s report: %w", periodLabel(hours), err)
		}
		reports[periodLabel(hours)] = report
	}

	if _, err := p.SaveReport(reports["24h"], "latest_report.json"); err != nil {
		return nil, err
	}
	if _, err := p.SaveReport(reports, "all_reports.json"); err != nil {
		return nil, err
	}
	return reports, nil
}

func periodLabel(hours int) string {
	return fmt.Sprintf("%dh", hours)
}
