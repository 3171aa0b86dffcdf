// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package analytics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

// fakeSource serves canned samples per stream, ignoring the window.
type fakeSource struct {
	streams map[string][]Sample
	errs    map[string]error
}

func (f *fakeSource) Load(stream string, hours int) ([]Sample, error) {
	if err := f.errs[stream]; err != nil {
		return nil, err
	}
	samples := f.streams[stream]
	if samples == nil {
		samples = []Sample{}
	}
	return samples, nil
}

func perfSample(ts int64, tps, cpu, memory float64) Sample {
	return Sample{
		Timestamp: float64(ts),
		Datetime:  time.Unix(ts, 0).Format(time.RFC3339),
		Data:      map[string]interface{}{"tps": tps, "cpu": cpu, "memory": memory},
	}
}

func TestGenerateReport(t *testing.T) {
	now := time.Now().Unix()
	src := &fakeSource{streams: map[string][]Sample{
		"performance": {
			perfSample(now-3600, 20, 50, 1000),
			perfSample(now-1800, 19.5, 55, 1100),
			perfSample(now, 20, 52, 1050),
		},
	}}
	p := NewProcessor(src, t.TempDir())

	report, err := p.GenerateReport(24)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}

	if report.PeriodHours != 24 {
		t.Errorf("PeriodHours = %d, want 24", report.PeriodHours)
	}
	if _, err := time.Parse(time.RFC3339, report.GeneratedAt); err != nil {
		t.Errorf("GeneratedAt %q is not RFC 3339: %v", report.GeneratedAt, err)
	}

	for _, metric := range []string{"tps", "cpu", "memory"} {
		if _, ok := report.Performance[metric]; !ok {
			t.Errorf("performance block missing %q", metric)
		}
	}

	tps := report.Performance["tps"]
	if tps.Current != 20 {
		t.Errorf("tps current = %v, want 20", tps.Current)
	}
	if tps.Prediction == nil {
		t.Error("tps prediction missing")
	}

	memory := report.Performance["memory"]
	if memory.Average != 1050.0 {
		t.Errorf("memory average = %v, want 1050.0", memory.Average)
	}
	if memory.Prediction == nil {
		t.Error("memory prediction missing")
	} else if memory.Prediction.Predicted != 1075 {
		t.Errorf("memory prediction = %v, want 1075", memory.Prediction.Predicted)
	}

	if cpu := report.Performance["cpu"]; cpu.Prediction != nil {
		t.Error("cpu should not carry a prediction")
	}

	if report.Summary.Status != StatusHealthy {
		t.Errorf("Status = %q, want %q", report.Summary.Status, StatusHealthy)
	}
	if len(report.Summary.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", report.Summary.Warnings)
	}
}

func TestGenerateReport_JSONShape(t *testing.T) {
	now := time.Now().Unix()
	src := &fakeSource{streams: map[string][]Sample{
		"performance": {
			perfSample(now-3600, 20, 50, 1000),
			perfSample(now-1800, 19.5, 55, 1100),
			perfSample(now, 20, 52, 1050),
		},
	}}
	p := NewProcessor(src, t.TempDir())

	report, err := p.GenerateReport(24)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	perf, ok := m["performance"].(map[string]interface{})
	if !ok {
		t.Fatalf("performance is %T, want object", m["performance"])
	}

	cpu, ok := perf["cpu"].(map[string]interface{})
	if !ok {
		t.Fatalf("cpu block is %T, want object", perf["cpu"])
	}
	if _, exists := cpu["prediction"]; exists {
		t.Error("cpu block must not contain a prediction key")
	}

	tps := perf["tps"].(map[string]interface{})
	anomalies, ok := tps["anomalies"].([]interface{})
	if !ok {
		t.Fatalf("anomalies is %T, want array; null breaks dashboard consumers", tps["anomalies"])
	}
	if len(anomalies) != 0 {
		t.Errorf("anomalies = %v, want empty", anomalies)
	}
}

func TestGenerateReport_NoPerformanceData(t *testing.T) {
	p := NewProcessor(&fakeSource{}, t.TempDir())

	report, err := p.GenerateReport(24)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}

	if len(report.Performance) != 0 {
		t.Errorf("Performance = %v, want empty", report.Performance)
	}
	if report.Summary.Status != StatusHealthy {
		t.Errorf("Status = %q, want %q; no data is not an incident", report.Summary.Status, StatusHealthy)
	}
	if report.Summary.Warnings == nil || report.Summary.Recommendations == nil {
		t.Error("Warnings and Recommendations must be empty slices, not nil")
	}
}

func TestGenerateReport_LoadErrors(t *testing.T) {
	for _, stream := range []string{"players", "player_events", "performance"} {
		t.Run(stream, func(t *testing.T) {
			src := &fakeSource{errs: map[string]error{stream: errors.New("io failure")}}
			p := NewProcessor(src, t.TempDir())

			if _, err := p.GenerateReport(24); err == nil {
				t.Errorf("expected %s load error to propagate", stream)
			}
		})
	}
}

func TestBuildSummary(t *testing.T) {
	anomalies := func(n int) []Anomaly {
		list := make([]Anomaly, n)
		return list
	}

	tests := []struct {
		name        string
		performance map[string]MetricReport
		wantStatus  string
		wantWarn    []string
		wantRec     []string
	}{
		{
			name:        "no metrics",
			performance: map[string]MetricReport{},
			wantStatus:  StatusHealthy,
		},
		{
			name: "all nominal",
			performance: map[string]MetricReport{
				"tps":    {Current: 20},
				"memory": {Current: 1000},
			},
			wantStatus: StatusHealthy,
		},
		{
			name: "low tps",
			performance: map[string]MetricReport{
				"tps": {Current: 15},
			},
			wantStatus: StatusWarning,
			wantWarn:   []string{"Low TPS detected - server may be lagging"},
		},
		{
			name: "tps at the threshold",
			performance: map[string]MetricReport{
				"tps": {Current: 18},
			},
			wantStatus: StatusHealthy,
		},
		{
			name: "high memory",
			performance: map[string]MetricReport{
				"tps":    {Current: 20},
				"memory": {Current: 3500},
			},
			wantStatus: StatusWarning,
			wantWarn:   []string{"High memory usage detected"},
		},
		{
			name: "memory at the threshold",
			performance: map[string]MetricReport{
				"memory": {Current: 3000},
			},
			wantStatus: StatusHealthy,
		},
		{
			name: "anomaly storm",
			performance: map[string]MetricReport{
				"tps": {Current: 20, Anomalies: anomalies(4)},
			},
			wantStatus: StatusCritical,
			wantWarn:   []string{"4 TPS anomalies detected"},
		},
		{
			name: "three anomalies stay subcritical",
			performance: map[string]MetricReport{
				"tps": {Current: 20, Anomalies: anomalies(3)},
			},
			wantStatus: StatusHealthy,
		},
		{
			name: "anomaly storm overrides memory warning",
			performance: map[string]MetricReport{
				"tps":    {Current: 20, Anomalies: anomalies(5)},
				"memory": {Current: 3500},
			},
			wantStatus: StatusCritical,
			wantWarn:   []string{"High memory usage detected", "5 TPS anomalies detected"},
		},
		{
			name: "low tps and anomaly storm",
			performance: map[string]MetricReport{
				"tps": {Current: 12, Anomalies: anomalies(6)},
			},
			wantStatus: StatusCritical,
			wantWarn: []string{
				"Low TPS detected - server may be lagging",
				"6 TPS anomalies detected",
			},
		},
		{
			name: "falling tps trend",
			performance: map[string]MetricReport{
				"tps": {Current: 19, Trend: TrendResult{Direction: TrendDecreasing}},
			},
			wantStatus: StatusHealthy,
			wantRec:    []string{"Consider reducing view distance or max players"},
		},
		{
			name: "rising memory trend",
			performance: map[string]MetricReport{
				"memory": {Current: 2000, Trend: TrendResult{Direction: TrendIncreasing}},
			},
			wantStatus: StatusHealthy,
			wantRec:    []string{"Monitor memory usage - may need optimization"},
		},
		{
			name: "missing tps block assumes nominal",
			performance: map[string]MetricReport{
				"cpu": {Current: 99},
			},
			wantStatus: StatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSummary(tt.performance)

			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if len(got.Warnings) != len(tt.wantWarn) {
				t.Fatalf("Warnings = %v, want %v", got.Warnings, tt.wantWarn)
			}
			for i := range tt.wantWarn {
				if got.Warnings[i] != tt.wantWarn[i] {
					t.Errorf("Warnings[%d] = %q, want %q", i, got.Warnings[i], tt.wantWarn[i])
				}
			}
			if len(got.Recommendations) != len(tt.wantRec) {
				t.Fatalf("Recommendations = %v, want %v", got.Recommendations, tt.wantRec)
			}
			for i := range tt.wantRec {
				if got.Recommendations[i] != tt.wantRec[i] {
					t.Errorf("Recommendations[%d] = %q, want %q", i, got.Recommendations[i], tt.wantRec[i])
				}
			}
		})
	}
}

func TestSaveReport(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(&fakeSource{}, dir)

	path, err := p.SaveReport(map[string]string{"status": "healthy"}, "check.json")
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if path != filepath.Join(dir, "check.json") {
		t.Errorf("path = %q, want under %q", path, dir)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved report: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"status\"") {
		t.Errorf("report not indented:\n%s", data)
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("saved report is not valid JSON: %v", err)
	}
	if m["status"] != "healthy" {
		t.Errorf("status = %q, want %q", m["status"], "healthy")
	}
}

func TestSaveReport_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "daily")
	p := NewProcessor(&fakeSource{}, dir)

	if _, err := p.SaveReport(Report{}, "r.json"); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "r.json")); err != nil {
		t.Errorf("report file missing: %v", err)
	}
}

func TestGenerateAll(t *testing.T) {
	now := time.Now().Unix()
	dir := t.TempDir()
	src := &fakeSource{streams: map[string][]Sample{
		"performance": {
			perfSample(now-120, 20, 50, 1000),
			perfSample(now-60, 19.8, 51, 1010),
			perfSample(now, 19.9, 50, 1005),
		},
	}}
	p := NewProcessor(src, dir)

	reports, err := p.GenerateAll()
	if err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}

	for _, period := range []string{"1h", "6h", "24h", "168h"} {
		if _, ok := reports[period]; !ok {
			t.Errorf("missing %s report", period)
		}
	}
	if len(reports) != 4 {
		t.Errorf("got %d reports, want 4", len(reports))
	}

	var latest Report
	data, err := os.ReadFile(filepath.Join(dir, "latest_report.json"))
	if err != nil {
		t.Fatalf("read latest_report.json: %v", err)
	}
	if err := json.Unmarshal(data, &latest); err != nil {
		t.Fatalf("unmarshal latest_report.json: %v", err)
	}
	if latest.PeriodHours != 24 {
		t.Errorf("latest report covers %dh, want 24h", latest.PeriodHours)
	}

	var all map[string]Report
	data, err = os.ReadFile(filepath.Join(dir, "all_reports.json"))
	if err != nil {
		t.Fatalf("read all_reports.json: %v", err)
	}
	if err := json.Unmarshal(data, &all); err != nil {
		t.Fatalf("unmarshal all_reports.json: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("all_reports.json has %d entries, want 4", len(all))
	}
}

func TestGenerateAll_PropagatesErrors(t *testing.T) {
	src := &fakeSource{errs: map[string]error{"performance": errors.New("io failure")}}
	p := NewProcessor(src, t.TempDir())

	if _, err := p.GenerateAll(); err == nil {
		t.Error("expected generation error to propagate")
	}
}
