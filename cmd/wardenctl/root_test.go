// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package main

import (
	"testing"
)

func TestValidateHours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		hours   int
		wantErr bool
	}{
		{name: "lower bound", hours: 1, wantErr: false},
		{name: "default", hours: 24, wantErr: false},
		{name: "upper bound", hours: 168, wantErr: false},
		{name: "zero", hours: 0, wantErr: true},
		{name: "negative", hours: -5, wantErr: true},
		{name: "too large", hours: 169, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateHours(tt.hours)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateHours(%d) error = %v, wantErr %v", tt.hours, err, tt.wantErr)
			}
		})
	}
}

func TestValidateMetric(t *testing.T) {
	t.Parallel()

	for _, metric := range []string{"tps", "cpu", "memory"} {
		if err := validateMetric(metric); err != nil {
			t.Errorf("validateMetric(%q) error = %v, want nil", metric, err)
		}
	}

	if err := validateMetric("latency"); err == nil {
		t.Error("validateMetric(latency) error = nil, want error")
	}
	if err := validateMetric(""); err == nil {
		t.Error("validateMetric(empty) error = nil, want error")
	}
}

// Fully-flagged invocations must not require a config file.
func TestAnalyticsPathsFlagsOnly(t *testing.T) {
	origData, origOut := dataDir, outputDir
	defer func() { dataDir, outputDir = origData, origOut }()

	dataDir = "/tmp/streams"
	outputDir = "/tmp/reports"

	data, out, err := analyticsPaths()
	if err != nil {
		t.Fatalf("analyticsPaths() error = %v", err)
	}
	if data != "/tmp/streams" {
		t.Errorf("data = %q, want /tmp/streams", data)
	}
	if out != "/tmp/reports" {
		t.Errorf("out = %q, want /tmp/reports", out)
	}
}
