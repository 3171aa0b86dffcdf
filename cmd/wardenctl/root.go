// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package main

import (
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/danhux/craftwarden/internal/analytics"
	"github.com/danhux/craftwarden/internal/config"
)

var (
	dataDir   string
	outputDir string
)

var rootCmd = &cobra.Command{
	Use:   "wardenctl",
	Short: "Craftwarden analytics toolkit",
	Long:  "wardenctl runs reports, trends, anomaly detection, and forecasts over the Craftwarden sample streams.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Sample stream directory (overrides configuration)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "Report output directory (overrides configuration)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(anomaliesCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(behaviorCmd)
}

// analyticsPaths resolves the stream and output directories. Flags win;
// otherwise the paths come from the loaded configuration. Configuration
// is only loaded when a flag is missing, so a fully-flagged invocation
// works on machines with no config file at all.
func analyticsPaths() (string, string, error) {
	data, out := dataDir, outputDir
	if data != "" && out != "" {
		return data, out, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", "", err
	}
	if data == "" {
		data = cfg.Analytics.DataDir
	}
	if out == "" {
		out = cfg.Analytics.OutputDir
	}
	return data, out, nil
}

func newStore() (*analytics.Store, error) {
	data, _, err := analyticsPaths()
	if err != nil {
		return nil, err
	}
	return analytics.NewStore(data), nil
}

func newProcessor() (*analytics.Processor, error) {
	data, out, err := analyticsPaths()
	if err != nil {
		return nil, err
	}
	return analytics.NewProcessor(analytics.NewStore(data), out), nil
}

func validateHours(hours int) error {
	if hours < 1 || hours > 168 {
		return fmt.Errorf("hours must be between 1 and 168, got %d", hours)
	}
	return nil
}

func validateMetric(metric string) error {
	names := analytics.PerformanceMetricNames()
	for _, name := range names {
		if metric == name {
			return nil
		}
	}
	return fmt.Errorf("unknown metric %q (expected one of %s)", metric, strings.Join(names, ", "))
}

// printJSON writes v to stdout as indented JSON, matching the shape the
// HTTP API returns for the same operation.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
