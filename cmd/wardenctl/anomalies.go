// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danhux/craftwarden/internal/analytics"
)

var (
	anomaliesHours     int
	anomaliesMetric    string
	anomaliesThreshold float64
)

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies",
	Short: "Find samples deviating from the window mean",
	Long:  "anomalies flags performance samples whose z-score exceeds the threshold. Each metric has its own default threshold; TPS tolerates less deviation than CPU or memory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateHours(anomaliesHours); err != nil {
			return err
		}
		if err := validateMetric(anomaliesMetric); err != nil {
			return err
		}

		threshold := anomaliesThreshold
		if threshold == 0 {
			threshold = analytics.ThresholdFor(anomaliesMetric)
		}
		if threshold <= 0 {
			return fmt.Errorf("threshold must be positive, got %g", threshold)
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		samples, err := store.Load("performance", anomaliesHours)
		if err != nil {
			return err
		}

		found := analytics.DetectAnomalies(samples, anomaliesMetric, threshold)
		return printJSON(map[string]interface{}{
			"metric":    anomaliesMetric,
			"hours":     anomaliesHours,
			"threshold": threshold,
			"count":     len(found),
			"anomalies": found,
		})
	},
}

func init() {
	anomaliesCmd.Flags().StringVar(&anomaliesMetric, "metric", "tps", "Performance metric (tps, cpu, or memory)")
	anomaliesCmd.Flags().IntVar(&anomaliesHours, "hours", 24, "Look-back window in hours (1-168)")
	anomaliesCmd.Flags().Float64Var(&anomaliesThreshold, "threshold", 0, "Z-score cutoff (0 uses the per-metric default)")
}
