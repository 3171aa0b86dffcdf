// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package main

import (
	"github.com/spf13/cobra"

	"github.com/danhux/craftwarden/internal/analytics"
)

var (
	trendsHours  int
	trendsMetric string
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Compute a performance metric trend",
	Long:  "trends fits a least-squares line over the performance stream and reports the direction, slope, and range for one metric.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateHours(trendsHours); err != nil {
			return err
		}
		if err := validateMetric(trendsMetric); err != nil {
			return err
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		samples, err := store.Load("performance", trendsHours)
		if err != nil {
			return err
		}

		return printJSON(map[string]interface{}{
			"metric": trendsMetric,
			"hours":  trendsHours,
			"trend":  analytics.Trend(samples, trendsMetric),
		})
	},
}

func init() {
	trendsCmd.Flags().StringVar(&trendsMetric, "metric", "tps", "Performance metric (tps, cpu, or memory)")
	trendsCmd.Flags().IntVar(&trendsHours, "hours", 24, "Look-back window in hours (1-168)")
}
