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
	predictHours  int
	predictMetric string
	predictAhead  int
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Forecast a performance metric",
	Long:  "predict projects a metric forward from the recent trend. Only TPS and memory project usefully; CPU is too spiky to forecast.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateHours(predictHours); err != nil {
			return err
		}
		if predictMetric != "tps" && predictMetric != "memory" {
			return fmt.Errorf("metric must be tps or memory, got %q", predictMetric)
		}
		if predictAhead < 1 || predictAhead > 24 {
			return fmt.Errorf("hours-ahead must be between 1 and 24, got %d", predictAhead)
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		samples, err := store.Load("performance", predictHours)
		if err != nil {
			return err
		}

		return printJSON(map[string]interface{}{
			"metric":      predictMetric,
			"hours":       predictHours,
			"hours_ahead": predictAhead,
			"prediction":  analytics.Predict(samples, predictMetric, predictAhead),
		})
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictMetric, "metric", "tps", "Performance metric (tps or memory)")
	predictCmd.Flags().IntVar(&predictHours, "hours", 24, "History window in hours (1-168)")
	predictCmd.Flags().IntVar(&predictAhead, "hours-ahead", 1, "Projection distance in hours (1-24)")
}
