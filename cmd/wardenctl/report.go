// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package main

import (
	"github.com/spf13/cobra"
)

var (
	reportHours int
	reportAll   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a server health report",
	Long:  "report reads the sample streams and prints the health report for one window. With --all it generates the 1h, 6h, 24h, and 168h reports and persists latest_report.json and all_reports.json to the output directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		proc, err := newProcessor()
		if err != nil {
			return err
		}

		if reportAll {
			reports, err := proc.GenerateAll()
			if err != nil {
				return err
			}
			return printJSON(reports)
		}

		if err := validateHours(reportHours); err != nil {
			return err
		}
		report, err := proc.GenerateReport(reportHours)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportHours, "hours", 24, "Look-back window in hours (1-168)")
	reportCmd.Flags().BoolVar(&reportAll, "all", false, "Generate every report period and persist them (ignores --hours)")
}
