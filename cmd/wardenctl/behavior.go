// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package main

import (
	"github.com/spf13/cobra"
)

var behaviorHours int

var behaviorCmd = &cobra.Command{
	Use:   "behavior",
	Short: "Summarize player activity",
	Long:  "behavior aggregates the player streams into unique player counts, the peak hour, the hourly join distribution, and average session length.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateHours(behaviorHours); err != nil {
			return err
		}

		proc, err := newProcessor()
		if err != nil {
			return err
		}
		summary, err := proc.PlayerBehavior(behaviorHours)
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

func init() {
	behaviorCmd.Flags().IntVar(&behaviorHours, "hours", 24, "Look-back window in hours (1-168)")
}
