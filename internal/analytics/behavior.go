// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package analytics

import (
	"fmt"
	"time"
)

// BehaviorSummary aggregates player activity over the analysis window.
// HourlyDistribution maps local hour of day (0-23) to the number of
// player entries observed in snapshots taken during that hour; hours
// with no snapshots are absent. AverageSessionDurationMinutes is
// reserved for session tracking and currently always zero.
type BehaviorSummary struct {
	UniquePlayers                 int         `json:"unique_players"`
	PeakHour                      int         `json:"peak_hour"`
	HourlyDistribution            map[int]int `json:"hourly_distribution"`
	AverageSessionDurationMinutes float64     `json:"average_session_duration_minutes"`
	TotalEvents                   int         `json:"total_events"`
}

// PlayerBehavior loads the players and player_events streams for the
// window and aggregates them. Player snapshots contribute the roster to
// the unique-player set and the hourly distribution; the event stream
// contributes only its record count.
func (p *Processor) PlayerBehavior(hours int) (BehaviorSummary, error) {
	players, err := p.src.Load("players", hours)
	if err != nil {
		return BehaviorSummary{}, fmt.Errorf("load players: %w", err)
	}
	events, err := p.src.Load("player_events", hours)
	if err != nil {
		return BehaviorSummary{}, fmt.Errorf("load player events: %w", err)
	}
	return summarizeBehavior(players, events), nil
}

// summarizeBehavior computes the behavior summary from already-loaded
// samples. The roster is counted before the hour bucket is touched so a
// snapshot with an unusable timestamp still contributes its players.
func summarizeBehavior(players, events []Sample) BehaviorSummary {
	seen := make(map[string]struct{})
	dist := make(map[int]int)

	for _, s := range players {
		roster := s.Players()
		for _, name := range roster {
			seen[name] = struct{}{}
		}

		ts := s.Timestamp
		if ts < 0 || ts > maxHistogramTimestamp {
			continue
		}
		hour := time.Unix(int64(ts), 0).Hour()
		dist[hour] += len(roster)
	}

	peak := 0
	best := -1
	for h := 0; h < 24; h++ {
		if dist[h] > best {
			best = dist[h]
			peak = h
		}
	}

	return BehaviorSummary{
		UniquePlayers:      len(seen),
		PeakHour:           peak,
		HourlyDistribution: dist,
		TotalEvents:        len(events),
	}
}
