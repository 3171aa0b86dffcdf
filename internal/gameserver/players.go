// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package gameserver

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// PlayerList is the parsed response of the console list command.
type PlayerList struct {
	Players []string `json:"players"`
	Count   int      `json:"count"`
	Max     int      `json:"max,omitempty"`
}

var (
	playersOnlineRe = regexp.MustCompile(`online:\s*(.*)`)
	playersCountRe  = regexp.MustCompile(`There are (\d+) of a max of (\d+)`)
)

// Players queries the online roster with the console list command.
func (m *Manager) Players(ctx context.Context) (*PlayerList, error) {
	response, err := m.Command(ctx, "list")
	if err != nil {
		return nil, err
	}
	return parsePlayerList(response), nil
}

// parsePlayerList reads the vanilla list response, "There are 2 of a
// max of 20 players online: alice, bob". The server-reported count
// wins over the roster length when both parse.
func parsePlayerList(response string) *PlayerList {
	list := &PlayerList{Players: []string{}}

	if m := playersCountRe.FindStringSubmatch(response); m != nil {
		list.Count, _ = strconv.Atoi(m[1])
		list.Max, _ = strconv.Atoi(m[2])
	}

	if m := playersOnlineRe.FindStringSubmatch(response); m != nil {
		for _, name := range strings.Split(m[1], ",") {
			if name = strings.TrimSpace(name); name != "" {
				list.Players = append(list.Players, name)
			}
		}
	}

	if list.Count == 0 {
		list.Count = len(list.Players)
	}
	return list
}
