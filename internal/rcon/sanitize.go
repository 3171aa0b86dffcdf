// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package rcon

import (
	"fmt"
	"strings"
)

// MaxCommandLength caps dispatched commands well below the protocol's
// packet limit.
const MaxCommandLength = 256

// Rejection reasons, used as the metrics label for rejected commands.
const (
	ReasonEmpty        = "empty"
	ReasonTooLong      = "too_long"
	ReasonControlChars = "control_chars"
	ReasonMetachars    = "shell_metachars"
	ReasonDangerous    = "dangerous_pattern"
	ReasonBlocked      = "blocked_command"
	ReasonNotAllowed   = "not_allowed"
	ReasonRateLimited  = "rate_limited"
)

// RejectionError reports why a command was refused before dispatch.
type RejectionError struct {
	Reason string
	Detail string
}

func (e *RejectionError) Error() string {
	return e.Detail
}

func reject(reason, format string, args ...interface{}) error {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// shellMetachars are rejected anywhere in a command. Whitespace is
// deliberately not in this set: commands carry arguments.
const shellMetachars = ";&|`$(){}[]<>"

// dangerousPatterns are rejected as substrings after lowercasing and
// whitespace normalization, so "rm   -rf" cannot slip past "rm -rf".
var dangerousPatterns = []string{
	"..",
	"/etc/",
	"/proc/",
	"/sys/",
	"rm -rf",
	"mkfs",
	"dd if=",
	"wget ",
	"curl ",
}

var dangerousMatcher = newBlockMatcher(dangerousPatterns)

// blockedCommands are never dispatched even if someone adds them to
// the allow-list by mistake. Matched as exact first tokens: "su" does
// not shadow "summon".
var blockedCommands = map[string]struct{}{
	"sudo":    {},
	"su":      {},
	"sh":      {},
	"bash":    {},
	"zsh":     {},
	"csh":     {},
	"python":  {},
	"python3": {},
	"node":    {},
	"npm":     {},
}

// allowedCommands is the dispatch allow-list: the first token of a
// command must appear here.
var allowedCommands = map[string]struct{}{
	"say":           {},
	"list":          {},
	"weather":       {},
	"time":          {},
	"give":          {},
	"tp":            {},
	"kick":          {},
	"ban":           {},
	"pardon":        {},
	"whitelist":     {},
	"op":            {},
	"deop":          {},
	"save-all":      {},
	"save-on":       {},
	"save-off":      {},
	"stop":          {},
	"difficulty":    {},
	"gamemode":      {},
	"gamerule":      {},
	"seed":          {},
	"setworldspawn": {},
	"spawnpoint":    {},
	"title":         {},
	"tellraw":       {},
	"effect":        {},
	"enchant":       {},
	"xp":            {},
	"clear":         {},
	"fill":          {},
	"setblock":      {},
	"summon":        {},
	"help":          {},
	"version":       {},
}

// Sanitize validates a raw command and returns the cleaned form that
// may be dispatched. Console commands may carry a leading slash; it
// is stripped before validation.
func Sanitize(raw string) (string, error) {
	command := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(raw), "/"))
	if command == "" {
		return "", reject(ReasonEmpty, "command cannot be empty")
	}

	if len(command) > MaxCommandLength {
		return "", reject(ReasonTooLong, "command exceeds maximum length of %d characters", MaxCommandLength)
	}

	for _, r := range command {
		if r < 0x20 || r == 0x7f {
			return "", reject(ReasonControlChars, "command contains control characters")
		}
	}

	if i := strings.IndexAny(command, shellMetachars); i >= 0 {
		return "", reject(ReasonMetachars, "command contains shell metacharacter %q", command[i])
	}

	if pattern, found := dangerousMatcher.findFirst(normalizeForScan(command)); found {
		return "", reject(ReasonDangerous, "command contains dangerous pattern %q", pattern)
	}

	first := strings.ToLower(strings.Fields(command)[0])
	if _, blocked := blockedCommands[first]; blocked {
		return "", reject(ReasonBlocked, "command %q is not allowed", first)
	}
	if _, allowed := allowedCommands[first]; !allowed {
		return "", reject(ReasonNotAllowed, "command %q is not on the allow-list", first)
	}

	return command, nil
}

// normalizeForScan lowercases and collapses space runs to single
// spaces so "rm   -rf" matches "rm -rf". Tabs and other control
// characters are rejected before this runs.
func normalizeForScan(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false
	for _, r := range strings.ToLower(s) {
		if r == ' ' {
			if !lastSpace {
				b.WriteByte(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
