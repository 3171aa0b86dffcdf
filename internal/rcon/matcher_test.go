// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package rcon

import "testing"

func TestBlockMatcher_FindFirst(t *testing.T) {
	t.Parallel()

	m := newBlockMatcher([]string{"rm -rf", "/etc/", ".."})

	pattern, found := m.findFirst("say rm -rf is not a minecraft command")
	if !found {
		t.Fatal("expected a match")
	}
	if pattern != "rm -rf" {
		t.Errorf("findFirst pattern = %q, want 'rm -rf'", pattern)
	}

	if _, found := m.findFirst("say hello world"); found {
		t.Error("clean text should not match")
	}
}

func TestBlockMatcher_ReportsEarliestMatch(t *testing.T) {
	t.Parallel()

	m := newBlockMatcher([]string{"wget ", "curl "})

	pattern, found := m.findFirst("curl http://x then wget y")
	if !found {
		t.Fatal("expected a match")
	}
	if pattern != "curl " {
		t.Errorf("findFirst pattern = %q, want 'curl '", pattern)
	}
}

func TestBlockMatcher_CaseInsensitive(t *testing.T) {
	t.Parallel()

	m := newBlockMatcher([]string{"mkfs"})

	tests := []string{
		"mkfs.ext4",
		"MKFS.ext4",
		"MkFs.ext4",
	}

	for _, text := range tests {
		if !m.contains(text) {
			t.Errorf("contains(%q) = false, want true", text)
		}
	}
}

func TestBlockMatcher_SuffixPatterns(t *testing.T) {
	t.Parallel()

	// "he" is a suffix of "she"'s prefix path, so a scan through
	// "she" must still report the shorter pattern.
	m := newBlockMatcher([]string{"she", "he"})

	pattern, found := m.findFirst("ushe")
	if !found {
		t.Fatal("expected a match")
	}
	if pattern != "she" && pattern != "he" {
		t.Errorf("findFirst pattern = %q, want 'she' or 'he'", pattern)
	}

	m2 := newBlockMatcher([]string{"hers", "he"})
	pattern, found = m2.findFirst("xhey")
	if !found {
		t.Fatal("expected 'he' inside 'xhey'")
	}
	if pattern != "he" {
		t.Errorf("findFirst pattern = %q, want 'he'", pattern)
	}
}

func TestBlockMatcher_OverlappingOccurrences(t *testing.T) {
	t.Parallel()

	m := newBlockMatcher([]string{".."})

	if !m.contains("a...b") {
		t.Error("overlapping dots should match '..'")
	}
	if m.contains("a.b.c") {
		t.Error("single dots should not match '..'")
	}
}

func TestBlockMatcher_Empty(t *testing.T) {
	t.Parallel()

	m := newBlockMatcher(nil)
	if m.contains("anything at all") {
		t.Error("empty matcher should never match")
	}

	m2 := newBlockMatcher([]string{"", "x"})
	if !m2.contains("box") {
		t.Error("empty patterns should be skipped, not poison the automaton")
	}
	if m2.contains("bo") {
		t.Error("'bo' contains no pattern")
	}
}
