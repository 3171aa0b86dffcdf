// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package rcon

import "strings"

// blockMatcher finds the first occurrence of any blocked substring in
// a command using the Aho-Corasick automaton, so the sanitizer scans
// the whole pattern set in one pass over the input.
type blockMatcher struct {
	root     *matcherNode
	patterns []string
}

type matcherNode struct {
	children map[rune]*matcherNode
	failure  *matcherNode
	// pattern index ending at this node, -1 when none ends here
	output int
}

func newMatcherNode() *matcherNode {
	return &matcherNode{children: make(map[rune]*matcherNode), output: -1}
}

// newBlockMatcher builds the automaton over the given patterns.
// Matching is case-insensitive; patterns are stored lowercased.
func newBlockMatcher(patterns []string) *blockMatcher {
	m := &blockMatcher{root: newMatcherNode()}

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		m.insert(strings.ToLower(pattern))
	}
	m.buildFailureLinks()
	return m
}

func (m *blockMatcher) insert(pattern string) {
	node := m.root
	for _, ch := range pattern {
		next := node.children[ch]
		if next == nil {
			next = newMatcherNode()
			node.children[ch] = next
		}
		node = next
	}
	node.output = len(m.patterns)
	m.patterns = append(m.patterns, pattern)
}

// buildFailureLinks wires each node to its longest proper suffix in
// the trie via breadth-first traversal.
func (m *blockMatcher) buildFailureLinks() {
	queue := make([]*matcherNode, 0, len(m.root.children))
	for _, child := range m.root.children {
		child.failure = m.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}
			if fail == nil {
				child.failure = m.root
			} else {
				child.failure = fail.children[ch]
				// Inherit a match ending at the suffix so shorter
				// patterns inside longer ones are still reported.
				if child.output < 0 {
					child.output = child.failure.output
				}
			}
		}
	}
}

// findFirst returns the first blocked pattern occurring in text, or
// false when the text is clean. The scan lowercases as it goes.
func (m *blockMatcher) findFirst(text string) (string, bool) {
	if len(m.patterns) == 0 {
		return "", false
	}

	node := m.root
	for _, ch := range strings.ToLower(text) {
		for node != nil && node.children[ch] == nil {
			node = node.failure
		}
		if node == nil {
			node = m.root
			continue
		}
		node = node.children[ch]
		if node.output >= 0 {
			return m.patterns[node.output], true
		}
	}
	return "", false
}

func (m *blockMatcher) contains(text string) bool {
	_, found := m.findFirst(text)
	return found
}
