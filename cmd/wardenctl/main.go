// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package main implements wardenctl, the command line companion to the
// Craftwarden server. It runs the analytics pipeline directly against
// the sample stream directory, without the API server in the path --
// useful for cron jobs, ad-hoc investigation, and piping into jq.
package main

func main() {
	Execute()
}
