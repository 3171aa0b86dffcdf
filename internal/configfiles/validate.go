// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package configfiles

import (
	"strings"

	json "github.com/goccy/go-json"
	yamlparser "github.com/knadh/koanf/parsers/yaml"
)

// ValidationIssue is one problem found in submitted content.
type ValidationIssue struct {
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// ValidationResult is the dry-run validation response.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// InvalidContentError is returned by Save when the submitted content
// fails validation; the result carries the line-level issues.
type InvalidContentError struct {
	Result *ValidationResult
}

func (e *InvalidContentError) Error() string {
	if len(e.Result.Errors) == 1 {
		return "configfiles: " + e.Result.Errors[0].Message
	}
	return "configfiles: content failed validation"
}

// Validate dry-runs the format check for a whitelisted file.
func (m *Manager) Validate(name, content string) (*ValidationResult, error) {
	f, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	return validateContent(f.format, content), nil
}

func validateContent(format, content string) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationIssue{},
		Warnings: []ValidationIssue{},
	}

	switch format {
	case formatProperties:
		result.Errors = validateProperties(content)
	case formatYAML:
		if err := validateYAML(content); err != nil {
			result.Errors = append(result.Errors, ValidationIssue{Message: "invalid YAML: " + err.Error()})
		}
	case formatJSON:
		if err := validateJSON(content); err != nil {
			result.Errors = append(result.Errors, ValidationIssue{Message: "invalid JSON: " + err.Error()})
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// validateProperties checks that every non-comment line carries a key
// separator, the way the game server itself parses the file.
func validateProperties(content string) []ValidationIssue {
	issues := []ValidationIssue{}
	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}
		if !strings.Contains(trimmed, "=") {
			issues = append(issues, ValidationIssue{Line: i + 1, Message: "missing '=' separator"})
		}
	}
	return issues
}

func validateYAML(content string) error {
	_, err := yamlparser.Parser().Unmarshal([]byte(content))
	return err
}

func validateJSON(content string) error {
	var v interface{}
	return json.Unmarshal([]byte(content), &v)
}
