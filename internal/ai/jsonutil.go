package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Pre-compiled patterns: compiling on every parse is markedly slower.
var (
	codeFenceStartRegex = regexp.MustCompile(`(?s)^` + "`" + `{3}(?:json)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}\s*$`)
	codeFenceAnyRegex   = regexp.MustCompile(`(?s)` + "`" + `{3}(?:json)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}`)
	trailingCommaRegex  = regexp.MustCompile(`,(\s*[}\]])`)
	objectRegex         = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	arrayRegex          = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
)

// parsePayload decodes model output into T, tolerating the formatting quirks
// models produce despite instructions: markdown code fences, leading prose,
// and trailing commas.
//
// Strategy sequence:
//  1. Direct JSON parse
//  2. Remove code fences and retry
//  3. Strip trailing commas and retry
//  4. Extract the first JSON object/array from mixed content and retry
func parsePayload[T any](text string) (T, error) {
	var zero T

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return zero, fmt.Errorf("empty response")
	}

	if result, err := tryDecode[T](trimmed); err == nil {
		return result, nil
	}

	withoutFences := removeCodeFences(trimmed)
	if withoutFences != trimmed {
		if result, err := tryDecode[T](withoutFences); err == nil {
			return result, nil
		}
	}

	cleaned := trailingCommaRegex.ReplaceAllString(withoutFences, "$1")
	if result, err := tryDecode[T](cleaned); err == nil {
		return result, nil
	}

	if extracted := extractJSON(cleaned); extracted != "" {
		if result, err := tryDecode[T](extracted); err == nil {
			return result, nil
		}
	}

	return zero, fmt.Errorf("response is not valid JSON")
}

func tryDecode[T any](text string) (T, error) {
	var result T
	err := json.Unmarshal([]byte(text), &result)
	return result, err
}

func removeCodeFences(text string) string {
	cleaned := codeFenceStartRegex.ReplaceAllString(text, "$1")
	if cleaned == text {
		cleaned = codeFenceAnyRegex.ReplaceAllString(text, "$1")
	}
	return strings.TrimSpace(cleaned)
}

// extractJSON pulls the outermost object or array out of mixed content. The
// first-character check keeps arrays from being mistaken for their elements.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return arrayRegex.FindString(text)
	}
	if match := objectRegex.FindString(text); match != "" {
		return match
	}
	return arrayRegex.FindString(text)
}
