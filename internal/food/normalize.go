// Package food persists food events: ingredient normalization, Foods reference
// notes, food and condition logs, plus optional composition and photo intake.
package food

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	maxFilenameRunes = 120
	fallbackFilename = "food"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\-()%]+`)
	multiSpace          = regexp.MustCompile(`\s+`)
)

// NormalizeName lowercases a food name and collapses its whitespace.
func NormalizeName(name string) string {
	lowered := cases.Lower(language.Und).String(strings.TrimSpace(name))
	return multiSpace.ReplaceAllString(lowered, " ")
}

// Dedupe drops repeated values, keeping the first occurrence of each.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// NormalizeList normalizes every non-blank name and dedupes the result.
func NormalizeList(raw []string) []string {
	normalized := make([]string, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		normalized = append(normalized, NormalizeName(r))
	}
	return Dedupe(normalized)
}

// SanitizeFilename turns a food name into a filename stem: NFKC-normalized,
// limited to letters, digits, spaces and _-()%, at most 120 runes.
func SanitizeFilename(name string) string {
	s := strings.TrimSpace(norm.NFKC.String(name))
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.Trim(strings.TrimSpace(s), ".")
	if s == "" {
		return fallbackFilename
	}
	if utf8.RuneCountInString(s) > maxFilenameRunes {
		s = strings.TrimRightFunc(string([]rune(s)[:maxFilenameRunes]), isSpace)
	}
	return s
}

// SplitLines returns the trimmed non-blank lines of text.
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
