// Package sanitize validates and normalizes user-supplied entity names,
// identifiers, and crawl parameters before they enter any query.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/linkloom/loom/internal/core/model"
)

const (
	// MaxNameLength bounds a single entity name.
	MaxNameLength = 200

	// MaxDepth is a hard performance ceiling on crawl depth.
	MaxDepth = 10

	// MaxEntities bounds the seed list size per request.
	MaxEntities = 10
)

var idPattern = regexp.MustCompile(`^Q\d+$`)

// escaper handles characters that would break out of a quoted string
// literal in a SPARQL query. Backslash must be escaped first.
var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Name trims and escapes a user-supplied entity name for embedding in a
// quoted query literal.
func Name(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", model.Validationf("entity name must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return "", model.Validationf("entity name exceeds %d characters", MaxNameLength)
	}
	return escaper.Replace(trimmed), nil
}

// IsValidID reports whether s matches the canonical identifier pattern
// (letter prefix followed by digits).
func IsValidID(s string) bool {
	return idPattern.MatchString(s)
}

// ID trims and uppercases raw and checks it against the canonical
// identifier pattern.
func ID(raw string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if !idPattern.MatchString(normalized) {
		return "", model.Validationf("invalid entity identifier %q", raw)
	}
	return normalized, nil
}

// Depth checks the requested crawl depth against the allowed range.
func Depth(n int) (int, error) {
	if n < 1 || n > MaxDepth {
		return 0, model.Validationf("depth must be between 1 and %d, got %d", MaxDepth, n)
	}
	return n, nil
}

// EntityList checks the seed list bounds and deduplicates by trimmed
// value, preserving first-seen order.
func EntityList(list []string, max int) ([]string, error) {
	if max <= 0 {
		max = MaxEntities
	}
	if len(list) == 0 {
		return nil, model.Validationf("entity list must not be empty")
	}
	if len(list) > max {
		return nil, model.Validationf("entity list exceeds %d entries", max)
	}

	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, raw := range list {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil, model.Validationf("entity list contains no usable entries")
	}
	return out, nil
}
