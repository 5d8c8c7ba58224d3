package search

import (
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	maxAlternates     = 4
	minAlternateToken = 4
)

// AlternateQueries derives reduced forms of a multi-token query: each
// drop-one-token variant, the longest token and the two longest tokens
// joined. The result never contains query itself.
func AlternateQueries(query string) []string {
	tokens := strings.Fields(query)
	if len(tokens) <= 1 {
		return nil
	}

	var candidates []string
	add := func(candidate string) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || candidate == query || slices.Contains(candidates, candidate) {
			return
		}
		candidates = append(candidates, candidate)
	}

	for i := range tokens {
		rest := make([]string, 0, len(tokens)-1)
		rest = append(rest, tokens[:i]...)
		rest = append(rest, tokens[i+1:]...)
		candidate := strings.Join(rest, " ")
		if utf8.RuneCountInString(candidate) >= MinQueryLength {
			add(candidate)
		}
	}

	var long []string
	for _, token := range tokens {
		if utf8.RuneCountInString(token) >= minAlternateToken {
			long = append(long, token)
		}
	}
	slices.SortStableFunc(long, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})
	if len(long) > 0 {
		add(long[0])
	}
	if len(long) > 1 {
		add(long[0] + " " + long[1])
	}

	if len(candidates) > maxAlternates {
		candidates = candidates[:maxAlternates]
	}
	return candidates
}
