package search

import (
	"slices"
	"strings"
	"unicode/utf8"

	"catalogstream/catalogsearch/internal/domain"
	"catalogstream/catalogsearch/internal/fuzzy"
)

const (
	MaxSuggestions = 4

	suggestionWindow = 16
)

// SuggestionDistance is the largest edit distance at which a title still
// counts as a "did you mean" for query.
func SuggestionDistance(query string) int {
	return max(2, utf8.RuneCountInString(query)*2/5)
}

// Suggest lists up to MaxSuggestions alternate query strings: extras first,
// then titles of the top ranked items close enough to query.
func Suggest(query string, ranked []domain.SearchableItem, extras []string) []string {
	suggestions := make([]string, 0, MaxSuggestions)
	add := func(candidate string) {
		if candidate == "" || len(suggestions) >= MaxSuggestions || slices.Contains(suggestions, candidate) {
			return
		}
		suggestions = append(suggestions, candidate)
	}

	for _, extra := range extras {
		add(strings.TrimSpace(extra))
	}
	if len(ranked) == 0 {
		return suggestions
	}

	lowered := strings.ToLower(query)
	limit := SuggestionDistance(lowered)
	for _, item := range ranked[:min(len(ranked), suggestionWindow)] {
		if len(suggestions) >= MaxSuggestions {
			break
		}
		title := strings.TrimSpace(item.DisplayTitle)
		if title == "" {
			continue
		}
		if fuzzy.Distance(lowered, strings.ToLower(title)) <= limit {
			add(title)
		}
	}
	return suggestions
}
