// Package fuzzy scores free-text queries against weighted text fields with
// tolerance for typos, partial words and reordered tokens.
//
// Scores run from 0 (exact) to 1 (unrelated). An item matches when its best
// field score is at or below the index threshold.
package fuzzy

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	DefaultThreshold = 0.45

	// Token pairs less similar than this contribute nothing.
	minTokenSimilarity = 0.5
)

// Key extracts the searchable strings of one field of T. Weight scales how
// much a perfect hit in this field is worth; 1 means full weight.
type Key[T any] struct {
	Name   string
	Weight float64
	Values func(T) []string
}

type Options struct {
	// Threshold is the largest score still accepted. Zero selects DefaultThreshold.
	Threshold float64
}

type Result[T any] struct {
	Item  T
	Index int
	Score float64
}

type preparedText struct {
	text   string
	tokens []string
}

type preparedField struct {
	weight float64
	values []preparedText
}

// Index is an immutable fuzzy index over a fixed item slice. It is safe for
// concurrent searches.
type Index[T any] struct {
	items     []T
	docs      [][]preparedField
	threshold float64
}

func New[T any](items []T, keys []Key[T], opts Options) *Index[T] {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	docs := make([][]preparedField, len(items))
	for i, item := range items {
		fields := make([]preparedField, 0, len(keys))
		for _, key := range keys {
			if key.Values == nil {
				continue
			}
			weight := key.Weight
			if weight <= 0 || weight > 1 {
				weight = 1
			}
			field := preparedField{weight: weight}
			for _, raw := range key.Values(item) {
				prepared := prepare(raw)
				if prepared.text == "" {
					continue
				}
				field.values = append(field.values, prepared)
			}
			if len(field.values) > 0 {
				fields = append(fields, field)
			}
		}
		docs[i] = fields
	}
	return &Index[T]{
		items:     items,
		docs:      docs,
		threshold: threshold,
	}
}

// Search returns every item scoring within the threshold, best first. Ties
// keep index order.
func (ix *Index[T]) Search(query string) []Result[T] {
	return ix.SearchLimit(query, 0)
}

// SearchLimit is Search capped to limit results; limit <= 0 means no cap.
func (ix *Index[T]) SearchLimit(query string, limit int) []Result[T] {
	q := prepare(query)
	if q.text == "" || len(ix.items) == 0 {
		return nil
	}

	results := make([]Result[T], 0, len(ix.items))
	for i, fields := range ix.docs {
		score := documentScore(q, fields)
		if score > ix.threshold {
			continue
		}
		results = append(results, Result[T]{Item: ix.items[i], Index: i, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// scoreText rates query against a single text value without building an index.
func scoreText(query, text string) float64 {
	return textScore(prepare(query), prepare(text))
}

func prepare(raw string) preparedText {
	folded := Fold(raw)
	return preparedText{text: folded, tokens: strings.Fields(folded)}
}

func documentScore(q preparedText, fields []preparedField) float64 {
	best := 1.0
	for _, field := range fields {
		for _, value := range field.values {
			raw := textScore(q, value)
			weighted := 1 - (1-raw)*field.weight
			if weighted < best {
				best = weighted
			}
			if best == 0 {
				return 0
			}
		}
	}
	return best
}

func textScore(q, t preparedText) float64 {
	if q.text == "" || t.text == "" {
		return 1
	}
	if q.text == t.text {
		return 0
	}
	if pos := strings.Index(t.text, q.text); pos >= 0 {
		if pos == 0 {
			return 0.05
		}
		return 0.1 + 0.1*float64(pos)/float64(len(t.text))
	}
	return tokenScore(q.tokens, t.tokens)
}

// tokenScore weights every query token by its length and credits it with its
// best similarity against any target token, so long distinctive words
// dominate short noise words.
func tokenScore(query, target []string) float64 {
	if len(query) == 0 || len(target) == 0 {
		return 1
	}
	var weighted, total float64
	for _, token := range query {
		weight := float64(utf8.RuneCountInString(token))
		total += weight
		weighted += weight * bestTokenSimilarity(token, target)
	}
	if total == 0 {
		return 1
	}
	return 1 - weighted/total
}

func bestTokenSimilarity(token string, target []string) float64 {
	best := 0.0
	for _, candidate := range target {
		similarity := tokenSimilarity(token, candidate)
		if similarity > best {
			best = similarity
			if best == 1 {
				break
			}
		}
	}
	return best
}

func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la >= 2 && la < lb && strings.HasPrefix(b, a) {
		return 0.9 - 0.3*float64(lb-la)/float64(lb)
	}
	similarity := 1 - float64(Distance(a, b))/float64(max(la, lb))
	if similarity < minTokenSimilarity {
		return 0
	}
	return similarity
}
