package search

import (
	"strings"

	"catalogstream/catalogsearch/internal/domain"
)

// NormalizeQuery trims the query and collapses inner whitespace runs.
func NormalizeQuery(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Normalize converts provider records into items. Person records are dropped.
// A kind pinned by hint wins over inference when the record carries no usable
// media type, and items of kinds the hint does not allow are dropped.
func Normalize(records []domain.RawRecord, hint domain.KindFilter) []domain.SearchableItem {
	items := make([]domain.SearchableItem, 0, len(records))
	for _, record := range records {
		if strings.EqualFold(strings.TrimSpace(record.MediaType), "person") {
			continue
		}
		kind := inferKind(record, hint)
		if !hint.Allows(kind) {
			continue
		}
		items = append(items, toItem(record, kind))
	}
	return items
}

func inferKind(record domain.RawRecord, hint domain.KindFilter) domain.MediaKind {
	switch domain.MediaKind(strings.ToLower(strings.TrimSpace(record.MediaType))) {
	case domain.MediaKindMovie:
		return domain.MediaKindMovie
	case domain.MediaKindTV:
		return domain.MediaKindTV
	}
	if kind, ok := hint.Pinned(); ok {
		return kind
	}
	if strings.TrimSpace(record.FirstAirDate) != "" {
		return domain.MediaKindTV
	}
	return domain.MediaKindMovie
}

func toItem(record domain.RawRecord, kind domain.MediaKind) domain.SearchableItem {
	title, name := strings.TrimSpace(record.Title), strings.TrimSpace(record.Name)
	original := strings.TrimSpace(record.OriginalTitle)
	if original == "" {
		original = strings.TrimSpace(record.OriginalName)
	}

	display := title
	if (kind == domain.MediaKindTV && name != "") || display == "" {
		display = name
	}
	if display == "" {
		display = original
	}

	var alternates []string
	for _, candidate := range []string{title, name} {
		if candidate != "" && candidate != display && candidate != original {
			alternates = append(alternates, candidate)
		}
	}

	return domain.SearchableItem{
		ID:              record.ID,
		Kind:            kind,
		DisplayTitle:    display,
		OriginalTitle:   original,
		AlternateTitles: alternates,
		Overview:        strings.TrimSpace(record.Overview),
		PosterRef:       record.PosterPath,
		BackdropRef:     record.BackdropPath,
		ReleaseDate:     strings.TrimSpace(record.ReleaseDate),
		FirstAirDate:    strings.TrimSpace(record.FirstAirDate),
		Popularity:      record.VoteAverage,
	}
}

// Dedupe merges lists in order, keeping the first item seen for each
// (kind, id) key.
func Dedupe(lists ...[]domain.SearchableItem) []domain.SearchableItem {
	total := 0
	for _, list := range lists {
		total += len(list)
	}
	seen := make(map[domain.ItemKey]struct{}, total)
	merged := make([]domain.SearchableItem, 0, total)
	for _, list := range lists {
		for _, item := range list {
			key := item.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, item)
		}
	}
	return merged
}
