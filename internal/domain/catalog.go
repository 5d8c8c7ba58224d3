package domain

import (
	"strconv"
	"strings"
)

type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindTV    MediaKind = "tv"
)

// KindFilter is the caller-facing media kind selector.
type KindFilter string

const (
	KindFilterAll   KindFilter = "all"
	KindFilterMovie KindFilter = "movie"
	KindFilterTV    KindFilter = "tv"
)

// ParseKindFilter maps raw request values onto a filter. "multi" and unknown
// values select every kind.
func ParseKindFilter(raw string) KindFilter {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "movie":
		return KindFilterMovie
	case "tv":
		return KindFilterTV
	default:
		return KindFilterAll
	}
}

// Kinds lists the concrete media kinds selected by the filter.
func (f KindFilter) Kinds() []MediaKind {
	switch f {
	case KindFilterMovie:
		return []MediaKind{MediaKindMovie}
	case KindFilterTV:
		return []MediaKind{MediaKindTV}
	default:
		return []MediaKind{MediaKindMovie, MediaKindTV}
	}
}

func (f KindFilter) Allows(kind MediaKind) bool {
	for _, allowed := range f.Kinds() {
		if allowed == kind {
			return true
		}
	}
	return false
}

// Pinned reports the single kind a filter pins down, if any.
func (f KindFilter) Pinned() (MediaKind, bool) {
	switch f {
	case KindFilterMovie:
		return MediaKindMovie, true
	case KindFilterTV:
		return MediaKindTV, true
	default:
		return "", false
	}
}

// SearchTarget selects a provider text-search endpoint.
type SearchTarget string

const (
	SearchTargetMulti SearchTarget = "multi"
	SearchTargetMovie SearchTarget = "movie"
	SearchTargetTV    SearchTarget = "tv"
)

func TargetForKind(kind MediaKind) SearchTarget {
	if kind == MediaKindTV {
		return SearchTargetTV
	}
	return SearchTargetMovie
}

// RawRecord is a provider record before kind resolution. MediaType may be
// empty, "movie", "tv" or a non-title entity such as "person".
type RawRecord struct {
	ID            int      `json:"id"`
	MediaType     string   `json:"media_type,omitempty"`
	Title         string   `json:"title,omitempty"`
	Name          string   `json:"name,omitempty"`
	OriginalTitle string   `json:"original_title,omitempty"`
	OriginalName  string   `json:"original_name,omitempty"`
	Overview      string   `json:"overview,omitempty"`
	PosterPath    string   `json:"poster_path,omitempty"`
	BackdropPath  string   `json:"backdrop_path,omitempty"`
	ReleaseDate   string   `json:"release_date,omitempty"`
	FirstAirDate  string   `json:"first_air_date,omitempty"`
	VoteAverage   *float64 `json:"vote_average,omitempty"`
}

// RecordPage is one page of a provider text search or discovery call.
type RecordPage struct {
	Records      []RawRecord `json:"results"`
	Page         int         `json:"page"`
	TotalResults int         `json:"total_results"`
	TotalPages   int         `json:"total_pages"`
}

type Keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SearchableItem is the canonical catalog entry. Kind is always resolved.
type SearchableItem struct {
	ID              int       `json:"id"`
	Kind            MediaKind `json:"media_type"`
	DisplayTitle    string    `json:"title"`
	OriginalTitle   string    `json:"original_title,omitempty"`
	AlternateTitles []string  `json:"alternate_titles,omitempty"`
	Overview        string    `json:"overview,omitempty"`
	PosterRef       string    `json:"poster_path,omitempty"`
	BackdropRef     string    `json:"backdrop_path,omitempty"`
	ReleaseDate     string    `json:"release_date,omitempty"`
	FirstAirDate    string    `json:"first_air_date,omitempty"`
	Popularity      *float64  `json:"vote_average,omitempty"`
}

// ItemKey is the composite identity of an item: ids are unique only within a kind.
type ItemKey struct {
	Kind MediaKind
	ID   int
}

func (i SearchableItem) Key() ItemKey {
	return ItemKey{Kind: i.Kind, ID: i.ID}
}

func (k ItemKey) String() string {
	return string(k.Kind) + "-" + strconv.Itoa(k.ID)
}

// Year extracts the leading year of the primary date for the item's kind.
func (i SearchableItem) Year() int {
	date := i.ReleaseDate
	if i.Kind == MediaKindTV || date == "" {
		if i.FirstAirDate != "" {
			date = i.FirstAirDate
		}
	}
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

type Provenance string

const (
	ProvenanceTooShort         Provenance = "tooShort"
	ProvenancePrimary          Provenance = "primary"
	ProvenanceExpanded         Provenance = "expanded"
	ProvenanceFallbackQuery    Provenance = "fallbackQuery"
	ProvenanceKeywordDiscovery Provenance = "keywordDiscovery"
	ProvenanceLocalFuzzy       Provenance = "localFuzzy"
)

// Rank orders the resolution tiers. tooShort sits outside the ordering.
func (p Provenance) Rank() int {
	switch p {
	case ProvenancePrimary:
		return 1
	case ProvenanceExpanded:
		return 2
	case ProvenanceFallbackQuery:
		return 3
	case ProvenanceKeywordDiscovery:
		return 4
	case ProvenanceLocalFuzzy:
		return 5
	default:
		return 0
	}
}

type SearchAnswer struct {
	Items           []SearchableItem `json:"results"`
	TotalAvailable  int              `json:"total_results"`
	TotalPages      int              `json:"total_pages"`
	Suggestions     []string         `json:"suggestions"`
	UsedFallback    bool             `json:"usedFallback"`
	Provenance      Provenance       `json:"source"`
	NormalizedQuery string           `json:"normalizedQuery"`
	AppliedQuery    string           `json:"appliedQuery"`
}
