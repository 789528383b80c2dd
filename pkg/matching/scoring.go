package matching

import (
	"math"
	"time"
)

// ScorerConfig contains the tunable weights and horizons for similarity scoring.
// Weights are expected to sum to 1; Score clamps the result regardless.
type ScorerConfig struct {
	TextWeight     float64 // weight of description similarity (default: 0.35)
	CategoryWeight float64 // weight of canonical category match (default: 0.20)
	LocationWeight float64 // weight of location match (default: 0.20)
	DateWeight     float64 // weight of temporal proximity (default: 0.25)

	DecayDays             int     // day difference at which temporal proximity reaches 0 (default: 14)
	ZoneCredit            float64 // location sub-score for same zone but different location (default: 0.5)
	UnknownCategoryCredit float64 // category sub-score when exactly one side is unknown (default: 0.25)
}

// DefaultScorerConfig returns the default scoring configuration
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		TextWeight:            0.35,
		CategoryWeight:        0.20,
		LocationWeight:        0.20,
		DateWeight:            0.25,
		DecayDays:             14,
		ZoneCredit:            0.5,
		UnknownCategoryCredit: 0.25,
	}
}

// Scorer computes bounded similarity scores between normalized item reports.
// Stateless; safe for concurrent use.
type Scorer struct {
	cfg ScorerConfig
}

// NewScorer creates a new Scorer
func NewScorer(cfg ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the weighted similarity between two normalized reports.
// The result is always in [0,1] and symmetric: the function depends only on
// field-pair comparisons, not on which side is the lost report. Missing
// dimensions contribute 0, so sparse records score conservatively low.
// Returns the combined score and the per-dimension sub-scores for explainability.
func (s *Scorer) Score(a, b NormalizedItem) (float64, map[string]float64) {
	fields := map[string]float64{
		"description": s.TextSimilarity(a, b),
		"category":    s.CategoryScore(a.Category, b.Category),
		"location":    s.LocationScore(a, b),
		"date":        s.DateProximity(a.EventDate, b.EventDate),
	}

	total := fields["description"]*s.cfg.TextWeight +
		fields["category"]*s.cfg.CategoryWeight +
		fields["location"]*s.cfg.LocationWeight +
		fields["date"]*s.cfg.DateWeight

	return clamp(total), fields
}

// TextSimilarity blends token-set overlap with a normalized edit-distance
// ratio on the whole normalized description. Empty text on either side
// scores 0 rather than being skipped.
func (s *Scorer) TextSimilarity(a, b NormalizedItem) float64 {
	if a.Description == "" || b.Description == "" {
		return 0.0
	}
	return 0.5*s.Jaccard(a.Tokens, b.Tokens) + 0.5*s.Levenshtein(a.Description, b.Description)
}

// Jaccard calculates token-set overlap between two token lists
func (s *Scorer) Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	set := make(map[string]bool, len(a))
	for _, token := range a {
		set[token] = true
	}

	intersection := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, token := range b {
		if seen[token] {
			continue
		}
		seen[token] = true
		if set[token] {
			intersection++
		} else {
			union++
		}
	}

	return float64(intersection) / float64(union)
}

// Levenshtein calculates a similarity ratio between 0.0 and 1.0 from the
// edit distance of the two strings
func (s *Scorer) Levenshtein(a, b string) float64 {
	distance := s.LevenshteinDistance(a, b)
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two strings
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

// CategoryScore returns 1.0 for equal canonical categories, partial credit
// when exactly one side is unknown, 0.0 otherwise
func (s *Scorer) CategoryScore(a, b string) float64 {
	if a == UnknownField && b == UnknownField {
		return 0.0
	}
	if a == UnknownField || b == UnknownField {
		return s.cfg.UnknownCategoryCredit
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// LocationScore returns 1.0 for an exact canonical match, zone credit for the
// same broader zone, 0.0 otherwise
func (s *Scorer) LocationScore(a, b NormalizedItem) float64 {
	if a.Location == UnknownField || b.Location == UnknownField {
		return 0.0
	}
	if a.Location == b.Location {
		return 1.0
	}
	if a.Zone != "" && a.Zone == b.Zone {
		return s.cfg.ZoneCredit
	}
	return 0.0
}

// DateProximity calculates a proximity score for two event dates.
// Returns 1.0 for the same day, decaying linearly to 0.0 at the configured
// horizon. Monotonically non-increasing in the day difference.
func (s *Scorer) DateProximity(a, b time.Time) float64 {
	if a.IsZero() || b.IsZero() {
		return 0.0
	}

	daysDiff := math.Abs(a.Sub(b).Hours() / 24)

	if daysDiff == 0 {
		return 1.0
	}
	if daysDiff >= float64(s.cfg.DecayDays) {
		return 0.0
	}

	return 1.0 - daysDiff/float64(s.cfg.DecayDays)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
