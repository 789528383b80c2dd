package matching

import (
	"math"
	"sort"

	"github.com/Ramsey-B/clover/pkg/models"
)

// RankerConfig contains configuration for candidate ranking
type RankerConfig struct {
	MinScore      float64 // floor below which candidates are discarded (default: 0.15)
	MaxCandidates int     // maximum candidates to return (default: 50)
}

// DefaultRankerConfig returns the default ranking configuration
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		MinScore:      0.15,
		MaxCandidates: 50,
	}
}

// Ranker scores a candidate set against a target and orders the results.
// Pure transformation; deterministic for identical inputs.
type Ranker struct {
	scorer *Scorer
	cfg    RankerConfig
}

// NewRanker creates a new Ranker
func NewRanker(scorer *Scorer, cfg RankerConfig) *Ranker {
	return &Ranker{scorer: scorer, cfg: cfg}
}

// Rank scores every candidate against the target, discards candidates below
// the floor, and sorts descending by score. Ties break by more recent
// candidate event date, then candidate id, so repeated calls with identical
// inputs produce identical output.
func (r *Ranker) Rank(target *models.ItemRecord, targetNorm NormalizedItem, candidates []*models.ItemRecord) []models.MatchCandidate {
	ranked := make([]models.MatchCandidate, 0, len(candidates))

	for _, candidate := range candidates {
		score, fields := r.scorer.Score(targetNorm, Normalize(candidate))
		if score < r.cfg.MinScore {
			continue
		}

		lostID, foundID := target.ID, candidate.ID
		if target.ItemType == models.ItemTypeFound {
			lostID, foundID = candidate.ID, target.ID
		}

		ranked = append(ranked, models.MatchCandidate{
			LostID:          lostID,
			FoundID:         foundID,
			Item:            candidate,
			Score:           score,
			ScorePercentage: int(math.Round(score * 100)),
			Confidence:      models.TierForScore(score),
			FieldScores:     fields,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if !ranked[i].Item.EventDate.Equal(ranked[j].Item.EventDate) {
			return ranked[i].Item.EventDate.After(ranked[j].Item.EventDate)
		}
		return ranked[i].Item.ID < ranked[j].Item.ID
	})

	if r.cfg.MaxCandidates > 0 && len(ranked) > r.cfg.MaxCandidates {
		ranked = ranked[:r.cfg.MaxCandidates]
	}

	return ranked
}
