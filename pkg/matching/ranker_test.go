package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func rankerFixture() (*Ranker, *models.ItemRecord, NormalizedItem) {
	ranker := NewRanker(NewScorer(DefaultScorerConfig()), DefaultRankerConfig())
	target := &models.ItemRecord{
		ID:          "lost-1",
		ItemType:    models.ItemTypeLost,
		Description: "black leather wallet",
		Category:    "wallet",
		Location:    "library",
		EventDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	return ranker, target, Normalize(target)
}

func TestRankFiltersBelowFloor(t *testing.T) {
	ranker, target, targetNorm := rankerFixture()

	candidates := []*models.ItemRecord{
		{
			ID:          "found-good",
			ItemType:    models.ItemTypeFound,
			Description: "black leather wallet",
			Category:    "wallet",
			Location:    "library",
			EventDate:   target.EventDate.AddDate(0, 0, 1),
		},
		{
			ID:          "found-noise",
			ItemType:    models.ItemTypeFound,
			Description: "blue backpack",
			Category:    "backpack",
			Location:    "gym",
			EventDate:   target.EventDate.AddDate(0, 0, 51),
		},
	}

	ranked := ranker.Rank(target, targetNorm, candidates)
	require.Len(t, ranked, 1)
	assert.Equal(t, "found-good", ranked[0].FoundID)
}

func TestRankOrdersByScoreDescending(t *testing.T) {
	ranker, target, targetNorm := rankerFixture()

	candidates := []*models.ItemRecord{
		{
			ID:          "found-partial",
			ItemType:    models.ItemTypeFound,
			Description: "brown wallet",
			Category:    "wallet",
			Location:    "classroom",
			EventDate:   target.EventDate.AddDate(0, 0, 5),
		},
		{
			ID:          "found-exact",
			ItemType:    models.ItemTypeFound,
			Description: "black leather wallet",
			Category:    "wallet",
			Location:    "library",
			EventDate:   target.EventDate,
		},
	}

	ranked := ranker.Rank(target, targetNorm, candidates)
	require.Len(t, ranked, 2)
	assert.Equal(t, "found-exact", ranked[0].FoundID)
	assert.Equal(t, "found-partial", ranked[1].FoundID)
	assert.GreaterOrEqual(t, ranked[0].Score, ranked[1].Score)
}

func TestRankTieBreaksByDateThenID(t *testing.T) {
	ranker, target, targetNorm := rankerFixture()

	// Both candidates sit beyond the decay horizon so their date sub-score is
	// identical and the composite scores tie exactly.
	older := &models.ItemRecord{
		ID:          "found-a",
		ItemType:    models.ItemTypeFound,
		Description: "black leather wallet",
		Category:    "wallet",
		Location:    "library",
		EventDate:   target.EventDate.AddDate(0, 0, -30),
	}
	newer := &models.ItemRecord{
		ID:          "found-b",
		ItemType:    models.ItemTypeFound,
		Description: "black leather wallet",
		Category:    "wallet",
		Location:    "library",
		EventDate:   target.EventDate.AddDate(0, 0, -20),
	}

	ranked := ranker.Rank(target, targetNorm, []*models.ItemRecord{older, newer})
	require.Len(t, ranked, 2)
	assert.Equal(t, ranked[0].Score, ranked[1].Score)
	assert.Equal(t, "found-b", ranked[0].FoundID, "more recent candidate wins the tie")

	// Equal scores and equal dates fall back to id ascending
	sameDate := &models.ItemRecord{
		ID:          "found-z",
		ItemType:    models.ItemTypeFound,
		Description: "black leather wallet",
		Category:    "wallet",
		Location:    "library",
		EventDate:   older.EventDate,
	}
	ranked = ranker.Rank(target, targetNorm, []*models.ItemRecord{sameDate, older})
	require.Len(t, ranked, 2)
	assert.Equal(t, "found-a", ranked[0].FoundID)
	assert.Equal(t, "found-z", ranked[1].FoundID)
}

func TestRankIsDeterministic(t *testing.T) {
	ranker, target, targetNorm := rankerFixture()

	candidates := []*models.ItemRecord{}
	for _, id := range []string{"found-3", "found-1", "found-2"} {
		candidates = append(candidates, &models.ItemRecord{
			ID:          id,
			ItemType:    models.ItemTypeFound,
			Description: "black leather wallet",
			Category:    "wallet",
			Location:    "library",
			EventDate:   target.EventDate,
		})
	}

	first := ranker.Rank(target, targetNorm, candidates)
	second := ranker.Rank(target, targetNorm, candidates)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].FoundID, second[i].FoundID)
	}
}

func TestRankAssignsPairIDsByTargetType(t *testing.T) {
	ranker, lostTarget, lostNorm := rankerFixture()

	foundCandidate := &models.ItemRecord{
		ID:          "found-1",
		ItemType:    models.ItemTypeFound,
		Description: "black leather wallet",
		Category:    "wallet",
		Location:    "library",
		EventDate:   lostTarget.EventDate,
	}

	ranked := ranker.Rank(lostTarget, lostNorm, []*models.ItemRecord{foundCandidate})
	require.Len(t, ranked, 1)
	assert.Equal(t, "lost-1", ranked[0].LostID)
	assert.Equal(t, "found-1", ranked[0].FoundID)

	// Reversed: a found target against lost candidates
	foundTarget := &models.ItemRecord{
		ID:          "found-9",
		ItemType:    models.ItemTypeFound,
		Description: "black leather wallet",
		Category:    "wallet",
		Location:    "library",
		EventDate:   lostTarget.EventDate,
	}
	lostCandidate := &models.ItemRecord{
		ID:          "lost-9",
		ItemType:    models.ItemTypeLost,
		Description: "black leather wallet",
		Category:    "wallet",
		Location:    "library",
		EventDate:   lostTarget.EventDate,
	}

	ranked = ranker.Rank(foundTarget, Normalize(foundTarget), []*models.ItemRecord{lostCandidate})
	require.Len(t, ranked, 1)
	assert.Equal(t, "lost-9", ranked[0].LostID)
	assert.Equal(t, "found-9", ranked[0].FoundID)
}

func TestRankTruncatesToMaxCandidates(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())
	ranker := NewRanker(scorer, RankerConfig{MinScore: 0.15, MaxCandidates: 3})

	target := &models.ItemRecord{
		ID:          "lost-1",
		ItemType:    models.ItemTypeLost,
		Description: "black leather wallet",
		Category:    "wallet",
		Location:    "library",
		EventDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}

	candidates := []*models.ItemRecord{}
	for _, id := range []string{"f1", "f2", "f3", "f4", "f5"} {
		candidates = append(candidates, &models.ItemRecord{
			ID:          id,
			ItemType:    models.ItemTypeFound,
			Description: "black leather wallet",
			Category:    "wallet",
			Location:    "library",
			EventDate:   target.EventDate,
		})
	}

	ranked := ranker.Rank(target, Normalize(target), candidates)
	assert.Len(t, ranked, 3)
}

func TestRankPercentageAndConfidence(t *testing.T) {
	ranker, target, targetNorm := rankerFixture()

	exact := &models.ItemRecord{
		ID:          "found-1",
		ItemType:    models.ItemTypeFound,
		Description: "black leather wallet",
		Category:    "wallet",
		Location:    "library",
		EventDate:   target.EventDate,
	}

	ranked := ranker.Rank(target, targetNorm, []*models.ItemRecord{exact})
	require.Len(t, ranked, 1)
	assert.Equal(t, 100, ranked[0].ScorePercentage)
	assert.Equal(t, models.ConfidenceHigh, ranked[0].Confidence)
}
