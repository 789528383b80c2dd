package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func testItem(itemType models.ItemType, description, category, location string, eventDate time.Time) *models.ItemRecord {
	return &models.ItemRecord{
		ID:          "item-" + string(itemType),
		ItemType:    itemType,
		Description: description,
		Category:    category,
		Location:    location,
		EventDate:   eventDate,
	}
}

func TestScoreIdenticalOppositeCopy(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	lost := Normalize(testItem(models.ItemTypeLost, "black leather wallet", "wallet", "library", day))
	found := Normalize(testItem(models.ItemTypeFound, "black leather wallet", "wallet", "library", day))

	score, fields := scorer.Score(lost, found)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, 1.0, fields["description"])
	assert.Equal(t, 1.0, fields["category"])
	assert.Equal(t, 1.0, fields["location"])
	assert.Equal(t, 1.0, fields["date"])
}

func TestScoreIsSymmetric(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	a := Normalize(testItem(models.ItemTypeLost, "black leather wallet", "wallet", "library", day))
	b := Normalize(testItem(models.ItemTypeFound, "brown wallet with cards", "purse", "classroom", day.AddDate(0, 0, 3)))

	scoreAB, _ := scorer.Score(a, b)
	scoreBA, _ := scorer.Score(b, a)
	assert.Equal(t, scoreAB, scoreBA)
}

func TestScoreNearIdenticalOneDayApart(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	lost := Normalize(testItem(models.ItemTypeLost, "black leather wallet", "wallet", "library", day))
	found := Normalize(testItem(models.ItemTypeFound, "black leather wallet", "wallet", "library", day.AddDate(0, 0, 1)))

	score, _ := scorer.Score(lost, found)
	assert.Greater(t, score, 0.9)
	assert.Equal(t, models.ConfidenceHigh, models.TierForScore(score))
}

func TestScoreDissimilarReportsStayBelowFloor(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	lost := Normalize(testItem(models.ItemTypeLost, "black wallet", "wallet", "library", day))
	found := Normalize(testItem(models.ItemTypeFound, "blue backpack", "backpack", "gym", day.AddDate(0, 0, 51)))

	score, _ := scorer.Score(lost, found)
	assert.Less(t, score, DefaultRankerConfig().MinScore)
}

func TestScoreAlwaysBounded(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	items := []*models.ItemRecord{
		testItem(models.ItemTypeLost, "", "", "", time.Time{}),
		testItem(models.ItemTypeLost, "silver iphone with cracked screen", "phone", "bus stop", day),
		testItem(models.ItemTypeFound, "set of keys on a red keychain", "keys", "cafeteria", day.AddDate(0, 0, -30)),
		testItem(models.ItemTypeFound, "black leather wallet", "wallet", "library", day),
	}

	for _, a := range items {
		for _, b := range items {
			score, _ := scorer.Score(Normalize(a), Normalize(b))
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

func TestDateProximityMonotonicDecay(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	prev := scorer.DateProximity(base, base)
	assert.Equal(t, 1.0, prev)

	for d := 1; d <= 20; d++ {
		current := scorer.DateProximity(base, base.AddDate(0, 0, d))
		assert.LessOrEqual(t, current, prev, "proximity must not increase with distance (day %d)", d)
		prev = current
	}

	assert.Equal(t, 0.0, scorer.DateProximity(base, base.AddDate(0, 0, 14)))
	assert.Equal(t, 0.0, scorer.DateProximity(base, base.AddDate(0, 0, 100)))
}

func TestDateProximityMissingDates(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0.0, scorer.DateProximity(time.Time{}, base))
	assert.Equal(t, 0.0, scorer.DateProximity(base, time.Time{}))
	assert.Equal(t, 0.0, scorer.DateProximity(time.Time{}, time.Time{}))
}

func TestCategoryScore(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())

	assert.Equal(t, 1.0, scorer.CategoryScore("wallet", "wallet"))
	assert.Equal(t, 0.0, scorer.CategoryScore("wallet", "phone"))
	assert.Equal(t, 0.25, scorer.CategoryScore("wallet", UnknownField))
	assert.Equal(t, 0.25, scorer.CategoryScore(UnknownField, "wallet"))
	assert.Equal(t, 0.0, scorer.CategoryScore(UnknownField, UnknownField))
}

func TestLocationScore(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())

	library := NormalizedItem{Location: "library", Zone: "academic"}
	classroom := NormalizedItem{Location: "classroom", Zone: "academic"}
	gym := NormalizedItem{Location: "gym", Zone: "recreation"}
	unknown := NormalizedItem{Location: UnknownField}

	assert.Equal(t, 1.0, scorer.LocationScore(library, library))
	assert.Equal(t, 0.5, scorer.LocationScore(library, classroom))
	assert.Equal(t, 0.0, scorer.LocationScore(library, gym))
	assert.Equal(t, 0.0, scorer.LocationScore(library, unknown))
	assert.Equal(t, 0.0, scorer.LocationScore(unknown, unknown))
}

func TestJaccard(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())

	assert.Equal(t, 1.0, scorer.Jaccard([]string{"black", "wallet"}, []string{"black", "wallet"}))
	assert.Equal(t, 0.0, scorer.Jaccard([]string{"black"}, []string{"blue"}))
	assert.Equal(t, 0.0, scorer.Jaccard(nil, []string{"blue"}))
	assert.InDelta(t, 1.0/3.0, scorer.Jaccard([]string{"black", "wallet"}, []string{"black", "purse"}), 0.0001)
}

func TestLevenshtein(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())

	assert.Equal(t, 0, scorer.LevenshteinDistance("wallet", "wallet"))
	assert.Equal(t, 1, scorer.LevenshteinDistance("wallet", "wallets"))
	assert.Equal(t, 6, scorer.LevenshteinDistance("wallet", ""))
	assert.Equal(t, 1.0, scorer.Levenshtein("wallet", "wallet"))

	ratio := scorer.Levenshtein("black wallet", "blue backpack")
	require.Greater(t, ratio, 0.0)
	assert.Less(t, ratio, 1.0)
}

func TestTextSimilarityEmptyDescriptions(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig())

	empty := NormalizedItem{}
	full := NormalizedItem{Description: "black wallet", Tokens: []string{"black", "wallet"}}

	assert.Equal(t, 0.0, scorer.TextSimilarity(empty, full))
	assert.Equal(t, 0.0, scorer.TextSimilarity(full, empty))
}
