package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/quota"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

type memoryItemStore struct {
	items []*models.ItemRecord
}

func (s *memoryItemStore) Get(_ context.Context, itemType models.ItemType, id string) (*models.ItemRecord, error) {
	for _, item := range s.items {
		if item.ID == id && item.ItemType == itemType {
			return item, nil
		}
	}
	return nil, errors.New("item not found")
}

func (s *memoryItemStore) ListOpenByType(_ context.Context, itemType models.ItemType) ([]*models.ItemRecord, error) {
	var out []*models.ItemRecord
	for _, item := range s.items {
		if item.ItemType == itemType && item.Status == models.ItemStatusOpen {
			out = append(out, item)
		}
	}
	return out, nil
}

type stubExtractor struct {
	attrs *models.ExtractedAttributes
	calls int
}

func (s *stubExtractor) Extract(_ context.Context, _ string, _ models.ItemType) (*models.ExtractedAttributes, error) {
	s.calls++
	return s.attrs, nil
}

func reportDay(day int) time.Time {
	return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)
}

func TestMatchFlow_LostReportAgainstFoundPool(t *testing.T) {
	store := &memoryItemStore{items: []*models.ItemRecord{
		{
			ID:          "lost-wallet",
			ItemType:    models.ItemTypeLost,
			Description: "black leather wallet with a zipper",
			Category:    "wallet",
			Location:    "library",
			EventDate:   reportDay(10),
			ReporterID:  "alice",
			Status:      models.ItemStatusOpen,
		},
		{
			ID:          "found-wallet",
			ItemType:    models.ItemTypeFound,
			Description: "black leather wallet, zipper on the side",
			Category:    "purse",
			Location:    "main library",
			EventDate:   reportDay(11),
			ReporterID:  "bob",
			Status:      models.ItemStatusOpen,
		},
		{
			ID:          "found-phone",
			ItemType:    models.ItemTypeFound,
			Description: "silver iphone with cracked screen",
			Category:    "phone",
			Location:    "gym",
			EventDate:   reportDay(25),
			ReporterID:  "carol",
			Status:      models.ItemStatusOpen,
		},
		{
			ID:          "found-claimed",
			ItemType:    models.ItemTypeFound,
			Description: "black leather wallet with a zipper",
			Category:    "wallet",
			Location:    "library",
			EventDate:   reportDay(10),
			ReporterID:  "dave",
			Status:      models.ItemStatusClaimed,
		},
	}}

	ranker := matching.NewRanker(matching.NewScorer(matching.DefaultScorerConfig()), matching.DefaultRankerConfig())
	svc := matching.NewService(getTestLogger(), store, nil, nil, ranker, nil)

	result, err := svc.FindMatches(context.Background(), models.ItemTypeLost, "lost-wallet", false)
	require.NoError(t, err)

	t.Run("OnlyOpenOppositeReportsConsidered", func(t *testing.T) {
		for _, candidate := range result.Matches {
			assert.NotEqual(t, "found-claimed", candidate.FoundID, "claimed reports are out of the pool")
			assert.Equal(t, "lost-wallet", candidate.LostID)
		}
	})

	t.Run("SimilarReportRanksAboveDissimilar", func(t *testing.T) {
		require.NotEmpty(t, result.Matches)
		assert.Equal(t, "found-wallet", result.Matches[0].FoundID)
		assert.Equal(t, models.ConfidenceHigh, result.Matches[0].Confidence)
	})

	t.Run("AliasesBridgeVocabulary", func(t *testing.T) {
		// "purse" and "main library" on the found side still line up with
		// "wallet" and "library" on the lost side
		top := result.Matches[0]
		assert.Equal(t, 1.0, top.FieldScores["category"])
		assert.Equal(t, 1.0, top.FieldScores["location"])
	})
}

func TestMatchFlow_AIEnrichmentBudget(t *testing.T) {
	store := &memoryItemStore{items: []*models.ItemRecord{
		{
			ID:          "lost-vague",
			ItemType:    models.ItemTypeLost,
			Description: "small dark item near the entrance",
			EventDate:   reportDay(10),
			ReporterID:  "alice",
			Status:      models.ItemStatusOpen,
		},
		{
			ID:          "found-wallet",
			ItemType:    models.ItemTypeFound,
			Description: "small dark wallet",
			Category:    "wallet",
			Location:    "library",
			EventDate:   reportDay(10),
			ReporterID:  "bob",
			Status:      models.ItemStatusOpen,
		},
	}}

	extractor := &stubExtractor{attrs: &models.ExtractedAttributes{Category: "wallet", Location: "library"}}
	policy := models.RateLimitPolicy{
		Enabled:          true,
		PerUserPerMinute: 2,
		PerUserPerHour:   10,
		SystemEnabled:    true,
		SystemPerMinute:  100,
		SystemPerHour:    1000,
	}
	guard := quota.NewGuard(quota.NewMemoryStore(), nil, policy, getTestLogger())
	ranker := matching.NewRanker(matching.NewScorer(matching.DefaultScorerConfig()), matching.DefaultRankerConfig())
	svc := matching.NewService(getTestLogger(), store, extractor, guard, ranker, nil)
	ctx := context.Background()

	t.Run("EnrichmentImprovesFieldAgreement", func(t *testing.T) {
		result, err := svc.FindMatches(ctx, models.ItemTypeLost, "lost-vague", true)
		require.NoError(t, err)
		assert.True(t, result.AIApplied)
		require.NotEmpty(t, result.Matches)
		assert.Equal(t, 1.0, result.Matches[0].FieldScores["category"])
	})

	t.Run("ExhaustedBudgetFallsBackWithoutFailing", func(t *testing.T) {
		// Second call consumes the remaining per-minute budget; the third must
		// still succeed with AI disabled.
		_, err := svc.FindMatches(ctx, models.ItemTypeLost, "lost-vague", true)
		require.NoError(t, err)

		result, err := svc.FindMatches(ctx, models.ItemTypeLost, "lost-vague", true)
		require.NoError(t, err)
		assert.False(t, result.AIApplied)
		assert.Equal(t, 2, extractor.calls)
	})

	t.Run("PeekReflectsConsumption", func(t *testing.T) {
		snapshot, err := guard.Peek(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(0), snapshot.UserRemainingMinute)
		assert.Equal(t, int64(8), snapshot.UserRemainingHour)
	})
}
