// Package matching implements lost-and-found item matching with a clear
// separation:
// - Normalization = facts (canonical, comparable item forms)
// - Scoring = logic (weighted field similarity, evaluated at query time)
package matching

import (
	"context"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/extraction"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/quota"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ItemStore is the persistence surface the matching service depends on
type ItemStore interface {
	Get(ctx context.Context, itemType models.ItemType, id string) (*models.ItemRecord, error)
	ListOpenByType(ctx context.Context, itemType models.ItemType) ([]*models.ItemRecord, error)
}

// Service finds candidate matches for an item report. AI extraction is an
// optional enrichment step gated by the quota guard; when it is denied or
// fails, matching proceeds on normalized fields alone.
type Service struct {
	log       ectologger.Logger
	items     ItemStore
	extractor extraction.Extractor
	guard     *quota.Guard
	ranker    *Ranker
	emitter   *events.Emitter
}

// NewService creates a new matching service. extractor, guard and emitter may
// be nil; the corresponding steps are skipped.
func NewService(
	log ectologger.Logger,
	items ItemStore,
	extractor extraction.Extractor,
	guard *quota.Guard,
	ranker *Ranker,
	emitter *events.Emitter,
) *Service {
	return &Service{
		log:       log,
		items:     items,
		extractor: extractor,
		guard:     guard,
		ranker:    ranker,
		emitter:   emitter,
	}
}

// FindMatches finds ranked candidate matches for an item report by:
// A) Loading the target and the open reports of the opposite type
// B) Optionally enriching the target with AI-extracted attributes
// C) Scoring, filtering and ordering the candidate set
//
// Key principles:
// - A lost report only ever matches found reports, and vice versa
// - AI enrichment is best effort; denial or failure falls back to plain
//   normalization with AIApplied=false, never an error
// - Identical inputs produce identical ordering
func (s *Service) FindMatches(ctx context.Context, itemType models.ItemType, itemID string, useAI bool) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.FindMatches")
	defer span.End()
	start := time.Now()

	log := s.log.WithContext(ctx).WithFields(map[string]any{
		"item_id":   itemID,
		"item_type": itemType,
	})

	target, err := s.items.Get(ctx, itemType, itemID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.items.ListOpenByType(ctx, itemType.Opposite())
	if err != nil {
		log.WithError(err).Error("Failed to load candidate reports")
		return nil, err
	}

	targetNorm := Normalize(target)

	aiApplied := false
	if useAI && s.extractor != nil {
		targetNorm, aiApplied = s.enrichTarget(ctx, target, targetNorm)
	}

	ranked := s.ranker.Rank(target, targetNorm, candidates)

	for _, candidate := range ranked {
		metrics.MatchScores.Observe(candidate.Score)
	}
	metrics.RecordMatch(string(itemType), strconv.FormatBool(aiApplied), time.Since(start).Seconds(), len(ranked))

	result := &models.MatchResult{
		TargetID:     target.ID,
		TargetType:   target.ItemType,
		AIApplied:    aiApplied,
		Matches:      ranked,
		TotalMatches: len(ranked),
	}

	if s.emitter != nil {
		if err := s.emitter.EmitMatchComputed(ctx, result); err != nil {
			log.WithError(err).Warn("Failed to emit match.computed event")
		}
	}

	log.WithFields(map[string]any{
		"match_count": len(ranked),
		"ai_applied":  aiApplied,
	}).Debug("Computed matches")

	return result, nil
}

// enrichTarget runs the quota-gated AI extraction for the target report and
// merges any extracted attributes into its normalized form
func (s *Service) enrichTarget(ctx context.Context, target *models.ItemRecord, norm NormalizedItem) (NormalizedItem, bool) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.enrichTarget")
	defer span.End()

	log := s.log.WithContext(ctx).WithFields(map[string]any{"item_id": target.ID})

	if s.guard != nil {
		decision, err := s.guard.Admit(ctx, target.ReporterID, "match")
		if err != nil {
			log.WithError(err).Warn("Quota check failed; matching without AI")
			return norm, false
		}
		if !decision.Allowed {
			metrics.RecordQuotaDecision("denied", string(decision.Reason))
			log.WithFields(map[string]any{"reason": decision.Reason}).Info("AI enrichment denied by quota; matching without AI")
			return norm, false
		}
		metrics.RecordQuotaDecision("allowed", "")
	}

	extractStart := time.Now()
	attrs, err := s.extractor.Extract(ctx, target.Description, target.ItemType)
	if err != nil {
		status := "error"
		if err == extraction.ErrNoResult {
			status = "empty"
		}
		metrics.RecordExtraction(status, time.Since(extractStart).Seconds())
		log.WithError(err).Warn("Attribute extraction failed; matching without AI")
		return norm, false
	}
	metrics.RecordExtraction("ok", time.Since(extractStart).Seconds())

	if s.emitter != nil {
		if err := s.emitter.EmitExtractionPerformed(ctx, target.ReporterID, target.ID, attrs); err != nil {
			log.WithError(err).Warn("Failed to emit extraction.performed event")
		}
	}

	return MergeExtracted(norm, attrs), true
}
