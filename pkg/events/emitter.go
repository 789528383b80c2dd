// Package events handles event emission for match and extraction activity
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter handles event emission for Clover
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitMatchComputed emits an event after a match run completes
func (e *Emitter) EmitMatchComputed(ctx context.Context, result *models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchComputed")
	defer span.End()

	data := map[string]any{
		"schema_version": SchemaVersion,
		"target_type":    result.TargetType,
		"ai_applied":     result.AIApplied,
		"total_matches":  result.TotalMatches,
	}
	if len(result.Matches) > 0 {
		data["top_score"] = result.Matches[0].Score
		data["top_confidence"] = result.Matches[0].Confidence
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.Event{
		EventType: "match.computed",
		SubjectID: result.TargetID,
		Data:      dataJSON,
	}

	if err := e.producer.Publish(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit match.computed event")
		return err
	}

	return nil
}

// EmitExtractionPerformed emits an event after a billable AI extraction
func (e *Emitter) EmitExtractionPerformed(ctx context.Context, userID string, subjectID string, attrs *models.ExtractedAttributes) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitExtractionPerformed")
	defer span.End()

	data := map[string]any{
		"schema_version": SchemaVersion,
		"category":       attrs.Category,
		"color":          attrs.Color,
		"brand":          attrs.Brand,
		"location":       attrs.Location,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.Event{
		EventType: "extraction.performed",
		SubjectID: subjectID,
		UserID:    userID,
		Data:      dataJSON,
	}

	if err := e.producer.Publish(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit extraction.performed event")
		return err
	}

	return nil
}
