// Package quota implements the dual-scope, dual-window admission controller
// that gates AI attribute extraction calls.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Window lengths for the two accounting periods. Windows slide backward from
// "now"; they are not calendar buckets.
const (
	MinuteWindow = time.Minute
	HourWindow   = time.Hour
)

// Counts holds current usage for both scopes and both windows
type Counts struct {
	UserMinute   int64
	UserHour     int64
	SystemMinute int64
	SystemHour   int64
}

// AdmitResult is the outcome of an atomic check-and-record against the store.
// Counts reflect the state after the operation, so on admission they include
// the usage that was just recorded.
type AdmitResult struct {
	Allowed bool
	Reason  models.DenialReason
	Counts  Counts
}

// Store performs the check-then-record sequence as a single atomic operation.
// Two requests racing on the same budget must never both be admitted past the
// limit; separate read and write calls are not an acceptable implementation.
type Store interface {
	// Admit atomically checks all applicable limits and records one usage
	// when every check passes.
	Admit(ctx context.Context, userID string, policy models.RateLimitPolicy) (*AdmitResult, error)
	// Record appends one usage without checking limits. Used when the policy
	// is disabled so usage stays observable.
	Record(ctx context.Context, userID string) (Counts, error)
	// Counts reads current usage without recording anything.
	Counts(ctx context.Context, userID string) (Counts, error)
}

// Recorder persists the append-only usage ledger. Best effort: a ledger
// write failure never retracts an admission already counted.
type Recorder interface {
	Append(ctx context.Context, record *models.UsageRecord) error
}

// Guard gates AI extraction calls behind the configured budget
type Guard struct {
	store    Store
	recorder Recorder
	policy   models.RateLimitPolicy
	logger   ectologger.Logger
	now      func() time.Time
}

// NewGuard creates a new quota guard. recorder may be nil when no durable
// ledger is configured.
func NewGuard(store Store, recorder Recorder, policy models.RateLimitPolicy, logger ectologger.Logger) *Guard {
	return &Guard{
		store:    store,
		recorder: recorder,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

var denialMessages = map[models.DenialReason]string{
	models.DenialUserMinute:   "You have reached your per-minute limit for AI extraction. Try again shortly.",
	models.DenialUserHour:     "You have reached your hourly limit for AI extraction. Try again later.",
	models.DenialSystemMinute: "The service has reached its per-minute AI extraction capacity. Try again shortly.",
	models.DenialSystemHour:   "The service has reached its hourly AI extraction capacity. Try again later.",
}

// Admit runs the admission decision for one AI extraction call. User checks
// take priority over system checks; the first failing check wins. On
// admission one usage is recorded with a server-assigned timestamp; the
// admission stands even if the downstream AI call later fails.
func (g *Guard) Admit(ctx context.Context, userID string, endpoint string) (*models.QuotaDecision, error) {
	ctx, span := tracing.StartSpan(ctx, "quota.Guard.Admit")
	defer span.End()

	if !g.policy.Enabled {
		counts, err := g.store.Record(ctx, userID)
		if err != nil {
			return nil, err
		}
		g.appendLedger(ctx, userID, endpoint)
		return &models.QuotaDecision{
			Allowed:  true,
			Snapshot: g.snapshot(counts),
		}, nil
	}

	result, err := g.store.Admit(ctx, userID, g.policy)
	if err != nil {
		return nil, err
	}

	decision := &models.QuotaDecision{
		Allowed:  result.Allowed,
		Snapshot: g.snapshot(result.Counts),
	}

	if !result.Allowed {
		decision.Reason = result.Reason
		decision.Message = denialMessages[result.Reason]
		g.logger.WithContext(ctx).WithFields(map[string]any{
			"user_id": userID,
			"reason":  result.Reason,
		}).Info("AI extraction call denied by quota")
		return decision, nil
	}

	g.appendLedger(ctx, userID, endpoint)
	return decision, nil
}

// Peek reports the current remaining quota without consuming any budget
func (g *Guard) Peek(ctx context.Context, userID string) (*models.QuotaSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "quota.Guard.Peek")
	defer span.End()

	counts, err := g.store.Counts(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := g.snapshot(counts)
	return &snapshot, nil
}

// Policy returns the active policy for display purposes
func (g *Guard) Policy() models.RateLimitPolicy {
	return g.policy
}

func (g *Guard) snapshot(counts Counts) models.QuotaSnapshot {
	now := g.now().UTC()
	return models.QuotaSnapshot{
		UserRemainingMinute:   remaining(g.policy.PerUserPerMinute, counts.UserMinute),
		UserRemainingHour:     remaining(g.policy.PerUserPerHour, counts.UserHour),
		SystemRemainingMinute: remaining(g.policy.SystemPerMinute, counts.SystemMinute),
		SystemRemainingHour:   remaining(g.policy.SystemPerHour, counts.SystemHour),
		ResetMinute:           now.Add(MinuteWindow),
		ResetHour:             now.Add(HourWindow),
	}
}

func (g *Guard) appendLedger(ctx context.Context, userID string, endpoint string) {
	if g.recorder == nil {
		return
	}
	record := &models.UsageRecord{
		UserID:    userID,
		Endpoint:  endpoint,
		CreatedAt: g.now().UTC(),
	}
	if err := g.recorder.Append(ctx, record); err != nil {
		g.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": userID,
		}).Error(fmt.Sprintf("Failed to append usage record for %s", endpoint))
	}
}

func remaining(limit, count int64) int64 {
	if limit <= 0 {
		return 0
	}
	r := limit - count
	if r < 0 {
		return 0
	}
	return r
}
