package usage

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Repository persists the append-only usage ledger behind the quota counters.
// Rows are never mutated or deleted; the ledger exists so sliding counts can
// be reconstructed and audited.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new usage repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Append stores one usage record with a server-assigned timestamp
func (r *Repository) Append(ctx context.Context, record *models.UsageRecord) error {
	ctx, span := tracing.StartSpan(ctx, "usage.Repository.Append")
	defer span.End()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("usage_records")
	sb.Cols("id", "user_id", "endpoint", "created_at")
	sb.Values(record.ID, record.UserID, record.Endpoint, record.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"user_id": record.UserID}).Error("Failed to append usage record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to append usage record")
	}

	return nil
}

// CountSince reconstructs the sliding usage count for one user since the
// given cutoff
func (r *Repository) CountSince(ctx context.Context, userID string, cutoff time.Time) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "usage.Repository.CountSince")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("usage_records")
	sb.Where(
		sb.Equal("user_id", userID),
		sb.GreaterThan("created_at", cutoff),
	)

	query, args := sb.Build()
	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count usage records")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count usage records")
	}

	return count, nil
}

// CountSystemSince reconstructs the sliding usage count across all users
// since the given cutoff
func (r *Repository) CountSystemSince(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "usage.Repository.CountSystemSince")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("usage_records")
	sb.Where(sb.GreaterThan("created_at", cutoff))

	query, args := sb.Build()
	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count usage records")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count usage records")
	}

	return count, nil
}
