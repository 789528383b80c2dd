package item

import (
	"context"
	"fmt"
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

// Repository handles item report persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new item repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const itemColumns = "id, item_type, description, category, color, brand, location, event_date, reporter_id, status, created_at, updated_at"

// Get retrieves an item report by type and id
func (r *Repository) Get(ctx context.Context, itemType models.ItemType, id string) (*models.ItemRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "item.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemColumns)
	sb.From("items")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("item_type", string(itemType)),
	)

	query, args := sb.Build()
	var item models.ItemRecord
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("%s item %s not found", itemType, id))
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"item_id": id}).Error("Failed to get item")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get item")
	}

	return &item, nil
}

// ListOpenByType lists all open item reports of the given type. This is the
// candidate set for matching.
func (r *Repository) ListOpenByType(ctx context.Context, itemType models.ItemType) ([]*models.ItemRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "item.Repository.ListOpenByType")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemColumns)
	sb.From("items")
	sb.Where(
		sb.Equal("item_type", string(itemType)),
		sb.Equal("status", string(models.ItemStatusOpen)),
	)
	sb.OrderBy("event_date DESC", "id ASC")

	query, args := sb.Build()
	var items []*models.ItemRecord
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list items")
	}

	return items, nil
}

// Create stores a new item report
func (r *Repository) Create(ctx context.Context, item *models.ItemRecord) (*models.ItemRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "item.Repository.Create")
	defer span.End()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = item.CreatedAt
	if item.Status == "" {
		item.Status = models.ItemStatusOpen
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("items")
	sb.Cols("id", "item_type", "description", "category", "color", "brand", "location", "event_date", "reporter_id", "status", "created_at", "updated_at")
	sb.Values(item.ID, item.ItemType, item.Description, item.Category, item.Color, item.Brand, item.Location, item.EventDate, item.ReporterID, item.Status, item.CreatedAt, item.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"item_id": item.ID}).Error("Failed to create item")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create item")
	}

	return item, nil
}

// UpdateStatus transitions an item report's status
func (r *Repository) UpdateStatus(ctx context.Context, id string, status models.ItemStatus) error {
	ctx, span := tracing.StartSpan(ctx, "item.Repository.UpdateStatus")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("items")
	sb.Set(
		sb.Assign("status", string(status)),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"item_id": id}).Error("Failed to update item status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update item status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("item %s not found", id))
	}

	return nil
}
