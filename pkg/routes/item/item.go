package item

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	itemrepo "github.com/Ramsey-B/clover/internal/repositories/item"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// Register registers item report routes
func Register(g *echo.Group) {
	g.POST("", CreateItem)
	g.GET("/:type/:id", GetItem)
	g.GET("/:type", ListOpenItems)
	g.POST("/:id/status", UpdateItemStatus)
}

// CreateItemRequest is the body for reporting a lost or found item
type CreateItemRequest struct {
	Type        string    `json:"type" validate:"required,oneof=lost found"`
	Description string    `json:"description" validate:"required"`
	Category    string    `json:"category"`
	Color       string    `json:"color"`
	Brand       string    `json:"brand"`
	Location    string    `json:"location"`
	EventDate   time.Time `json:"event_date"`
	ReporterID  string    `json:"reporter_id" validate:"required"`
}

// CreateItem stores a new item report
func CreateItem(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[CreateItemRequest](c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*itemrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	record, err := repo.Create(ctx, &models.ItemRecord{
		ItemType:    models.ItemType(req.Type),
		Description: req.Description,
		Category:    req.Category,
		Color:       req.Color,
		Brand:       req.Brand,
		Location:    req.Location,
		EventDate:   req.EventDate,
		ReporterID:  req.ReporterID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, record)
}

// GetItem retrieves an item report by type and id
func GetItem(c echo.Context) error {
	ctx := c.Request().Context()

	itemType := models.ItemType(c.Param("type"))
	if !itemType.IsValid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "type must be lost or found")
	}

	ctx, repo, err := ectoinject.GetContext[*itemrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	record, err := repo.Get(ctx, itemType, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

// ListOpenItems lists open item reports of one type
func ListOpenItems(c echo.Context) error {
	ctx := c.Request().Context()

	itemType := models.ItemType(c.Param("type"))
	if !itemType.IsValid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "type must be lost or found")
	}

	ctx, repo, err := ectoinject.GetContext[*itemrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, err := repo.ListOpenByType(ctx, itemType)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}

// UpdateStatusRequest is the body for an item status transition
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open claimed closed"`
}

// UpdateItemStatus transitions an item report's lifecycle status
func UpdateItemStatus(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[UpdateStatusRequest](c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*itemrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.UpdateStatus(ctx, c.Param("id"), models.ItemStatus(req.Status)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}
