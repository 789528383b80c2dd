package match

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// Register registers match routes
func Register(g *echo.Group) {
	g.POST("", FindMatches)
}

// MatchRequest is the body for a match computation
type MatchRequest struct {
	Type   string `json:"type" validate:"required,oneof=lost found"`
	ItemID string `json:"itemId" validate:"required"`
	UseAI  bool   `json:"useAI"`
}

// FindMatches computes ranked candidate matches for an item report
func FindMatches(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[MatchRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := service.FindMatches(ctx, models.ItemType(req.Type), req.ItemID, req.UseAI)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
