package extraction

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/extraction"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/quota"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// Register registers extraction routes
func Register(g *echo.Group) {
	g.POST("", ExtractAttributes)
	g.GET("/quota", PeekQuota)
}

// ExtractRequest is the body for a standalone extraction call
type ExtractRequest struct {
	Text   string `json:"text" validate:"required"`
	Type   string `json:"type" validate:"required,oneof=lost found"`
	UserID string `json:"userId"`
}

// RateLimitResponse is the denial payload for an exhausted budget
type RateLimitResponse struct {
	Error                 string    `json:"error"`
	Reason                string    `json:"reason"`
	Message               string    `json:"message"`
	UserRemainingMinute   int64     `json:"userRemainingMinute"`
	UserRemainingHour     int64     `json:"userRemainingHour"`
	SystemRemainingMinute int64     `json:"systemRemainingMinute"`
	SystemRemainingHour   int64     `json:"systemRemainingHour"`
	ResetMinute           time.Time `json:"resetMinute"`
	ResetHour             time.Time `json:"resetHour"`
}

// ExtractAttributes runs quota-gated AI attribute extraction on free text.
// Requests without a userId skip the quota check.
func ExtractAttributes(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[ExtractRequest](c)
	if err != nil {
		return err
	}

	if req.UserID != "" {
		ctx, guard, err := ectoinject.GetContext[*quota.Guard](ctx)
		if err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
		}

		decision, err := guard.Admit(ctx, req.UserID, "extraction")
		if err != nil {
			return err
		}

		if !decision.Allowed {
			metrics.RecordQuotaDecision("denied", string(decision.Reason))
			return c.JSON(http.StatusTooManyRequests, RateLimitResponse{
				Error:                 "rate_limit_exceeded",
				Reason:                string(decision.Reason),
				Message:               decision.Message,
				UserRemainingMinute:   decision.Snapshot.UserRemainingMinute,
				UserRemainingHour:     decision.Snapshot.UserRemainingHour,
				SystemRemainingMinute: decision.Snapshot.SystemRemainingMinute,
				SystemRemainingHour:   decision.Snapshot.SystemRemainingHour,
				ResetMinute:           decision.Snapshot.ResetMinute,
				ResetHour:             decision.Snapshot.ResetHour,
			})
		}
		metrics.RecordQuotaDecision("allowed", "")
	}

	ctx, extractor, err := ectoinject.GetContext[extraction.Extractor](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	start := time.Now()
	attrs, err := extractor.Extract(ctx, req.Text, models.ItemType(req.Type))
	if err != nil {
		status := "error"
		if err == extraction.ErrNoResult {
			status = "empty"
		}
		metrics.RecordExtraction(status, time.Since(start).Seconds())
		return httperror.NewHTTPError(http.StatusInternalServerError, "extraction failed to produce a result")
	}
	metrics.RecordExtraction("ok", time.Since(start).Seconds())

	if req.UserID != "" {
		ctx, emitter, _ := ectoinject.GetContext[*events.Emitter](ctx)
		if emitter != nil {
			if err := emitter.EmitExtractionPerformed(ctx, req.UserID, "", attrs); err != nil {
				ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
				if logger != nil {
					logger.WithContext(ctx).WithError(err).Warn("Failed to emit extraction.performed event")
				}
			}
		}
	}

	return c.JSON(http.StatusOK, attrs)
}

// QuotaView reports the active limits and the remaining budget for a user
type QuotaView struct {
	UserID           string               `json:"userId"`
	Enabled          bool                 `json:"enabled"`
	PerUserPerMinute int64                `json:"perUserPerMinute"`
	PerUserPerHour   int64                `json:"perUserPerHour"`
	SystemPerMinute  int64                `json:"systemPerMinute,omitempty"`
	SystemPerHour    int64                `json:"systemPerHour,omitempty"`
	Remaining        models.QuotaSnapshot `json:"remaining"`
}

// PeekQuota reports current remaining quota without consuming any budget
func PeekQuota(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.QueryParam("userId")
	if userID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "userId query parameter is required")
	}

	ctx, guard, err := ectoinject.GetContext[*quota.Guard](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	snapshot, err := guard.Peek(ctx, userID)
	if err != nil {
		return err
	}

	policy := guard.Policy()
	return c.JSON(http.StatusOK, QuotaView{
		UserID:           userID,
		Enabled:          policy.Enabled,
		PerUserPerMinute: policy.PerUserPerMinute,
		PerUserPerHour:   policy.PerUserPerHour,
		SystemPerMinute:  policy.SystemPerMinute,
		SystemPerHour:    policy.SystemPerHour,
		Remaining:        *snapshot,
	})
}
