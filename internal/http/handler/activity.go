package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"workdiary.app/server/internal/http/dto"
	"workdiary.app/server/internal/http/middleware"
	"workdiary.app/server/internal/model"
	"workdiary.app/server/internal/platform"
	"workdiary.app/server/internal/service"
)

// ActivityHandler serves the composite view and the per-platform stats.
type ActivityHandler struct {
	activityService service.ActivityService
}

func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func bindDays(c *gin.Context) (int, bool) {
	var query dto.AnalyzeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidDays.Error()})
		return 0, false
	}
	return query.Days, true
}

// GetComposite runs the full pipeline. Platform failures surface as
// placeholder sections inside the view, never as an error status.
func (h *ActivityHandler) GetComposite(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	days, ok := bindDays(c)
	if !ok {
		return
	}

	view, _, err := h.activityService.Analyze(c.Request.Context(), user.ID, days)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDays) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(c.Request.Context(), "composite analysis failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ActivityHandler) GetSlack(c *gin.Context) {
	h.platformStats(c, model.PlatformSlack, func(c *gin.Context, userID int64, days int) (any, error) {
		return h.activityService.AnalyzeSlack(c.Request.Context(), userID, days)
	})
}

func (h *ActivityHandler) GetCalendar(c *gin.Context) {
	h.platformStats(c, model.PlatformGoogleCalendar, func(c *gin.Context, userID int64, days int) (any, error) {
		return h.activityService.AnalyzeCalendar(c.Request.Context(), userID, days)
	})
}

func (h *ActivityHandler) GetGitHub(c *gin.Context) {
	h.platformStats(c, model.PlatformGitHub, func(c *gin.Context, userID int64, days int) (any, error) {
		return h.activityService.AnalyzeGitHub(c.Request.Context(), userID, days)
	})
}

// platformStats is the shared skeleton for the single-platform endpoints.
// Unlike the composite, these return real error statuses.
func (h *ActivityHandler) platformStats(c *gin.Context, p model.Platform, analyze func(*gin.Context, int64, int) (any, error)) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	days, ok := bindDays(c)
	if !ok {
		return
	}

	stats, err := analyze(c, user.ID, days)
	if err != nil {
		h.platformError(c, p, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ActivityHandler) platformError(c *gin.Context, p model.Platform, err error) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, service.ErrInvalidDays):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, platform.ErrNotConnected):
		c.JSON(http.StatusBadRequest, gin.H{"error": "connect " + string(p) + " first"})
	case errors.Is(err, platform.ErrCredentialInvalid):
		slog.WarnContext(ctx, "platform credential invalid", "platform", p)
		c.JSON(http.StatusUnauthorized, gin.H{"error": string(p) + " credential invalid, reconnect"})
	case errors.Is(err, platform.ErrUnavailable):
		slog.WarnContext(ctx, "platform unavailable", "platform", p)
		c.JSON(http.StatusBadGateway, gin.H{"error": string(p) + " is unavailable, try again later"})
	default:
		slog.ErrorContext(ctx, "platform analysis failed", "platform", p, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
	}
}
