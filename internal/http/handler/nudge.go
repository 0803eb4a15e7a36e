package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"workdiary.app/server/internal/http/dto"
	"workdiary.app/server/internal/http/middleware"
	"workdiary.app/server/internal/model"
	"workdiary.app/server/internal/service"
)

const nudgeListLimit = 20

// NudgeHandler triggers nudge generation and lists past nudges.
type NudgeHandler struct {
	nudgeService service.NudgeService
}

func NewNudgeHandler(nudgeService service.NudgeService) *NudgeHandler {
	return &NudgeHandler{nudgeService: nudgeService}
}

func (h *NudgeHandler) Generate(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	days, ok := bindDays(c)
	if !ok {
		return
	}

	nudge, result, err := h.nudgeService.Generate(c.Request.Context(), user.ID, days)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDays) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(c.Request.Context(), "generating nudge", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate nudge"})
		return
	}

	resp := toNudgeResponse(nudge)
	resp.Fallback = result.Fallback
	c.JSON(http.StatusCreated, gin.H{"nudge": resp})
}

// Preview composes a nudge without persisting or delivering it.
func (h *NudgeHandler) Preview(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	days, ok := bindDays(c)
	if !ok {
		return
	}

	result, err := h.nudgeService.Preview(c.Request.Context(), user.ID, days)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDays) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(c.Request.Context(), "previewing nudge", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to preview nudge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  result.Message,
		"fallback": result.Fallback,
	})
}

func (h *NudgeHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	nudges, err := h.nudgeService.List(c.Request.Context(), user.ID, nudgeListLimit)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "listing nudges", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list nudges"})
		return
	}

	resp := make([]dto.NudgeResponse, 0, len(nudges))
	for i := range nudges {
		resp = append(resp, toNudgeResponse(&nudges[i]))
	}
	c.JSON(http.StatusOK, gin.H{"nudges": resp})
}

func toNudgeResponse(n *model.Nudge) dto.NudgeResponse {
	resp := dto.NudgeResponse{
		ID:        n.ID,
		Message:   n.Message,
		Status:    string(n.Status),
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
	if n.DeliveredAt != nil {
		delivered := n.DeliveredAt.Format(time.RFC3339)
		resp.DeliveredAt = &delivered
	}
	return resp
}
