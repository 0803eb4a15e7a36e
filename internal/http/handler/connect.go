package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"workdiary.app/server/internal/http/dto"
	"workdiary.app/server/internal/http/middleware"
	"workdiary.app/server/internal/model"
	"workdiary.app/server/internal/platform"
	"workdiary.app/server/internal/service"
)

const connectStateCookie = "workdiary_connect_state"

// ConnectHandler runs the per-platform OAuth connect flow.
type ConnectHandler struct {
	connections  service.ConnectionService
	frontendURL  string
	isProduction bool
}

func NewConnectHandler(connections service.ConnectionService, frontendURL string, isProduction bool) *ConnectHandler {
	return &ConnectHandler{
		connections:  connections,
		frontendURL:  frontendURL,
		isProduction: isProduction,
	}
}

func platformParam(c *gin.Context) (model.Platform, bool) {
	p := model.Platform(c.Param("platform"))
	if p == "google" {
		// The connect URLs use the short name.
		p = model.PlatformGoogleCalendar
	}
	if !p.Valid() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown platform"})
		return "", false
	}
	return p, true
}

func (h *ConnectHandler) Connect(c *gin.Context) {
	p, ok := platformParam(c)
	if !ok {
		return
	}
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	state, err := generateState()
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to generate state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate connect"})
		return
	}
	// The user ID rides in the cookie with the state so the callback can
	// bind the connection without a second session lookup.
	c.SetCookie(connectStateCookie, state+":"+strconv.FormatInt(user.ID, 10),
		600, "/", "", h.isProduction, true)

	authURL, err := h.connections.AuthURL(p, state)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to build auth url", "error", err, "platform", p)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate connect"})
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

func (h *ConnectHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	p, ok := platformParam(c)
	if !ok {
		return
	}

	cookie, err := c.Cookie(connectStateCookie)
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?connect_error=invalid_state")
		return
	}
	c.SetCookie(connectStateCookie, "", -1, "/", "", h.isProduction, true)

	state, userID, ok := splitConnectState(cookie)
	if !ok || state != c.Query("state") {
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?connect_error=invalid_state")
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?connect_error=no_code")
		return
	}

	if _, err := h.connections.HandleCallback(ctx, userID, p, code); err != nil {
		slog.ErrorContext(ctx, "connect callback failed", "error", err, "platform", p)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?connect_error=callback_failed")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/settings?connected="+string(p))
}

func (h *ConnectHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	conns, err := h.connections.List(c.Request.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "listing connections", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list connections"})
		return
	}

	connected := make(map[model.Platform]bool, len(conns))
	for _, conn := range conns {
		connected[conn.Platform] = true
	}

	resp := make([]dto.ConnectionResponse, 0, len(model.Platforms))
	for _, p := range model.Platforms {
		resp = append(resp, dto.ConnectionResponse{
			Platform:  string(p),
			Connected: connected[p],
		})
	}
	c.JSON(http.StatusOK, gin.H{"connections": resp})
}

func (h *ConnectHandler) Disconnect(c *gin.Context) {
	p, ok := platformParam(c)
	if !ok {
		return
	}
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	if err := h.connections.Disconnect(c.Request.Context(), user.ID, p); err != nil {
		if errors.Is(err, platform.ErrNotConnected) {
			c.JSON(http.StatusNotFound, gin.H{"error": string(p) + " is not connected"})
			return
		}
		slog.ErrorContext(c.Request.Context(), "disconnecting platform", "error", err, "platform", p)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to disconnect"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": string(p) + " disconnected"})
}

func splitConnectState(cookie string) (state string, userID int64, ok bool) {
	for i := len(cookie) - 1; i >= 0; i-- {
		if cookie[i] == ':' {
			id, err := strconv.ParseInt(cookie[i+1:], 10, 64)
			if err != nil {
				return "", 0, false
			}
			return cookie[:i], id, true
		}
	}
	return "", 0, false
}
