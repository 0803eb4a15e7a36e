package router

import (
	"github.com/gin-gonic/gin"

	"workdiary.app/server/internal/http/handler"
)

func ActivityRouter(rg *gin.RouterGroup, h *handler.ActivityHandler) {
	rg.GET("", h.GetComposite)
	rg.GET("/slack", h.GetSlack)
	rg.GET("/calendar", h.GetCalendar)
	rg.GET("/github", h.GetGitHub)
}
