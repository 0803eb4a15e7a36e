package router

import (
	"github.com/gin-gonic/gin"

	"workdiary.app/server/internal/http/handler"
)

func NudgeRouter(rg *gin.RouterGroup, h *handler.NudgeHandler) {
	rg.POST("", h.Generate)
	rg.POST("/preview", h.Preview)
	rg.GET("", h.List)
}
