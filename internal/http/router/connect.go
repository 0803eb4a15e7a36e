package router

import (
	"github.com/gin-gonic/gin"

	"workdiary.app/server/internal/http/handler"
)

// ConnectRouter wires the platform connect flow. The OAuth callback lives
// on a public group since the provider redirect carries no session; the
// state cookie binds it back to the user.
func ConnectRouter(rg *gin.RouterGroup, public *gin.RouterGroup, h *handler.ConnectHandler) {
	rg.GET("", h.List)
	rg.GET("/:platform/start", h.Connect)
	rg.DELETE("/:platform", h.Disconnect)

	public.GET("/:platform/callback", h.Callback)
}
