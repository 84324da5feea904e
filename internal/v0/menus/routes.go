package menus

import (
	"MenuAPI/internal/auth"
	"MenuAPI/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the editor API. Reads accept a session or an API
// token; writes need a session and creating/updating is rate limited per user.
func RegisterRoutes(rg *gin.RouterGroup, h *Handler, authMiddleware *auth.Middleware, createLimiter, updateLimiter *ratelimit.Limiter) {
	menus := rg.Group("/menus")

	read := menus.Group("")
	read.Use(authMiddleware.RequireSessionOrToken())
	{
		read.GET("", h.ListMenus)
		read.GET("/recent", h.ListRecent)
		read.GET("/:week", h.GetMenu)
		read.GET("/:week/editor", h.GetEditor)
		read.GET("/:week/last-used", h.GetLastUsed)
	}

	write := menus.Group("")
	write.Use(authMiddleware.RequireSession())
	{
		write.POST("/:week", createLimiter.Middleware(UserKey), h.CreateMenu)
		write.PUT("/:week", updateLimiter.Middleware(UserKey), h.UpdateMenu)
		write.POST("/:week/draft", h.EnsureDraft)
		write.POST("/:week/publish", h.PublishMenu)
		write.POST("/:week/unpublish", h.UnpublishMenu)
		write.DELETE("/:week", h.DeleteMenu)
	}
}

// RegisterPublicRoutes mounts the unauthenticated views of published menus.
func RegisterPublicRoutes(rg *gin.RouterGroup, h *Handler) {
	public := rg.Group("/public/menus")
	{
		public.GET("/:week", h.GetPublicMenu)
		public.GET("/:week/whatsapp", h.GetWhatsAppText)
		public.GET("/:week/export.xlsx", h.ExportXLSX)
	}
}
