package dishes

import (
	"MenuAPI/internal/auth"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, h *Handler, authMiddleware *auth.Middleware) {
	dishes := rg.Group("/dishes")
	dishes.Use(authMiddleware.RequireSessionOrToken())
	{
		dishes.GET("", h.ListDishes)
		dishes.GET("/grouped", h.ListGrouped)
		dishes.GET("/:id", h.GetDish)
	}

	admin := rg.Group("/dishes")
	admin.Use(authMiddleware.RequireSession(), authMiddleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("", h.CreateDish)
		admin.PATCH("/:id", h.UpdateDish)
		admin.DELETE("/:id", h.DeleteDish)
	}
}
