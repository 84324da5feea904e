package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all auth-related routes
func RegisterRoutes(
	router *gin.RouterGroup,
	handler *Handler,
	adminHandler *AdminHandler,
	middleware *Middleware,
) {
	auth := router.Group("/auth")
	{
		auth.GET("/providers", handler.Providers)
		auth.GET("/login/:provider", handler.Login)
		auth.GET("/callback/:provider", handler.Callback)
		auth.POST("/signup", handler.Signup)
		auth.POST("/signin", handler.Signin)
		auth.GET("/session", middleware.OptionalSession(), handler.Session)

		sessionProtected := auth.Group("")
		sessionProtected.Use(middleware.RequireSession())
		{
			sessionProtected.GET("/me", handler.Me)
			sessionProtected.POST("/logout", handler.Logout)

			sessionProtected.GET("/tokens", handler.ListTokens)
			sessionProtected.POST("/tokens", handler.CreateToken)
			sessionProtected.DELETE("/tokens/:id", handler.RevokeToken)
		}
	}

	admin := router.Group("/admin")
	admin.Use(middleware.RequireSession())
	admin.Use(middleware.RequireRole(RoleAdmin))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/users/:id", adminHandler.GetUser)
		admin.PATCH("/users/:id", adminHandler.UpdateUser)
		admin.GET("/users/:id/tokens", adminHandler.ListUserTokens)
		admin.DELETE("/tokens/:id", adminHandler.RevokeToken)
	}
}
