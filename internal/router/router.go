package router

import (
	"inkwell/internal/handlers"
	"inkwell/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the API route table.
func RegisterRoutes(r *gin.Engine, auth *handlers.AuthHandler, posts *handlers.PostHandler, comments *handlers.CommentHandler, ratings *handlers.RatingHandler) {
	api := r.Group("/api")

	// Public routes
	api.POST("/users", auth.Register)
	api.POST("/users/login", auth.Login)
	api.POST("/users/logout", auth.Logout)
	api.GET("/user", auth.Me)

	api.GET("/posts", posts.List)
	api.GET("/posts/:slug", posts.Detail)
	api.GET("/comments", comments.List)

	// Protected routes
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", posts.Create)
		authorized.POST("/comments", comments.Create)
		authorized.PUT("/comments/:id", comments.Update)
		authorized.DELETE("/comments/:id", comments.Delete)
		authorized.PUT("/posts/:id/rate", ratings.Rate)
		authorized.DELETE("/posts/:id/rate", ratings.Unrate)
	}
}
