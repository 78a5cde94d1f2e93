package routes

import (
	"time"

	"carelink/handlers"
	"carelink/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the local UI surface.
func RegisterRoutes(r *gin.Engine, plan *handlers.PlanHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", handlers.HealthHandler)

	api := r.Group("/api")
	{
		api.GET("/plan/state", plan.GetStateHandler)
		api.POST("/plan/refresh", middleware.RateLimitMiddleware(), plan.RefreshHandler)
		api.POST("/session/signout", plan.SignOutHandler)
	}
}
