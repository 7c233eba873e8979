package routes

import (
	"time"

	"waypoint/config"
	"waypoint/handlers"
	"waypoint/middleware"
	"waypoint/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterPlanRoutes registers travel plan endpoints.
func RegisterPlanRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/plans")
	{
		api.POST("", hb.CreatePlanHandler)
		api.GET("", hb.ListPlansHandler)
		api.GET("/:id", hb.GetPlanHandler)
		api.PUT("/:id", hb.UpdatePlanHandler)
		api.DELETE("/:id", hb.DeletePlanHandler)
		api.POST("/:id/generate", hb.GeneratePlansHandler)
		api.GET("/:id/status", hb.GetStatusHandler)
		api.POST("/:id/select", hb.SelectPlanHandler)
		api.POST("/:id/refine", hb.RefinePlanHandler)
		api.GET("/:id/recommendations", hb.GetRecommendationsHandler)
	}
}

// RegisterCollectRoutes registers the on-demand data collection endpoints.
func RegisterCollectRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/collect")
	{
		api.POST("", hb.CollectDataHandler)
		api.GET("/status/:task_id", hb.GetCollectStatusHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(utils.ErrorHandler())
	r.Use(middleware.RequestLogger(utils.GetLogger()))
	r.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	RegisterPlanRoutes(r, hb)
	RegisterCollectRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
