package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/studyplan-backend/internal/config"
	"github.com/stemsi/studyplan-backend/internal/handler"
	"github.com/stemsi/studyplan-backend/internal/middleware"
	"github.com/stemsi/studyplan-backend/internal/response"
	"github.com/stemsi/studyplan-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session *handler.SessionHandler
	Plan    *handler.PlanHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	sessionService *service.SessionService,
	handlers *Handlers,
	sessionLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "session_store": cfg.SessionStore})
	})

	// ─── 1. Sessions (Public, Rate Limited) ────────────────────────────
	sessions := router.Group("/api/v1/sessions")
	sessions.Use(sessionLimiter.Middleware())
	{
		sessions.POST("", handlers.Session.Create)
	}

	requireSession := middleware.RequirePlanSession(sessionService)

	// ─── 2. Plan (Session Token) ───────────────────────────────────────
	plan := router.Group("/api/v1/plan")
	plan.Use(requireSession, middleware.NoStore())
	{
		plan.GET("", handlers.Plan.GetView)
		plan.GET("/table", handlers.Plan.GetTable)

		plan.POST("/period", handlers.Plan.SavePeriod)
		plan.DELETE("/period", handlers.Plan.ResetPeriod)

		plan.POST("/subjects", handlers.Plan.SaveSubject)
		plan.POST("/results", handlers.Plan.RequestResults)

		plan.POST("/edit", handlers.Plan.EnterEditMode)
		plan.PUT("/edit/:index", handlers.Plan.SelectEditTarget)
	}

	// ─── 3. WebSocket (Token Query Param) ──────────────────────────────
	wsGroup := router.Group("/ws/v1")
	wsGroup.Use(requireSession)
	{
		wsGroup.GET("/plan/stream", handlers.WS.PlanStream)
	}

	return router
}
