package app

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"buscontrol/internal/handler"
	"buscontrol/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler   *handler.TripHandler
	ReportHandler *handler.ReportHandler
	HealthHandler *handler.HealthHandler
	RedisClient   *redis.Client
	NewRelicApp   *newrelic.Application
	FrontendURL   string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{deps.FrontendURL},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:  []string{"Content-Type", "Authorization", "Idempotency-Key", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NewRelicAttributes())
	}

	router.GET("/health", deps.HealthHandler.Health)

	rutas := router.Group("/api/rutas")
	rutas.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	{
		// Reports and exports.
		rutas.GET("/estadisticas", deps.ReportHandler.Statistics)
		rutas.GET("/estadisticas/pdf", deps.ReportHandler.StatisticsPDF)
		rutas.GET("/export/xml", deps.ReportHandler.ExportDeclarative)
		rutas.GET("/export/xml-directo", deps.ReportHandler.ExportStructural)
		rutas.GET("/export/xlsx", deps.ReportHandler.ExportSpreadsheet)

		// Record CRUD.
		rutas.GET("", deps.TripHandler.List)
		rutas.POST("", deps.TripHandler.Create)
		rutas.GET("/:id", deps.TripHandler.Get)
		rutas.PUT("/:id", deps.TripHandler.Update)
		rutas.DELETE("/:id", deps.TripHandler.Delete)
	}

	return router
}
