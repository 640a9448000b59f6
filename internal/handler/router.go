package handler

import (
	"net/http"
	"strings"

	"dealintake/internal/metrics"
	"dealintake/internal/middleware"
	"dealintake/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterOptions holds what the router needs besides the service
type RouterOptions struct {
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	Store          Pinger
	Build          BuildInfo
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// NewRouter wires middleware and routes
func NewRouter(intakeService *service.IntakeService, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(opts.Logger, opts.Metrics),
		middleware.Recovery(opts.Logger),
	)

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitList(opts.AllowedOrigins, "*")
	corsConfig.AllowMethods = splitList(opts.AllowedMethods, "GET,POST,PUT,OPTIONS")
	corsConfig.AllowHeaders = splitList(opts.AllowedHeaders, "Content-Type,Authorization,"+middleware.RequestIDHeader)
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	healthHandler := NewHealthHandler(opts.Store, opts.Build)
	intakeHandler := NewIntakeHandler(intakeService)
	inventoryHandler := NewInventoryHandler(intakeService)
	patternsHandler := NewPatternsHandler(intakeService)

	router.GET("/health", healthHandler.Health)
	router.GET("/version", healthHandler.Version)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/intake", intakeHandler.Process)
		apiV1.POST("/intake/preview", intakeHandler.Preview)
		apiV1.GET("/intake/history/:id", intakeHandler.History)

		apiV1.POST("/inventory/match", inventoryHandler.Match)

		apiV1.GET("/patterns", patternsHandler.Get)
		apiV1.PUT("/patterns", patternsHandler.Update)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	return router
}

func splitList(value, fallback string) []string {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
