package delivery

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"adsreporter/internal/delivery/middleware"
	"adsreporter/pkg/config"
	"adsreporter/pkg/logger"
	"adsreporter/pkg/metrics"
)

type HTTPRouter struct {
	handlers *HTTPHandlers
	config   config.ServerConfig
	logger   *logger.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

func NewHTTPRouter(handlers *HTTPHandlers, config config.ServerConfig, logger *logger.Logger, metrics *metrics.Metrics, gatherer prometheus.Gatherer) *HTTPRouter {
	return &HTTPRouter{
		handlers: handlers,
		config:   config,
		logger:   logger,
		metrics:  metrics,
		gatherer: gatherer,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.RequestTimeout(r.config.RequestTimeout))

	corsConfig := cors.DefaultConfig()
	if len(r.config.AllowedOrigins) == 0 || slices.Contains(r.config.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = r.config.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	// Health endpoint
	router.GET("/health", r.handlers.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/dashboard", r.handlers.GetDashboard)
		v1.GET("/accounts", r.handlers.ListAccounts)

		// Credential endpoints
		token := v1.Group("/token")
		{
			token.POST("", r.handlers.SetToken)
			token.DELETE("", r.handlers.DeleteToken)
		}

		v1.PUT("/scope", r.handlers.SelectScope)
		v1.PUT("/realtime", r.handlers.SetRealtime)
		v1.POST("/refresh", r.handlers.Refresh)
		v1.POST("/insights", r.handlers.GenerateInsights)
		v1.DELETE("/error", r.handlers.DismissError)
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler(r.gatherer))

	return router
}
