// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ridedispatch/internal/http/handlers"
	"ridedispatch/internal/http/middleware"
	"ridedispatch/internal/realtime"
)

type RouterDeps struct {
	Dispatch       handlers.Dispatcher
	Rides          handlers.RideReader
	Idempotency    handlers.IdempotencyStore
	RideTypes      handlers.RideTypeService
	Popularity     handlers.PopularityReporter
	Hub            *realtime.Hub
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	Log            *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(deps.Log),
		middleware.Logging(deps.Log),
		middleware.Metrics(),
		cors.New(corsConfig(deps.AllowedOrigins)),
	)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "Ride dispatch API is running")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.Hub != nil {
		ws := handlers.NewWSHandler(deps.Hub, deps.AllowedOrigins, deps.Log)
		r.GET("/ws", ws.Serve)
	}

	api := r.Group("/api")

	rideHandler := handlers.NewRideHandler(deps.Dispatch, deps.Rides, deps.Idempotency, deps.Log)
	requestChain := []gin.HandlerFunc{rideHandler.Request}
	if deps.RateLimiter != nil {
		requestChain = append([]gin.HandlerFunc{deps.RateLimiter.Middleware("rides_request")}, requestChain...)
	}
	api.POST("/rides/request", requestChain...)
	api.GET("/rides/:request_id", rideHandler.Get)

	rideTypeHandler := handlers.NewRideTypeHandler(deps.RideTypes, deps.Log)
	api.GET("/ride-types", rideTypeHandler.List)
	api.GET("/ride-types/:id", rideTypeHandler.Get)
	api.POST("/ride-types", rideTypeHandler.Create)
	api.PUT("/ride-types/:id", rideTypeHandler.Update)

	popularHandler := handlers.NewPopularHandler(deps.Popularity, deps.Log)
	api.GET("/popular-locations", popularHandler.Top)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", handlers.IdempotencyHeader, middleware.RequestIDHeader}
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader, "Retry-After"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
