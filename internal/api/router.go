package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"garden-controller/config"
	"garden-controller/internal/executor"
	"garden-controller/internal/mw"
	"garden-controller/internal/store"
)

// NewRouter creates and configures a new Gin router for the status API.
func NewRouter(cfg *config.ServerConfig, circuitCache store.Cache, ledger store.Ledger,
	status *executor.Status) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	handler := NewHandler(circuitCache, ledger, status)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), 5)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 10*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api/v1")
	api.Use(rateLimiter)
	{
		api.GET("/status", handler.GetStatus)
		api.GET("/circuit", caching, handler.GetCircuit)
		api.GET("/activations", caching, handler.GetActivations)
	}

	return r
}
