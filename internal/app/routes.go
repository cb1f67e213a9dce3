package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/statboard/internal/config"
	"github.com/prperemyshlev/statboard/internal/handler"
	"github.com/prperemyshlev/statboard/pkg/observability"
)

type middlewares struct {
	auth      gin.HandlerFunc
	admin     gin.HandlerFunc
	access    gin.HandlerFunc
	cache     gin.HandlerFunc
	noCache   gin.HandlerFunc
	rateLimit gin.HandlerFunc
}

// setupRoutes registers the API. Guards run before the cache so cached
// responses are only served to callers that passed them.
func setupRoutes(router *gin.Engine, cfg *config.Config, h handlers, mw middlewares, metricsHandler http.Handler) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", h.health.Handler)

	api := router.Group(cfg.Server.GlobalPrefix)

	auth := api.Group("/auth", mw.noCache)
	{
		auth.POST("/register", mw.rateLimit, h.auth.Register)
		auth.POST("/login", mw.rateLimit, h.auth.Login)
		auth.GET("/refresh-tokens", h.auth.RefreshTokens)
		auth.GET("/logout", h.auth.Logout)

		for _, p := range h.providers {
			auth.GET("/"+string(p), h.auth.ProviderLogin(p))
			auth.GET("/"+string(p)+"/redirect", h.auth.ProviderCallback(p))
		}
	}

	api.GET("/uploads/:name", h.files.Serve)

	protected := api.Group("", mw.auth)

	users := protected.Group("/users")
	{
		users.GET("", mw.admin, mw.cache, h.users.List)
		users.GET("/:userId", mw.access, mw.cache, h.users.Get)
		users.PUT("/:userId", mw.access, mw.cache, h.users.Update)
		users.PATCH("/:userId", mw.admin, mw.cache, h.users.SetBlocked)
		users.DELETE("/:userId", mw.access, mw.cache, h.users.Delete)
	}

	products := protected.Group("/products")
	{
		products.GET("", mw.cache, h.products.List)
		products.GET("/:productId", mw.cache, h.products.Get)
		products.POST("", mw.admin, mw.cache, h.products.Create)
		products.PUT("/:productId", mw.admin, mw.cache, h.products.Update)
		products.DELETE("/:productId", mw.admin, mw.cache, h.products.Delete)
	}

	stats := protected.Group("/stats")
	{
		stats.GET("", mw.admin, mw.cache, h.stats.List)
		stats.GET("/:statsId", mw.cache, h.stats.Get)
		stats.DELETE("/:statsId/users/:userId", mw.access, mw.cache, h.stats.Delete)

		stats.POST("/products/:productId", mw.cache, h.stats.Create)
		stats.GET("/products/:productId", mw.cache, h.stats.ByProduct(handler.Unsorted))
		stats.GET("/products/:productId/sortByField", mw.cache, h.stats.ByProduct(handler.SortByField))
		stats.GET("/products/:productId/sortByFields", mw.cache, h.stats.ByProduct(handler.SortByFields))
		stats.GET("/products/:productId/users/:userId", mw.access, mw.cache, h.stats.ByUserAndProduct)

		stats.GET("/users/:userId", mw.access, mw.cache, h.stats.ByUser(handler.Unsorted, false))
		stats.GET("/users/:userId/sortByField", mw.access, mw.cache, h.stats.ByUser(handler.SortByField, true))
		stats.GET("/users/:userId/sortByFields", mw.access, mw.cache, h.stats.ByUser(handler.SortByFields, true))
	}

	files := protected.Group("/files", mw.noCache)
	{
		files.POST("/upload/:userId", mw.access, h.files.Upload)
		files.GET("/:userId", h.files.Fetch)
		files.DELETE("/:userId", mw.access, h.files.Delete)
	}
}
