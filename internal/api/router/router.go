// Package router wires middleware and handlers into the gin engine.
package router

import (
	"database/sql"
	"time"

	adminHandler "meal-planner/internal/api/handlers/admin"
	"meal-planner/internal/api/handlers/health"
	householdHandler "meal-planner/internal/api/handlers/household"
	recipeHandler "meal-planner/internal/api/handlers/recipe"
	"meal-planner/internal/api/middleware"
	"meal-planner/internal/core/cache"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// Request body size limit (1MB); recipe payloads are small text.
	maxBodySize = 1 << 20
)

// Setup builds the HTTP router with the full middleware chain and all
// routes registered.
func Setup(cfg *config.Config, db *sql.DB, cacheBackend cache.Cache) *gin.Engine {
	common.LogInfo("starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-User-ID", "X-Household-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Identity(db))

	router.GET("/health", health.Check(cfg))
	router.GET("/ready", health.Readiness(db))
	router.GET("/live", health.Liveness)

	recipes := recipeHandler.NewHandler(db, cacheBackend)
	households := householdHandler.NewHandler(db)
	admin := adminHandler.NewHandler(db, cacheBackend)

	api := router.Group("/api/v1")
	{
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("", recipes.Search)
			recipeGroup.POST("", recipes.Create)
			recipeGroup.GET("/random", recipes.Random)
			recipeGroup.GET("/suggest", recipes.Suggest)
			recipeGroup.GET("/:id", recipes.Get)
			recipeGroup.PUT("/:id", recipes.Update)
			recipeGroup.DELETE("/:id", recipes.Delete)
		}

		householdGroup := api.Group("/households")
		{
			householdGroup.POST("", households.Create)
			householdGroup.GET("/current", households.Get)
			householdGroup.GET("/allergens", households.ListAllergens)
			householdGroup.PUT("/allergens", households.SetAllergen)
			householdGroup.GET("/pantry", households.ListPantry)
			householdGroup.POST("/pantry", households.AddPantryItem)
			householdGroup.DELETE("/pantry/:id", households.RemovePantryItem)
		}

		favoritesGroup := api.Group("/favorites")
		{
			favoritesGroup.GET("", households.ListFavorites)
			favoritesGroup.POST("/:recipeId", households.AddFavorite)
			favoritesGroup.DELETE("/:recipeId", households.RemoveFavorite)
		}

		adminGroup := api.Group("/admin")
		{
			adminGroup.POST("/index/rebuild", admin.RebuildIndex)
			adminGroup.GET("/cache/stats", admin.CacheStats)
		}
	}

	common.LogInfo("router setup completed",
		zap.Bool("cache_enabled", cacheBackend != nil),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router
}
