// Package admin holds operational endpoints: index rebuild and cache
// stats.
package admin

import (
	"database/sql"
	"net/http"

	"meal-planner/internal/core/cache"
	"meal-planner/internal/core/search"
	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// Handler serves the admin routes.
type Handler struct {
	db    *sql.DB
	cache cache.Cache
}

// NewHandler creates the admin handler.
func NewHandler(db *sql.DB, c cache.Cache) *Handler {
	return &Handler{db: db, cache: c}
}

// RebuildIndex handles POST /admin/index/rebuild: full regeneration of
// the search index from recipe rows.
func (h *Handler) RebuildIndex(c *gin.Context) {
	count, err := search.RebuildIndex(h.db)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{
			Code:    common.ErrCodeInternalError,
			Message: "index rebuild failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"indexed": count})
}

// CacheStats handles GET /admin/cache/stats.
func (h *Handler) CacheStats(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, h.cache.Stats())
}
