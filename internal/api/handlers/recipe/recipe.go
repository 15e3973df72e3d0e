package recipe

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"meal-planner/internal/api/middleware"
	"meal-planner/internal/core/cache"
	recipeService "meal-planner/internal/core/recipe"
	"meal-planner/internal/core/search"
	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the recipe routes.
type Handler struct {
	db    *sql.DB
	cache cache.Cache
}

// NewHandler creates the recipe handler. cache may be nil when caching
// is disabled.
func NewHandler(db *sql.DB, c cache.Cache) *Handler {
	return &Handler{db: db, cache: c}
}

// Search handles GET /recipes: allergen-safe text or structured search.
func (h *Handler) Search(c *gin.Context) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		writeError(c, err)
		return
	}
	pageSize, err := intQuery(c, "pageSize", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	maxTime, err := intQuery(c, "maxTime", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	minRating, err := floatQuery(c, "minRating")
	if err != nil {
		writeError(c, err)
		return
	}

	params := search.Params{
		Query:      c.Query("q"),
		Cuisine:    c.Query("cuisine"),
		MealType:   c.Query("mealType"),
		MaxTime:    maxTime,
		Difficulty: c.Query("difficulty"),
		MinRating:  minRating,
		Dietary:    c.Query("dietary"),
		Source:     c.Query("source"),
		Sort:       c.Query("sort"),
		Page:       page,
		PageSize:   pageSize,
	}

	householdID := middleware.HouseholdID(c)
	userID := middleware.UserID(c)

	// Random results are never cached; identical keys must still vary.
	cacheable := h.cache != nil && params.Sort != search.SortRandom
	var key string
	if cacheable {
		key = cache.Key(householdID+":"+userID, map[string]string{
			"q": params.Query, "cuisine": params.Cuisine, "mealType": params.MealType,
			"maxTime": strconv.Itoa(params.MaxTime), "difficulty": params.Difficulty,
			"minRating": strconv.FormatFloat(params.MinRating, 'f', -1, 64),
			"dietary":   params.Dietary, "source": params.Source, "sort": params.Sort,
			"page": strconv.Itoa(params.Page), "pageSize": strconv.Itoa(params.PageSize),
		})
		if data, err := h.cache.Get(c.Request.Context(), key); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", data)
			return
		}
	}

	result, err := search.Search(c.Request.Context(), h.db, householdID, userID, params)
	if err != nil {
		writeError(c, err)
		return
	}

	if cacheable {
		if data, err := json.Marshal(result); err == nil {
			if err := h.cache.Set(c.Request.Context(), key, data); err != nil {
				common.LogDebug("search cache store failed", zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, result)
}

// Random handles GET /recipes/random: allergen-safe random picks.
func (h *Handler) Random(c *gin.Context) {
	maxTime, err := intQuery(c, "maxTime", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	count, err := intQuery(c, "count", 1)
	if err != nil {
		writeError(c, err)
		return
	}

	picks, err := search.Random(c.Request.Context(), h.db, middleware.HouseholdID(c), search.RandomParams{
		Cuisine:  c.Query("cuisine"),
		MealType: c.Query("mealType"),
		MaxTime:  maxTime,
		Count:    count,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, picks)
}

// Suggest handles GET /recipes/suggest: pantry-match recommendations.
func (h *Handler) Suggest(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	mode := c.DefaultQuery("mode", search.ModePantry)

	householdID := middleware.HouseholdID(c)
	if householdID == "" {
		c.JSON(http.StatusOK, []search.Suggestion{})
		return
	}

	suggestions, err := search.SuggestFromPantry(c.Request.Context(), h.db, householdID, mode, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

// Get handles GET /recipes/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := recipeID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	r, err := recipeService.Get(c.Request.Context(), h.db, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Create handles POST /recipes for user-authored recipes.
func (h *Handler) Create(c *gin.Context) {
	var in recipeService.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, common.NewValidationError("invalid request body"))
		return
	}

	id, err := recipeService.Create(c.Request.Context(), h.db, in)
	if err != nil {
		writeError(c, err)
		return
	}

	common.LogInfo("recipe created",
		zap.Int64("id", id),
		zap.String("user_id", middleware.UserID(c)),
	)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Update handles PUT /recipes/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := recipeID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var in recipeService.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, common.NewValidationError("invalid request body"))
		return
	}
	if err := recipeService.Update(c.Request.Context(), h.db, id, in); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// Delete handles DELETE /recipes/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := recipeID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := recipeService.Delete(c.Request.Context(), h.db, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func recipeID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, common.NewValidationError("invalid recipe id")
	}
	return id, nil
}
