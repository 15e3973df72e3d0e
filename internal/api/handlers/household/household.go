// Package household holds the HTTP handlers for household allergen
// config, pantry inventory and favorites.
package household

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"meal-planner/internal/api/middleware"
	householdService "meal-planner/internal/core/household"
	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// Handler serves the household routes.
type Handler struct {
	db *sql.DB
}

// NewHandler creates the household handler.
func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

func writeError(c *gin.Context, err error) {
	if common.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: err.Error(),
		})
		return
	}
	var custom *common.CustomError
	if errors.As(err, &custom) {
		c.JSON(custom.Status, common.ErrorResponse{
			Code:    custom.Code,
			Message: custom.Message,
		})
		return
	}
	c.Error(err)
	c.JSON(http.StatusInternalServerError, common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: "internal server error",
	})
}

// requireHousehold returns the caller's household id or writes the
// NO_HOUSEHOLD error.
func requireHousehold(c *gin.Context) (string, bool) {
	householdID := middleware.HouseholdID(c)
	if householdID == "" {
		writeError(c, common.ErrNoHousehold)
		return "", false
	}
	return householdID, true
}

// Create handles POST /households.
func (h *Handler) Create(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, common.NewValidationError("name is required"))
		return
	}

	created, err := householdService.Create(c.Request.Context(), h.db, body.Name, middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Get handles GET /households/current.
func (h *Handler) Get(c *gin.Context) {
	householdID, ok := requireHousehold(c)
	if !ok {
		return
	}
	found, err := householdService.Get(c.Request.Context(), h.db, householdID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// ListAllergens handles GET /households/allergens.
func (h *Handler) ListAllergens(c *gin.Context) {
	householdID, ok := requireHousehold(c)
	if !ok {
		return
	}
	configs, err := householdService.ListAllergens(c.Request.Context(), h.db, householdID)
	if err != nil {
		writeError(c, err)
		return
	}
	if configs == nil {
		configs = []householdService.AllergenConfig{}
	}
	c.JSON(http.StatusOK, configs)
}

// SetAllergen handles PUT /households/allergens: upsert one allergen
// entry.
func (h *Handler) SetAllergen(c *gin.Context) {
	householdID, ok := requireHousehold(c)
	if !ok {
		return
	}
	var body struct {
		AllergenKey string `json:"allergen_key" binding:"required"`
		Severity    string `json:"severity"`
		IsActive    *bool  `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, common.NewValidationError("allergen_key is required"))
		return
	}
	if body.Severity == "" {
		body.Severity = householdService.SeverityExclude
	}
	active := true
	if body.IsActive != nil {
		active = *body.IsActive
	}

	cfg, err := householdService.SetAllergen(c.Request.Context(), h.db, householdID,
		body.AllergenKey, body.Severity, active)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// ListPantry handles GET /households/pantry.
func (h *Handler) ListPantry(c *gin.Context) {
	householdID, ok := requireHousehold(c)
	if !ok {
		return
	}
	items, err := householdService.ListPantry(c.Request.Context(), h.db, householdID)
	if err != nil {
		writeError(c, err)
		return
	}
	if items == nil {
		items = []householdService.PantryItem{}
	}
	c.JSON(http.StatusOK, items)
}

// AddPantryItem handles POST /households/pantry.
func (h *Handler) AddPantryItem(c *gin.Context) {
	householdID, ok := requireHousehold(c)
	if !ok {
		return
	}
	var item householdService.PantryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		writeError(c, common.NewValidationError("invalid request body"))
		return
	}
	item.HouseholdID = householdID

	added, err := householdService.AddPantryItem(c.Request.Context(), h.db, item)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

// RemovePantryItem handles DELETE /households/pantry/:id.
func (h *Handler) RemovePantryItem(c *gin.Context) {
	householdID, ok := requireHousehold(c)
	if !ok {
		return
	}
	if err := householdService.RemovePantryItem(c.Request.Context(), h.db, householdID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFavorites handles GET /favorites.
func (h *Handler) ListFavorites(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusOK, []householdService.Favorite{})
		return
	}
	favs, err := householdService.ListFavorites(c.Request.Context(), h.db, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if favs == nil {
		favs = []householdService.Favorite{}
	}
	c.JSON(http.StatusOK, favs)
}

// AddFavorite handles POST /favorites/:recipeId.
func (h *Handler) AddFavorite(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		writeError(c, common.ErrUnauthorized)
		return
	}
	recipeID, err := strconv.ParseInt(c.Param("recipeId"), 10, 64)
	if err != nil || recipeID < 1 {
		writeError(c, common.NewValidationError("invalid recipe id"))
		return
	}

	fav, err := householdService.AddFavorite(c.Request.Context(), h.db,
		middleware.HouseholdID(c), userID, recipeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fav)
}

// RemoveFavorite handles DELETE /favorites/:recipeId.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		writeError(c, common.ErrUnauthorized)
		return
	}
	recipeID, err := strconv.ParseInt(c.Param("recipeId"), 10, 64)
	if err != nil || recipeID < 1 {
		writeError(c, common.NewValidationError("invalid recipe id"))
		return
	}
	if err := householdService.RemoveFavorite(c.Request.Context(), h.db, userID, recipeID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
