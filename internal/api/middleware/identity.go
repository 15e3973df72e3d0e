package middleware

import (
	"database/sql"

	"meal-planner/internal/core/household"

	"github.com/gin-gonic/gin"
)

// Context keys set by Identity.
const (
	ContextUserID      = "user_id"
	ContextHouseholdID = "household_id"
)

// Identity resolves the caller's user and household from request
// headers. A missing household header falls back to the user's
// membership; requests with neither still proceed, handlers decide
// whether household scope is required.
func Identity(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		householdID := c.GetHeader("X-Household-ID")

		if householdID == "" && userID != "" {
			if resolved, err := household.ForUser(c.Request.Context(), db, userID); err == nil {
				householdID = resolved
			}
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextHouseholdID, householdID)
		c.Next()
	}
}

// UserID returns the caller's user id from the context, or "".
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// HouseholdID returns the caller's household id from the context, or "".
func HouseholdID(c *gin.Context) string {
	return c.GetString(ContextHouseholdID)
}
