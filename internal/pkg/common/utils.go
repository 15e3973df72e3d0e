package common

import (
	"github.com/google/uuid"
)

// GenerateUUID returns a new random UUID string, used for household-scoped
// row identities (allergen configs, pantry items, favorites).
func GenerateUUID() string {
	return uuid.New().String()
}
