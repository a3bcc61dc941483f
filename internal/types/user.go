package types

import (
	"time"

	"github.com/google/uuid"
)

// Tier constants for user accounts.
const (
	TierFree = "free"
	TierPro  = "pro"
	TierTeam = "team"
	TierAPI  = "api"
)

// User is the identity anchor that owns all other entities. Deleting a
// user cascades to everything it owns.
type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email"`
	Tier       string    `json:"tier"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidTier reports whether the tier value is one of the known tiers.
func ValidTier(tier string) bool {
	switch tier {
	case TierFree, TierPro, TierTeam, TierAPI:
		return true
	}
	return false
}
