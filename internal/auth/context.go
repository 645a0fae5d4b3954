package auth

import "github.com/gin-gonic/gin"

const (
	RoleAdmin          = "admin"
	RoleSecondaryAdmin = "secondary_admin"
	RoleArtisan        = "artisan"
)

// Actor is the authenticated caller. Authentication happens upstream
// (gateway); this service trusts the identity headers it forwards.
type Actor struct {
	UserID    string
	Role      string
	ArtisanID string
}

// IsAdmin reports whether the actor may act across all artisans.
func (a *Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSecondaryAdmin
}

// FromGin extracts the actor from forwarded identity headers.
func FromGin(c *gin.Context) *Actor {
	return &Actor{
		UserID:    c.GetHeader("X-User-Id"),
		Role:      c.GetHeader("X-User-Role"),
		ArtisanID: c.GetHeader("X-Artisan-Id"),
	}
}
