package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT
// for a tenant console user.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	SiteID   *uuid.UUID
	Role     string
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	TenantID uuid.UUID  `json:"tenant_id"`
	SiteID   *uuid.UUID `json:"site_id,omitempty"`
	Role     string     `json:"role"`
	jwt.RegisteredClaims
}
