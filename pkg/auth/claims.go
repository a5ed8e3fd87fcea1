package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID string
	Name   string
	JTI    string
}

// AccessTokenClaims represents the typed JWT presented by callers. UserID is opaque
// to this service and only recorded as the performer of ledger and line item changes.
type AccessTokenClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
