package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Actor          string
	OrganizationID *uuid.UUID
	JTI            string
}

// AccessTokenClaims represents the typed JWT presented by API clients.
type AccessTokenClaims struct {
	Actor          string     `json:"actor,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	jwt.RegisteredClaims
}

// ActorName returns the actor recorded on ledger and document rows, falling back to the subject.
func (c *AccessTokenClaims) ActorName() string {
	if c == nil {
		return ""
	}
	if actor := strings.TrimSpace(c.Actor); actor != "" {
		return actor
	}
	return strings.TrimSpace(c.Subject)
}
