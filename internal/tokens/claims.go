package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Type string

const (
	Access  Type = "access"
	Refresh Type = "refresh"
)

// CustomClaims is the identity carried by both tokens of a session. UserID is the durable
// identifier every check relies on; Extra is an open bag for additional claims.
type CustomClaims struct {
	UserID uuid.UUID
	Extra  map[string]any
}

type Claims struct {
	Type          Type           `json:"type"`
	UserID        string         `json:"user_id"`
	// IssuedAtMicro is iat in microseconds. Role changes are ordered against it.
	IssuedAtMicro int64          `json:"iat_us,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
	jwt.RegisteredClaims
}

// Issued returns the issue time at the best precision the token carries.
func (c *Claims) Issued() time.Time {
	if c.IssuedAtMicro > 0 {
		return time.UnixMicro(c.IssuedAtMicro).UTC()
	}
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

func (c *Claims) Custom() (CustomClaims, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return CustomClaims{}, err
	}
	return CustomClaims{UserID: id, Extra: c.Extra}, nil
}
