package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog_backend/internal/models"
	"github.com/Skotchmaster/blog_backend/internal/tokens"
)

// Principal is the identity resolved from a verified token. It is built from the claims alone;
// use Gate.CurrentUser when the full user row is needed.
type Principal struct {
	UserID    uuid.UUID
	Username  string
	JTI       string
	Type      tokens.Type
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

func principalFrom(claims *tokens.Claims) (*Principal, error) {
	custom, err := claims.Custom()
	if err != nil {
		return nil, err
	}
	p := &Principal{
		UserID:   custom.UserID,
		Username: claims.Subject,
		JTI:      claims.ID,
		Type:     claims.Type,
		IssuedAt: claims.Issued(),
		Extra:    custom.Extra,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// CredentialStore is the slice of the user repository the auth core depends on.
type CredentialStore interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type PasswordVerifier interface {
	Verify(password, digest string) bool
}

// Observer receives the outcome of logins and token checks.
type Observer interface {
	ObserveLogin(result string)
	ObserveTokenCheck(result string)
}

type nopObserver struct{}

func (nopObserver) ObserveLogin(string)      {}
func (nopObserver) ObserveTokenCheck(string) {}
