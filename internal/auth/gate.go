package auth

import (
	"context"
	"errors"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/logging"
	"github.com/Skotchmaster/blog_backend/internal/models"
	"github.com/Skotchmaster/blog_backend/internal/revocation"
	"github.com/Skotchmaster/blog_backend/internal/tokens"
)

type Gate struct {
	users       CredentialStore
	codec       *tokens.Codec
	revocations revocation.Store
	observer    Observer
	failOpen    bool
}

type GateConfig struct {
	Users       CredentialStore
	Codec       *tokens.Codec
	Revocations revocation.Store
	Observer    Observer
	// FailOpen lets RequireAccess proceed when the revocation store cannot be reached.
	// Refresh and logout paths always fail closed.
	FailOpen bool
}

func NewGate(cfg GateConfig) *Gate {
	obs := cfg.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Gate{
		users:       cfg.Users,
		codec:       cfg.Codec,
		revocations: cfg.Revocations,
		observer:    obs,
		failOpen:    cfg.FailOpen,
	}
}

func (g *Gate) RequireAccess(ctx context.Context, token string) (*Principal, error) {
	return g.require(ctx, token, tokens.Access, g.failOpen)
}

func (g *Gate) RequireRefresh(ctx context.Context, token string) (*Principal, error) {
	return g.require(ctx, token, tokens.Refresh, false)
}

func (g *Gate) require(ctx context.Context, token string, typ tokens.Type, failOpen bool) (*Principal, error) {
	l := logging.FromContext(ctx).With("component", "auth.gate", "token_type", string(typ))

	claims, err := g.codec.Decode(token, typ)
	if err != nil {
		g.observer.ObserveTokenCheck(apperr.KindOf(err).String())
		return nil, err
	}

	revoked, err := g.revocations.IsRevoked(ctx, claims.ID)
	switch {
	case err != nil && failOpen:
		l.Warn("revocation_check_skipped", "reason", "revocation store unavailable", "jti", claims.ID, "error", err)
	case err != nil:
		l.Error("revocation_check_failed", "status", 503, "jti", claims.ID, "error", err)
		g.observer.ObserveTokenCheck(apperr.KindUnavailable.String())
		return nil, err
	case revoked:
		g.observer.ObserveTokenCheck(apperr.KindTokenRevoked.String())
		return nil, apperr.ErrTokenRevoked
	}

	p, err := principalFrom(claims)
	if err != nil {
		g.observer.ObserveTokenCheck(apperr.KindTokenInvalid.String())
		return nil, apperr.Wrap(apperr.KindTokenInvalid, "Invalid token", err)
	}
	g.observer.ObserveTokenCheck("ok")
	return p, nil
}

// CurrentUser loads the user behind p. A user deleted since issuance makes the token unusable.
func (g *Gate) CurrentUser(ctx context.Context, p *Principal) (*models.User, error) {
	if p == nil {
		return nil, apperr.ErrTokenInvalid
	}
	user, err := g.users.FindUserByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindTokenInvalid, "User no longer exists", err)
		}
		return nil, err
	}
	return user, nil
}

// RequireAdmin re-reads the role on every call. A token minted before the role was
// last assigned is refused, so promotion requires a fresh login. Issue times carry
// microseconds; a token from the same second as the promotion is still ordered correctly.
func (g *Gate) RequireAdmin(ctx context.Context, p *Principal) error {
	user, err := g.CurrentUser(ctx, p)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return apperr.ErrForbidden
	}
	if p.IssuedAt.Before(user.RoleAssignedAt) {
		return apperr.Forbidden("Role changed since login, please log in again")
	}
	return nil
}

// RequireSelf allows an operation only on the caller's own account.
func (g *Gate) RequireSelf(p *Principal, target *models.User) error {
	if p == nil || target == nil || p.UserID != target.ID {
		return apperr.Forbidden("Operation is only allowed on your own account")
	}
	return nil
}
