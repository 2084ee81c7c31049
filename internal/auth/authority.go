package auth

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
	"github.com/Skotchmaster/blog_backend/internal/events"
	"github.com/Skotchmaster/blog_backend/internal/logging"
	"github.com/Skotchmaster/blog_backend/internal/models"
	"github.com/Skotchmaster/blog_backend/internal/revocation"
	"github.com/Skotchmaster/blog_backend/internal/tokens"
)

// revocationWriteTimeout bounds revocation writes once they are detached from the request.
const revocationWriteTimeout = 5 * time.Second

// Detached keeps the values of ctx but not its cancellation. Revocations and the writes that
// go with them run on it, so they complete even after the client has gone away.
func Detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), revocationWriteTimeout)
}

// TokenPair is what login and refresh hand back. RefreshToken is empty after a refresh
// without rotation.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type Authority struct {
	gate        *Gate
	users       CredentialStore
	hasher      PasswordVerifier
	codec       *tokens.Codec
	revocations revocation.Store
	events      events.Publisher
	observer    Observer
	now         func() time.Time

	accessTTL  time.Duration
	refreshTTL time.Duration
	rotation   bool

	dummyDigest string
}

type AuthorityConfig struct {
	Gate        *Gate
	Users       CredentialStore
	Hasher      PasswordVerifier
	Codec       *tokens.Codec
	Revocations revocation.Store
	Events      events.Publisher
	Observer    Observer
	Now         func() time.Time

	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	RefreshRotation bool

	// DummyDigest is checked when the username is unknown.
	DummyDigest string
}

func NewAuthority(cfg AuthorityConfig) *Authority {
	a := &Authority{
		gate:        cfg.Gate,
		users:       cfg.Users,
		hasher:      cfg.Hasher,
		codec:       cfg.Codec,
		revocations: cfg.Revocations,
		events:      cfg.Events,
		observer:    cfg.Observer,
		now:         cfg.Now,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		rotation:    cfg.RefreshRotation,
		dummyDigest: cfg.DummyDigest,
	}
	if a.events == nil {
		a.events = events.Nop{}
	}
	if a.observer == nil {
		a.observer = nopObserver{}
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

func (a *Authority) Gate() *Gate { return a.gate }

func (a *Authority) RefreshRotation() bool { return a.rotation }

func (a *Authority) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := a.users.FindUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			l.Error("login_failed", "status", 500, "reason", "cannot load user", "error", err)
			a.observer.ObserveLogin("error")
			return nil, err
		}
		a.hasher.Verify(password, a.dummyDigest)
		l.Warn("login_failed", "status", 401, "reason", "unknown username")
		a.observer.ObserveLogin("bad_credentials")
		return nil, apperr.ErrBadCredentials
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		l.Warn("login_failed", "status", 401, "reason", "password mismatch")
		a.observer.ObserveLogin("bad_credentials")
		return nil, apperr.ErrBadCredentials
	}

	custom := tokens.CustomClaims{UserID: user.ID}
	access, err := a.codec.Issue(user.Username, custom, tokens.Access, a.accessTTL)
	if err != nil {
		a.observer.ObserveLogin("error")
		return nil, err
	}
	refresh, err := a.codec.Issue(user.Username, custom, tokens.Refresh, a.refreshTTL)
	if err != nil {
		a.observer.ObserveLogin("error")
		return nil, err
	}

	a.observer.ObserveLogin("success")
	a.publish(ctx, user, events.UserLoggedIn)
	l.Info("login_successful")

	return &TokenPair{
		AccessToken:      access.Token,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshToken:     refresh.Token,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

// Refresh issues a new access token for the user behind a valid refresh token. The user is
// re-resolved by id, so a rename since login is picked up as the new subject.
func (a *Authority) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	p, err := a.gate.RequireRefresh(ctx, refreshToken)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", apperr.KindOf(err).String(), "error", err)
		return nil, err
	}

	user, err := a.gate.CurrentUser(ctx, p)
	if err != nil {
		l.Warn("refresh_failed", "reason", "cannot resolve user", "user_id", p.UserID, "error", err)
		return nil, err
	}

	custom := tokens.CustomClaims{UserID: user.ID, Extra: p.Extra}
	pair := &TokenPair{}

	if a.rotation {
		wctx, cancel := Detached(ctx)
		consumed, err := a.revocations.Consume(wctx, p.JTI, a.remaining(p))
		cancel()
		if err != nil {
			l.Error("refresh_failed", "status", 503, "reason", "cannot revoke consumed refresh token", "error", err)
			return nil, err
		}
		if !consumed {
			l.Warn("refresh_failed", "status", 401, "reason", "refresh token already used", "user_id", p.UserID)
			return nil, apperr.ErrTokenRevoked
		}
		refresh, err := a.codec.Issue(user.Username, custom, tokens.Refresh, a.refreshTTL)
		if err != nil {
			return nil, err
		}
		pair.RefreshToken = refresh.Token
		pair.RefreshExpiresAt = refresh.ExpiresAt
	}

	access, err := a.codec.Issue(user.Username, custom, tokens.Access, a.accessTTL)
	if err != nil {
		return nil, err
	}
	pair.AccessToken = access.Token
	pair.AccessExpiresAt = access.ExpiresAt

	l.Info("refresh_successful", "user_id", user.ID, "rotated", a.rotation)
	return pair, nil
}

// IssueAccess mints an access token for user outside the login flow, e.g. after a rename
// changed the subject.
func (a *Authority) IssueAccess(user *models.User, extra map[string]any) (tokens.Issued, error) {
	return a.codec.Issue(user.Username, tokens.CustomClaims{UserID: user.ID, Extra: extra}, tokens.Access, a.accessTTL)
}

// RevokePrincipal revokes the token p was resolved from for the rest of its lifetime.
func (a *Authority) RevokePrincipal(ctx context.Context, p *Principal) error {
	return a.Revoke(ctx, p.JTI, a.remaining(p))
}

func (a *Authority) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	wctx, cancel := Detached(ctx)
	defer cancel()
	return a.revocations.MarkRevoked(wctx, jti, ttl)
}

// RevokeToken verifies token as typ and revokes it for the rest of its lifetime.
func (a *Authority) RevokeToken(ctx context.Context, token string, typ tokens.Type) (*Principal, error) {
	ctx, cancel := Detached(ctx)
	defer cancel()

	p, err := a.gate.require(ctx, token, typ, false)
	if err != nil {
		return nil, err
	}
	if err := a.Revoke(ctx, p.JTI, a.remaining(p)); err != nil {
		return nil, err
	}
	return p, nil
}

// Logout revokes the access token and, when one is presented, the refresh token of the same
// user. The revocations are stored before Logout returns.
func (a *Authority) Logout(ctx context.Context, accessToken, refreshToken string) error {
	ctx, cancel := Detached(ctx)
	defer cancel()
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	p, err := a.RevokeToken(ctx, accessToken, tokens.Access)
	if err != nil {
		l.Warn("logout_failed", "reason", "cannot revoke access token", "error", err)
		return err
	}

	if refreshToken != "" {
		claims, err := a.codec.Decode(refreshToken, tokens.Refresh)
		switch {
		case err != nil:
			l.Warn("logout_refresh_skipped", "reason", apperr.KindOf(err).String())
		case claims.UserID != p.UserID.String():
			l.Warn("logout_refresh_skipped", "reason", "refresh token belongs to another user")
		default:
			if err := a.Revoke(ctx, claims.ID, a.codec.Remaining(claims)); err != nil {
				l.Error("logout_failed", "status", 503, "reason", "cannot revoke refresh token", "error", err)
				return err
			}
		}
	}

	a.publish(ctx, &models.User{ID: p.UserID, Username: p.Username}, events.UserLoggedOut)
	l.Info("successful_logout", "user_id", p.UserID)
	return nil
}

func (a *Authority) remaining(p *Principal) time.Duration {
	return a.codec.RemainingUntil(p.ExpiresAt)
}

func (a *Authority) publish(ctx context.Context, user *models.User, typ string) {
	ev := events.UserEvent{
		Type:     typ,
		UserID:   user.ID.String(),
		Username: user.Username,
		Role:     user.Role.Name,
		At:       a.now().UTC(),
	}
	if err := a.events.Publish(ctx, events.TopicUserEvents, ev.UserID, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "error", err)
	}
}
