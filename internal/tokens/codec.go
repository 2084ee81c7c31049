package tokens

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/blog_backend/internal/apperr"
)

type Issued struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

type Codec struct {
	secret []byte
	method jwt.SigningMethod
	leeway time.Duration
	now    func() time.Time
	err    error
}

type Option func(*Codec)

func WithLeeway(d time.Duration) Option {
	return func(c *Codec) { c.leeway = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithAlgorithm selects one of HS256, HS384 or HS512. Anything else makes NewCodec fail.
func WithAlgorithm(alg string) Option {
	return func(c *Codec) {
		if alg == "" {
			return
		}
		m, ok := jwt.GetSigningMethod(strings.ToUpper(alg)).(*jwt.SigningMethodHMAC)
		if !ok {
			c.err = fmt.Errorf("tokens: unsupported signing algorithm %q", alg)
			return
		}
		c.method = m
	}
}

func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("tokens: signing secret is empty")
	}
	c := &Codec{
		secret: secret,
		method: jwt.SigningMethodHS256,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.err != nil {
		return nil, c.err
	}
	return c, nil
}

func (c *Codec) Issue(subject string, custom CustomClaims, typ Type, ttl time.Duration) (Issued, error) {
	if ttl <= 0 {
		return Issued{}, fmt.Errorf("tokens: ttl must be positive, got %s", ttl)
	}
	now := c.now().UTC()
	exp := now.Add(ttl)
	jti := uuid.NewString()

	claims := Claims{
		Type:          typ,
		UserID:        custom.UserID.String(),
		IssuedAtMicro: now.UnixMicro(),
		Extra:         custom.Extra,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return Issued{}, fmt.Errorf("tokens: sign: %w", err)
	}
	return Issued{Token: signed, JTI: jti, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Decode verifies signature, algorithm and expiry and then checks the token is of the expected type.
func (c *Codec) Decode(raw string, expected Type) (*Claims, error) {
	claims, err := c.parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != expected {
		return nil, apperr.New(apperr.KindTokenWrongType, fmt.Sprintf("Only %s tokens are allowed", expected))
	}
	return claims, nil
}

func (c *Codec) parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperr.ErrTokenInvalid
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindTokenExpired, "Token has expired", err)
		}
		return nil, apperr.Wrap(apperr.KindTokenInvalid, "Invalid token", err)
	}

	if claims.ID == "" || claims.Subject == "" {
		return nil, apperr.New(apperr.KindTokenInvalid, "Invalid token")
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, apperr.Wrap(apperr.KindTokenInvalid, "Invalid token", err)
	}
	return &claims, nil
}

// Remaining is how long the token would still be accepted; used as the revocation TTL.
func (c *Codec) Remaining(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	return c.RemainingUntil(claims.ExpiresAt.Time)
}

func (c *Codec) RemainingUntil(exp time.Time) time.Duration {
	d := exp.Add(c.leeway).Sub(c.now())
	if d < 0 {
		return 0
	}
	return d
}
