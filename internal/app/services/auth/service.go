package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("auth: invalid token")
	ErrSecretMissing = errors.New("auth: signing secret missing")
)

// Claims carries the subject and host flag issued by the identity service.
type Claims struct {
	IsHost bool `json:"is_host"`
	jwtlib.RegisteredClaims
}

// Service verifies HS256 bearer tokens. Tokens are issued elsewhere; Issue exists for fixtures and tests.
type Service struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

type Option func(*Service)

func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = strings.TrimSpace(issuer) }
}

func WithLeeway(d time.Duration) Option {
	return func(s *Service) { s.leeway = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(secret string, opts ...Option) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretMissing
	}
	s := &Service{secret: []byte(secret), leeway: 30 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Verify parses token and returns the principal it names.
func (s *Service) Verify(token string) (Principal, error) {
	parserOpts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithLeeway(s.leeway),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwtlib.WithIssuer(s.issuer))
	}
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	}, parserOpts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: claims.Subject, IsHost: claims.IsHost}, nil
}

// Issue signs a token for p valid for ttl.
func (s *Service) Issue(p Principal, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		IsHost: p.IsHost,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    s.issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
}
