package auth

import (
	"errors"
	"fmt"
	"time"

	"course-marketplace/internal/serverrors"

	"github.com/golang-jwt/jwt/v5"
)

type Kind string

const (
	KindLearner Kind = "learner"
	KindAdmin   Kind = "admin"
)

const issuer = "course-marketplace"

// Principal is the verified caller of a single request.
type Principal struct {
	ID    string
	Email string
	Name  string
	Kind  Kind
}

type claims struct {
	Kind  Kind   `json:"kind"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies tokens for exactly one principal kind.
// Learner and admin managers must be built with different secrets.
type TokenManager struct {
	kind   Kind
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(kind Kind, secret string, ttl time.Duration) (*TokenManager, error) {
	if kind != KindLearner && kind != KindAdmin {
		return nil, fmt.Errorf("unknown principal kind %q", kind)
	}
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenManager{
		kind:   kind,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (m *TokenManager) Kind() Kind { return m.kind }

func (m *TokenManager) TTL() time.Duration { return m.ttl }

func (m *TokenManager) Issue(p Principal) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Kind:  m.kind,
		Email: p.Email,
		Name:  p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, expiry and principal kind. It does no I/O.
func (m *TokenManager) Verify(tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: missing token", serverrors.ErrUnauthorized)
	}

	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", serverrors.ErrUnauthorized, err)
	}

	if c.Kind != m.kind {
		return nil, fmt.Errorf("%w: token issued for %q", serverrors.ErrUnauthorized, c.Kind)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", serverrors.ErrUnauthorized)
	}

	return &Principal{
		ID:    c.Subject,
		Email: c.Email,
		Name:  c.Name,
		Kind:  c.Kind,
	}, nil
}
