package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"course-marketplace/internal/auth"
	"course-marketplace/internal/client"
	"course-marketplace/internal/serverrors"

	"golang.org/x/crypto/bcrypt"
)

// Session is what a successful login hands back to the transport layer.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// credentials holds the login machinery shared by learners and administrators.
type credentials struct {
	kind    auth.Kind
	tokens  *auth.TokenManager
	limiter client.LoginLimiter
	log     *slog.Logger
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: hash password: %v", serverrors.ErrInvalidInput, err)
	}
	return string(hash), nil
}

func (c *credentials) limiterKey(email string) string {
	return string(c.kind) + ":" + email
}

// checkLimit counts one attempt. A broken limiter backend does not lock users out.
func (c *credentials) checkLimit(ctx context.Context, email string) error {
	allowed, err := c.limiter.Allow(ctx, c.limiterKey(email))
	if err != nil {
		c.log.Warn("login rate limiter unavailable", slog.Any("error", err))
		return nil
	}
	if !allowed {
		return serverrors.ErrTooManyAttempts
	}
	return nil
}

func (c *credentials) checkPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return serverrors.ErrInvalidCredentials
	}
	return fmt.Errorf("%w: %v", serverrors.ErrInvalidCredentials, err)
}

func (c *credentials) startSession(ctx context.Context, principal auth.Principal) (*Session, error) {
	if err := c.limiter.Reset(ctx, c.limiterKey(principal.Email)); err != nil {
		c.log.Warn("reset login attempts", slog.Any("error", err))
	}

	token, expiresAt, err := c.tokens.Issue(principal)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}
