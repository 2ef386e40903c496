// Package auth issues and checks the credentials of the recipe API.
//
// AUTHENTICATION FLOW:
//  1. A client registers with POST /users (email + password).
//  2. POST /login checks the password against the stored bcrypt hash and
//     returns a signed access token.
//  3. Every protected request carries "Authorization: Bearer <token>".
//  4. The middleware resolves the token to an identity (the email in "sub"),
//     loads the user and puts it in the request context.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"sub":"ana@example.com","name":"Ana","exp":1234567890,...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// Verifying a token needs only the secret. Whether the account still exists
// is a separate question answered by the user store.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/recipe-share/internal/apperror"
)

const (
	issuer = "recipe-share"

	// DefaultTokenLifetime applies when no lifetime is configured.
	DefaultTokenLifetime = 30 * time.Minute
)

// Identity is what a token asserts about its bearer.
type Identity struct {
	Email string
	Name  string
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret used both to sign and to verify tokens, and the
// lifetime stamped into every token it issues.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// The secret must be at least 16 characters. A non-positive lifetime falls
// back to DefaultTokenLifetime.
//
// Example: JWT_SECRET_KEY=$(openssl rand -hex 32)
func NewTokenService(secret string, lifetime time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &TokenService{secret: []byte(secret), lifetime: lifetime}, nil
}

// claims is the JWT payload. "sub" carries the email; "name" is informational.
type claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Lifetime reports how long issued tokens stay valid.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Issue signs a new access token for id using the configured lifetime.
func (s *TokenService) Issue(id Identity) (string, error) {
	return s.IssueWithDuration(id, s.lifetime)
}

// IssueWithDuration signs a token that expires after d. Tests use a negative
// d to produce already-expired tokens.
func (s *TokenService) IssueWithDuration(id Identity, d time.Duration) (string, error) {
	if id.Email == "" {
		return "", errors.New("auth: identity has no email")
	}

	now := time.Now()
	c := claims{
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Resolve verifies tokenStr and returns the identity it carries.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature matches the secret
//   - Token has an expiry and it is in the future
//   - Issuer is "recipe-share"
//   - Algorithm is HS256 (a token claiming "none" is rejected)
//
// Every failure wraps apperror.ErrUnauthenticated so the HTTP layer answers 401.
func (s *TokenService) Resolve(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, apperror.Unauthenticated("token expired")
		}
		return Identity{}, fmt.Errorf("auth: %w: %v", apperror.Unauthenticated("could not validate credentials"), err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return Identity{}, apperror.Unauthenticated("could not validate credentials")
	}

	return Identity{Email: c.Subject, Name: c.Name}, nil
}
