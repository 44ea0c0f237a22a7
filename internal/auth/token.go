// Package auth issues and verifies the bearer tokens that identify tool
// callers.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errors returned by Verify. Callers branch on these to pick a response.
var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")
)

// Config defines how tokens are signed and verified.
type Config struct {
	Issuer   string
	Audience string
	Secret   []byte
	TTL      time.Duration
	Now      func() time.Time
}

// Claims captures a verified token's identity.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// tokenClaims is the internal claims type used for JWT parsing.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Verifier signs and checks HMAC tokens.
type Verifier struct {
	cfg Config
}

// NewVerifier validates the config and returns a Verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("token issuer is required")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, fmt.Errorf("token audience is required")
	}
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("token secret must be at least 32 bytes")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Verifier{cfg: cfg}, nil
}

// Issue signs a token for the user.
func (v *Verifier) Issue(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	now := v.cfg.Now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.cfg.Issuer,
			Audience:  jwt.ClaimStrings{v.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.cfg.TTL)),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, audience, and expiry, and returns the
// caller's identity.
func (v *Verifier) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrTokenInvalid
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return v.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}

	if parsed.Issuer != v.cfg.Issuer {
		return Claims{}, ErrTokenInvalid
	}
	if !audienceContains(parsed.Audience, v.cfg.Audience) {
		return Claims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(parsed.UserID) == "" {
		return Claims{}, ErrTokenInvalid
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, ErrTokenInvalid
	}

	now := v.cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, ErrTokenExpired
	}

	claims := Claims{
		UserID:    parsed.UserID,
		ExpiresAt: exp,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// audienceContains reports whether the audience list contains the value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}
