package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/adbridge-io/adbridge/internal/services/ads"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
)

// Errors returned by Guard checks.
var (
	ErrUnauthenticated = errors.New("caller is not authenticated")
	ErrAccessDenied    = errors.New("access denied")
)

// Guard resolves the caller's identity and enforces per-account access
// levels against stored grants.
type Guard struct {
	Store storage.Store
	// StaticUser identifies the caller when no identity is present in
	// the context, as with a local stdio session.
	StaticUser string
	// Operator is the bootstrap identity that bypasses per-account
	// checks. It seeds the first grants on a fresh store.
	Operator string
}

// IsOperator reports whether the user is the configured operator.
func (g *Guard) IsOperator(userID string) bool {
	return g.Operator != "" && userID == g.Operator
}

// User returns the caller's id from the context, falling back to the
// static user.
func (g *Guard) User(ctx context.Context) (string, error) {
	if userID, ok := UserFromContext(ctx); ok {
		return userID, nil
	}
	if g.StaticUser != "" {
		return g.StaticUser, nil
	}
	return "", ErrUnauthenticated
}

// Require checks that the caller holds at least the given level on the
// account. The customer id must already be cleaned.
func (g *Guard) Require(ctx context.Context, customerID string, level storage.AccessLevel) (string, error) {
	userID, err := g.User(ctx)
	if err != nil {
		return "", err
	}
	if g.IsOperator(userID) {
		return userID, nil
	}
	ok, err := g.Store.CheckAccountAccess(ctx, userID, customerID, level)
	if err != nil {
		return "", fmt.Errorf("check account access: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("%w: user %s lacks %s on account %s", ErrAccessDenied, userID, level, customerID)
	}
	return userID, nil
}

// RequireOnRaw cleans the customer id before checking access.
func (g *Guard) RequireOnRaw(ctx context.Context, customerID string, level storage.AccessLevel) (string, string, error) {
	cleaned, err := ads.CleanCustomerID(customerID)
	if err != nil {
		return "", "", err
	}
	userID, err := g.Require(ctx, cleaned, level)
	if err != nil {
		return "", "", err
	}
	return userID, cleaned, nil
}
