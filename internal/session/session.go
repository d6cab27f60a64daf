// Package session resolves session tokens to user ids.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"othello-live/internal/store"
)

var ErrInvalidToken = errors.New("invalid user token")

type Resolver interface {
	Resolve(ctx context.Context, token string) (userID string, err error)
}

// Lookup resolves tokens against the sessions table of a store.
type Lookup struct {
	Store interface {
		LookupSession(ctx context.Context, token string) (string, error)
	}
}

func (l Lookup) Resolve(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	userID, err := l.Store.LookupSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return userID, nil
}

// Chain tries each resolver in order and returns the first user found.
// Errors other than ErrInvalidToken stop the chain.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context, token string) (string, error) {
	for _, r := range c {
		userID, err := r.Resolve(ctx, token)
		if err == nil {
			return userID, nil
		}
		if !errors.Is(err, ErrInvalidToken) {
			return "", err
		}
	}
	return "", ErrInvalidToken
}
