// Package store is the persistence collaborator: which games exist, who plays
// them, and which session tokens belong to which user.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// GameRecord is the durable metadata of a match.
type GameRecord struct {
	ID      uuid.UUID
	Host    string
	Guest   string
	Pending bool
	Ended   bool
}

// HasParticipant reports whether userID is the host or the guest.
func (r GameRecord) HasParticipant(userID string) bool {
	return userID != "" && (r.Host == userID || r.Guest == userID)
}

// Store is implemented by MemoryStore and sqlite.Store.
type Store interface {
	FindGame(ctx context.Context, id uuid.UUID) (GameRecord, error)
	DeleteGame(ctx context.Context, id uuid.UUID) error
	EndGame(ctx context.Context, id uuid.UUID) error
	// ListActiveGames returns accepted games that have not ended.
	ListActiveGames(ctx context.Context) ([]GameRecord, error)
	// LookupSession maps a session token to its user id.
	LookupSession(ctx context.Context, token string) (string, error)
}
