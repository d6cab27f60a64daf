package room

import (
	"context"
	"encoding/json"
	"fmt"

	"othello-live/internal/cache"
	"othello-live/internal/game"
	"othello-live/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActiveGames lists the games that should have a live room.
type ActiveGames interface {
	ListActiveGames(ctx context.Context) ([]store.GameRecord, error)
}

// Recover rebuilds a room for every active game, preferring the cached
// snapshot over a fresh board. Running it again yields the same rooms.
func Recover(ctx context.Context, games ActiveGames, c cache.Cache, reg *Registry, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	records, err := games.ListActiveGames(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active games: %w", err)
	}
	for _, rec := range records {
		g, cached := LoadSnapshot(ctx, c, rec.ID, log)
		reg.Restore(rec.ID, g)
		log.Debug("restored room",
			zap.String("game_id", rec.ID.String()),
			zap.Bool("cached", cached),
			zap.Int("ply", g.Ply()))
	}
	return len(records), nil
}

// LoadSnapshot returns the cached game for id, or the opening position when
// there is no usable snapshot. cached reports which one was returned.
func LoadSnapshot(ctx context.Context, c cache.Cache, id uuid.UUID, log *zap.Logger) (g *game.Game, cached bool) {
	if c == nil {
		return game.NewGame(), false
	}
	field := zap.String("game_id", id.String())
	data, ok, err := c.Get(ctx, id)
	if err != nil {
		log.Warn("read snapshot", field, zap.Error(err))
		return game.NewGame(), false
	}
	if !ok {
		return game.NewGame(), false
	}
	var snap game.Game
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Warn("decode snapshot", field, zap.Error(err))
		return game.NewGame(), false
	}
	return &snap, true
}
