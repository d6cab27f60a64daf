// Package room holds the live rooms of the process: the authoritative game of
// each active match and the broadcast channel its participants listen on.
package room

import (
	"errors"
	"sync"

	"othello-live/internal/game"
	"othello-live/internal/shared"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("room not found")
	ErrExists   = errors.New("room already exists")
)

// CommitFunc observes every accepted mutation. It runs while the state lock
// is held and must not block.
type CommitFunc func(id uuid.UUID, snapshot *game.Game)

// Registry maps game ids to their state and broadcast channel. The two maps
// are locked independently; when both are needed the state lock is taken first.
type Registry struct {
	stateMu sync.Mutex
	games   map[uuid.UUID]*game.Game

	chanMu   sync.Mutex
	channels map[uuid.UUID]*Broadcaster

	buffer   int
	onCommit CommitFunc
}

// NewRegistry creates an empty registry whose room channels queue up to
// buffer events per subscriber. onCommit may be nil.
func NewRegistry(buffer int, onCommit CommitFunc) *Registry {
	return &Registry{
		games:    map[uuid.UUID]*game.Game{},
		channels: map[uuid.UUID]*Broadcaster{},
		buffer:   buffer,
		onCommit: onCommit,
	}
}

// Create inserts a room. A nil g starts from the opening position.
func (r *Registry) Create(id uuid.UUID, g *game.Game) error {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	if _, ok := r.games[id]; ok {
		return ErrExists
	}
	r.games[id] = seed(g)

	r.chanMu.Lock()
	defer r.chanMu.Unlock()
	if _, ok := r.channels[id]; !ok {
		r.channels[id] = NewBroadcaster(r.buffer)
	}
	return nil
}

// Restore installs g as the room's state, creating the room if needed. An
// existing channel and its subscribers are kept.
func (r *Registry) Restore(id uuid.UUID, g *game.Game) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.games[id] = seed(g)

	r.chanMu.Lock()
	defer r.chanMu.Unlock()
	if _, ok := r.channels[id]; !ok {
		r.channels[id] = NewBroadcaster(r.buffer)
	}
}

// Get returns a snapshot of the room's game.
func (r *Registry) Get(id uuid.UUID) (*game.Game, error) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Clone(), nil
}

// Update runs fn on the room's game under the state lock. If fn succeeds the
// new snapshot is broadcast as a GameUpdate, followed by GameEnd when the
// game is over, and passed to the commit hook before the lock is released.
func (r *Registry) Update(id uuid.UUID, fn func(g *game.Game) error) (*game.Game, error) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(g); err != nil {
		return nil, err
	}

	snap := g.Clone()
	r.Publish(id, shared.Update(snap))
	if snap.Over() {
		r.Publish(id, shared.End(snap))
	}
	if r.onCommit != nil {
		r.onCommit(id, snap.Clone())
	}
	return snap, nil
}

// Place applies a placement through Update.
func (r *Registry) Place(id uuid.UUID, x, y int, piece game.Piece) (*game.Game, error) {
	return r.Update(id, func(g *game.Game) error {
		_, err := g.Place(x, y, piece)
		return err
	})
}

// Subscribe attaches a new receiver to the room's channel.
func (r *Registry) Subscribe(id uuid.UUID) (*Subscription, error) {
	r.chanMu.Lock()
	b, ok := r.channels[id]
	r.chanMu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	s, ok := b.Subscribe()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Publish sends ev to the room's subscribers and reports how many got it.
func (r *Registry) Publish(id uuid.UUID, ev shared.Event) int {
	r.chanMu.Lock()
	b, ok := r.channels[id]
	r.chanMu.Unlock()
	if !ok {
		return 0
	}
	return b.Publish(ev)
}

// Remove drops the room and closes its channel, which ends every forwarder.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	_, existed := r.games[id]
	delete(r.games, id)

	r.chanMu.Lock()
	b, ok := r.channels[id]
	delete(r.channels, id)
	r.chanMu.Unlock()
	if ok {
		b.Close()
	}
	return existed || ok
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return len(r.games)
}

// IDs lists the live room ids in no particular order.
func (r *Registry) IDs() []uuid.UUID {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.games))
	for id := range r.games {
		ids = append(ids, id)
	}
	return ids
}

func seed(g *game.Game) *game.Game {
	if g == nil {
		return game.NewGame()
	}
	return g.Clone()
}
