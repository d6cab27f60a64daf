// Package protocol turns decoded packets into registry operations and
// outbound events.
package protocol

import (
	"context"
	"errors"
	"sync"

	"othello-live/internal/cache"
	"othello-live/internal/game"
	"othello-live/internal/room"
	"othello-live/internal/session"
	"othello-live/internal/shared"
	"othello-live/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Peer is the processor's view of one authenticated connection.
type Peer struct {
	UserID string

	send func(shared.Event) bool
	done <-chan struct{}

	mu   sync.Mutex
	subs map[uuid.UUID]*room.Subscription
}

// NewPeer wraps a connection. send must block until the event is queued for
// writing and return false once the connection is gone; done is closed when
// the connection ends.
func NewPeer(userID string, send func(shared.Event) bool, done <-chan struct{}) *Peer {
	return &Peer{UserID: userID, send: send, done: done, subs: map[uuid.UUID]*room.Subscription{}}
}

func (p *Peer) Send(ev shared.Event) bool { return p.send(ev) }

// Joined reports whether the peer currently forwards the room's broadcasts.
func (p *Peer) Joined(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.subs[id]
	return ok
}

// track records sub unless the peer already listens to the room.
func (p *Peer) track(id uuid.UUID, sub *room.Subscription) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.subs[id]; ok {
		return false
	}
	p.subs[id] = sub
	return true
}

func (p *Peer) untrack(id uuid.UUID, sub *room.Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs[id] == sub {
		delete(p.subs, id)
	}
}

// forward relays room broadcasts until the room closes or the peer goes away.
func (p *Peer) forward(id uuid.UUID, sub *room.Subscription) {
	defer func() {
		sub.Close()
		p.untrack(id, sub)
	}()
	for {
		select {
		case ev, ok := <-sub.C():
			if !ok || !p.send(ev) {
				return
			}
		case <-p.done:
			return
		}
	}
}

// Deps are the collaborators of a Processor. Log may be nil.
type Deps struct {
	Sessions  session.Resolver
	Games     store.Store
	Cache     cache.Cache
	Rooms     *room.Registry
	Snapshots *room.SnapshotWriter
	Log       *zap.Logger
}

type Processor struct {
	sessions  session.Resolver
	games     store.Store
	cache     cache.Cache
	rooms     *room.Registry
	snapshots *room.SnapshotWriter
	log       *zap.Logger
}

func NewProcessor(d Deps) *Processor {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Processor{
		sessions:  d.Sessions,
		games:     d.Games,
		cache:     d.Cache,
		rooms:     d.Rooms,
		snapshots: d.Snapshots,
		log:       d.Log,
	}
}

// Rooms exposes the registry for health reporting.
func (p *Processor) Rooms() *room.Registry { return p.rooms }

// Authenticate checks the first frame of a connection, which must be an
// Identify carrying a valid token, and returns the user id.
func (p *Processor) Authenticate(ctx context.Context, frame []byte) (string, error) {
	pkt, err := Decode(frame)
	if err != nil {
		return "", err
	}
	if _, ok := pkt.Op.(Identify); !ok {
		return "", ErrUnauthorized
	}
	return p.Resolve(ctx, pkt.Token)
}

// Resolve maps a session token to its user.
func (p *Processor) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	userID, err := p.sessions.Resolve(ctx, token)
	if errors.Is(err, session.ErrInvalidToken) {
		return "", ErrInvalidToken.With(err)
	}
	if err != nil {
		return "", WrapInternal(err)
	}
	return userID, nil
}

// Process handles one frame from an authenticated peer and returns the
// reply for that peer. It never fails; errors become Error events.
func (p *Processor) Process(ctx context.Context, peer *Peer, frame []byte) shared.Event {
	ev, err := p.handle(ctx, peer, frame)
	if err != nil {
		return p.Fail(err, zap.String("user_id", peer.UserID))
	}
	return ev
}

// Fail converts err to an Error event, logging internal failures.
func (p *Processor) Fail(err error, fields ...zap.Field) shared.Event {
	e := AsError(err)
	if e.Kind == KindInternal {
		p.log.Error("request failed", append(fields, zap.Error(e.Cause))...)
	} else {
		p.log.Debug("request rejected", append(fields, zap.String("reason", e.Message), zap.Int("code", e.Code))...)
	}
	return e.Event()
}

func (p *Processor) handle(ctx context.Context, peer *Peer, frame []byte) (shared.Event, error) {
	pkt, err := Decode(frame)
	if err != nil {
		return shared.Event{}, err
	}
	userID, err := p.Resolve(ctx, pkt.Token)
	if err != nil {
		return shared.Event{}, err
	}

	switch op := pkt.Op.(type) {
	case Identify:
		return shared.Ready(), nil
	case Place:
		return p.place(ctx, userID, op)
	case Preview:
		return p.preview(ctx, userID, op)
	case Join:
		return p.join(ctx, peer, userID, op)
	case Leave:
		return p.leave(ctx, userID, op)
	}
	return shared.Event{}, Malformed("unsupported operation", nil)
}

// participant hides games the user does not play in behind NotFound.
func (p *Processor) participant(ctx context.Context, userID string, id uuid.UUID) (store.GameRecord, error) {
	rec, err := p.games.FindGame(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.GameRecord{}, ErrGameNotFound
	}
	if err != nil {
		return store.GameRecord{}, WrapInternal(err)
	}
	if !rec.HasParticipant(userID) {
		return store.GameRecord{}, ErrGameNotFound
	}
	return rec, nil
}

func (p *Processor) place(ctx context.Context, userID string, op Place) (shared.Event, error) {
	if _, err := p.participant(ctx, userID, op.ID); err != nil {
		return shared.Event{}, err
	}
	snap, err := p.rooms.Place(op.ID, op.X, op.Y, op.Piece)
	if err != nil {
		return shared.Event{}, roomError(err)
	}
	p.log.Debug("placed",
		zap.String("game_id", op.ID.String()),
		zap.String("user_id", userID),
		zap.Int("x", op.X), zap.Int("y", op.Y),
		zap.Stringer("piece", op.Piece))
	if snap.Over() {
		p.finish(ctx, op.ID, snap)
	}
	return shared.Ack(), nil
}

// finish retires a room whose game is over. GameEnd was already broadcast.
func (p *Processor) finish(ctx context.Context, id uuid.UUID, snap *game.Game) {
	black, white := snap.Score()
	p.log.Info("game ended",
		zap.String("game_id", id.String()),
		zap.Int("black", black), zap.Int("white", white))
	if err := p.games.EndGame(ctx, id); err != nil {
		p.log.Error("mark game ended", zap.String("game_id", id.String()), zap.Error(err))
	}
	p.rooms.Remove(id)
	p.snapshots.Forget(id)
}

func (p *Processor) preview(ctx context.Context, userID string, op Preview) (shared.Event, error) {
	if _, err := p.participant(ctx, userID, op.ID); err != nil {
		return shared.Event{}, err
	}
	snap, err := p.rooms.Get(op.ID)
	if err != nil {
		return shared.Event{}, roomError(err)
	}
	flips, err := snap.Probe(op.X, op.Y, op.Piece)
	if err != nil {
		return shared.Event{}, Invalid(err)
	}
	return shared.Preview(flips), nil
}

func (p *Processor) join(ctx context.Context, peer *Peer, userID string, op Join) (shared.Event, error) {
	if _, err := p.participant(ctx, userID, op.ID); err != nil {
		return shared.Event{}, err
	}
	if !peer.Joined(op.ID) {
		sub, err := p.rooms.Subscribe(op.ID)
		if err != nil {
			return shared.Event{}, roomError(err)
		}
		if peer.track(op.ID, sub) {
			go peer.forward(op.ID, sub)
		} else {
			sub.Close()
		}
	}
	snap, err := p.rooms.Get(op.ID)
	if err != nil {
		return shared.Event{}, roomError(err)
	}
	return shared.Update(snap), nil
}

func (p *Processor) leave(ctx context.Context, userID string, op Leave) (shared.Event, error) {
	if _, err := p.participant(ctx, userID, op.ID); err != nil {
		return shared.Event{}, err
	}
	if err := p.games.DeleteGame(ctx, op.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return shared.Event{}, ErrGameNotFound
		}
		return shared.Event{}, WrapInternal(err)
	}
	p.rooms.Publish(op.ID, shared.Abort(op.ID))
	p.rooms.Remove(op.ID)
	p.snapshots.Forget(op.ID)
	p.log.Info("game aborted", zap.String("game_id", op.ID.String()), zap.String("user_id", userID))
	return shared.Ack(), nil
}

// Activate creates the room of a game that has just been accepted, seeded
// from the cached snapshot when there is one.
func (p *Processor) Activate(ctx context.Context, userID string, id uuid.UUID) error {
	rec, err := p.participant(ctx, userID, id)
	if err != nil {
		return err
	}
	if rec.Pending || rec.Ended {
		return ErrGameNotFound
	}
	g, cached := room.LoadSnapshot(ctx, p.cache, id, p.log)
	if err := p.rooms.Create(id, g); err != nil {
		if errors.Is(err, room.ErrExists) {
			return ErrRoomExists
		}
		return WrapInternal(err)
	}
	p.log.Info("room activated",
		zap.String("game_id", id.String()),
		zap.String("user_id", userID),
		zap.Bool("cached", cached))
	return nil
}

func roomError(err error) error {
	var pe *game.PlaceError
	switch {
	case errors.As(err, &pe):
		return Invalid(pe)
	case errors.Is(err, room.ErrNotFound):
		return ErrGameNotFound
	}
	return WrapInternal(err)
}
