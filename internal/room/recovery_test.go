package room

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"othello-live/internal/cache"
	"othello-live/internal/game"
	"othello-live/internal/shared"
	"othello-live/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

type failingCache struct{ cache.Memory }

func (*failingCache) Get(context.Context, uuid.UUID) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

type failingLister struct{}

func (failingLister) ListActiveGames(context.Context) ([]store.GameRecord, error) {
	return nil, errors.New("database is locked")
}

func TestRecoverIsIdempotent(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	mem := store.NewMemoryStore()
	c := cache.NewMemory()

	cachedID := uuid.Must(uuid.NewV7())
	freshID := uuid.Must(uuid.NewV7())
	corruptID := uuid.Must(uuid.NewV7())
	pendingID := uuid.Must(uuid.NewV7())
	_ = mem.PutGame(ctx, store.GameRecord{ID: cachedID, Host: "a", Guest: "b"})
	_ = mem.PutGame(ctx, store.GameRecord{ID: freshID, Host: "a", Guest: "c"})
	_ = mem.PutGame(ctx, store.GameRecord{ID: corruptID, Host: "b", Guest: "c"})
	_ = mem.PutGame(ctx, store.GameRecord{ID: pendingID, Host: "c", Guest: "d", Pending: true})

	played := game.NewGame()
	if _, err := played.Place(2, 3, game.Black); err != nil {
		t.Fatalf("place: %v", err)
	}
	data, _ := json.Marshal(played)
	_ = c.Set(ctx, cachedID, data)
	_ = c.Set(ctx, corruptID, []byte(`{"board":[]}`))

	reg := NewRegistry(16, nil)
	var sub *Subscription
	for run := 0; run < 2; run++ {
		n, err := Recover(ctx, mem, c, reg, log)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if n != 3 || reg.Len() != 3 {
			t.Fatalf("run %d: restored %d, registry has %d, want 3", run, n, reg.Len())
		}
		got, err := reg.Get(cachedID)
		if err != nil {
			t.Fatalf("run %d: get cached: %v", run, err)
		}
		if got.Board() != played.Board() || got.Turn() != game.White {
			t.Fatalf("run %d: cached snapshot did not win", run)
		}
		for _, id := range []uuid.UUID{freshID, corruptID} {
			g, _ := reg.Get(id)
			if g.Board() != game.NewBoard() || g.Ply() != 0 {
				t.Fatalf("run %d: %s should be a fresh game", run, id)
			}
		}
		if _, err := reg.Get(pendingID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("run %d: pending game got a room", run)
		}
		if run == 0 {
			sub, _ = reg.Subscribe(cachedID)
		}
	}

	// The second run kept the existing channel.
	reg.Publish(cachedID, shared.Ack())
	select {
	case <-sub.C():
	case <-time.After(time.Second):
		t.Fatalf("subscriber lost its channel across recovery")
	}
}

func TestRecoverDegradesOnCacheErrors(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	id := uuid.Must(uuid.NewV7())
	_ = mem.PutGame(ctx, store.GameRecord{ID: id, Host: "a", Guest: "b"})

	reg := NewRegistry(16, nil)
	if _, err := Recover(ctx, mem, &failingCache{}, reg, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("recover: %v", err)
	}
	if g, err := reg.Get(id); err != nil || g.Ply() != 0 {
		t.Fatalf("expected fresh game, got %v", err)
	}

	if _, err := Recover(ctx, failingLister{}, cache.NewMemory(), reg, nil); err == nil {
		t.Fatalf("expected store error to propagate")
	}
}

func TestSnapshotWriterKeepsNewest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := cache.NewMemory()
	w := NewSnapshotWriter(c, zaptest.NewLogger(t))
	id := uuid.Must(uuid.NewV7())

	g := game.NewGame()
	_, _ = g.Place(2, 3, game.Black)
	newer := g.Clone()
	_, _ = newer.Place(2, 2, game.White)

	w.Enqueue(id, newer)
	w.Enqueue(id, g)

	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	data, ok, _ := c.Get(context.Background(), id)
	if !ok {
		t.Fatalf("snapshot not written")
	}
	var got game.Game
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Ply() != 2 {
		t.Fatalf("cached ply = %d, want 2", got.Ply())
	}

	ctx2, cancel2 := context.WithCancel(context.Background())
	w.Forget(id)
	w.Enqueue(id, newer)
	cancel2()
	_ = w.Run(ctx2)
	if _, ok, _ := c.Get(context.Background(), id); ok {
		t.Fatalf("snapshot survived forget")
	}
}

func TestSnapshotWriterCoalescesBursts(t *testing.T) {
	c := cache.NewMemory()
	w := NewSnapshotWriter(c, zaptest.NewLogger(t))
	id := uuid.Must(uuid.NewV7())

	// Far more commits than any queue would hold, all before the writer runs.
	g := game.NewGame()
	for !g.Over() {
		m := g.Moves(g.Turn())[0]
		if _, err := g.Place(m.X, m.Y, g.Turn()); err != nil {
			t.Fatalf("place: %v", err)
		}
		w.Enqueue(id, g.Clone())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = w.Run(ctx)

	data, ok, _ := c.Get(context.Background(), id)
	if !ok {
		t.Fatalf("snapshot not written")
	}
	var got game.Game
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Ply() != g.Ply() {
		t.Fatalf("cached ply = %d, want the last commit %d", got.Ply(), g.Ply())
	}
}
