package room

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"othello-live/internal/cache"
	"othello-live/internal/game"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const snapshotTimeout = 2 * time.Second

type snapshotJob struct {
	id     uuid.UUID
	ply    int
	data   []byte
	forget bool
}

// SnapshotWriter refreshes the cache from a single goroutine so writes for a
// game land in order. Pending snapshots are coalesced per game, newest ply
// wins, and snapshots that are not newer than the last one written are
// skipped.
type SnapshotWriter struct {
	cache cache.Cache
	log   *zap.Logger
	wake  chan struct{}

	mu      sync.Mutex
	pending map[uuid.UUID]snapshotJob

	// last is only touched by Run.
	last map[uuid.UUID]int
}

func NewSnapshotWriter(c cache.Cache, log *zap.Logger) *SnapshotWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotWriter{
		cache:   c,
		log:     log,
		wake:    make(chan struct{}, 1),
		pending: map[uuid.UUID]snapshotJob{},
		last:    map[uuid.UUID]int{},
	}
}

// Enqueue schedules a cache write for g. It never blocks; a snapshot still
// pending for the same game is replaced when g is newer.
// Its signature matches CommitFunc.
func (w *SnapshotWriter) Enqueue(id uuid.UUID, g *game.Game) {
	data, err := json.Marshal(g)
	if err != nil {
		w.log.Error("encode snapshot", zap.String("game_id", id.String()), zap.Error(err))
		return
	}
	w.put(snapshotJob{id: id, ply: g.Ply(), data: data})
}

// Forget schedules deletion of the game's snapshot. Snapshots pending for it,
// or enqueued later, are discarded.
func (w *SnapshotWriter) Forget(id uuid.UUID) {
	w.put(snapshotJob{id: id, forget: true})
}

func (w *SnapshotWriter) put(job snapshotJob) {
	w.mu.Lock()
	cur, ok := w.pending[job.id]
	switch {
	case !ok, job.forget:
		w.pending[job.id] = job
	case cur.forget, job.ply <= cur.ply:
	default:
		w.pending[job.id] = job
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run writes pending snapshots until ctx is cancelled, then flushes what is left.
func (w *SnapshotWriter) Run(ctx context.Context) error {
	for {
		select {
		case <-w.wake:
			w.flush()
		case <-ctx.Done():
			w.flush()
			return nil
		}
	}
}

func (w *SnapshotWriter) flush() {
	w.mu.Lock()
	jobs := w.pending
	w.pending = make(map[uuid.UUID]snapshotJob, len(jobs))
	w.mu.Unlock()
	for _, job := range jobs {
		w.handle(job)
	}
}

func (w *SnapshotWriter) handle(job snapshotJob) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	field := zap.String("game_id", job.id.String())

	if job.forget {
		w.last[job.id] = math.MaxInt
		if err := w.cache.Delete(ctx, job.id); err != nil {
			w.log.Warn("delete snapshot", field, zap.Error(err))
		}
		return
	}
	if last, ok := w.last[job.id]; ok && job.ply <= last {
		return
	}
	if err := w.cache.Set(ctx, job.id, job.data); err != nil {
		w.log.Warn("write snapshot", field, zap.Int("ply", job.ply), zap.Error(err))
		return
	}
	w.last[job.id] = job.ply
}
