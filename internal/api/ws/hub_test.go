package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"othello-live/internal/cache"
	"othello-live/internal/protocol"
	"othello-live/internal/room"
	"othello-live/internal/session"
	"othello-live/internal/shared"
	"othello-live/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type wireEvent struct {
	Op shared.EventKind `json:"op"`
	D  json.RawMessage  `json:"d"`
}

type testServer struct {
	url    string
	gameID uuid.UUID
	hub    *Hub
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	// Connection goroutines can outlive the test, so they must not log through t.
	log := zap.NewNop()

	mem := store.NewMemoryStore()
	_ = mem.PutSession(ctx, "alice-token", "alice")
	_ = mem.PutSession(ctx, "bob-token", "bob")
	id := uuid.Must(uuid.NewV7())
	_ = mem.PutGame(ctx, store.GameRecord{ID: id, Host: "alice", Guest: "bob"})

	c := cache.NewMemory()
	snaps := room.NewSnapshotWriter(c, log)
	reg := room.NewRegistry(16, snaps.Enqueue)
	_ = reg.Create(id, nil)
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = snaps.Run(runCtx) }()
	t.Cleanup(cancel)

	proc := protocol.NewProcessor(protocol.Deps{
		Sessions:  session.Lookup{Store: mem},
		Games:     mem,
		Cache:     c,
		Rooms:     reg,
		Snapshots: snaps,
		Log:       log,
	})
	hub := NewHub(proc, opts, log)
	r := gin.New()
	r.GET("/live", hub.HandleWS)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testServer{url: "ws" + strings.TrimPrefix(server.URL, "http") + "/live", gameID: id, hub: hub}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func read(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var ev wireEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	return ev
}

func readError(t *testing.T, conn *websocket.Conn) shared.ErrorPayload {
	t.Helper()
	ev := read(t, conn)
	if ev.Op != shared.EventError {
		t.Fatalf("event = %s, want Error", ev.Op)
	}
	var e shared.ErrorPayload
	if err := json.Unmarshal(ev.D, &e); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	return e
}

func expectClosed(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected connection to be closed")
	}
}

func identify(t *testing.T, conn *websocket.Conn, token string) {
	t.Helper()
	send(t, conn, map[string]any{"op": 6, "d": map[string]any{"type": "Identify"}, "t": token})
	if ev := read(t, conn); ev.Op != shared.EventReady {
		t.Fatalf("identify reply = %s, want Ready", ev.Op)
	}
}

func TestHandshakeTimeout(t *testing.T) {
	s := newTestServer(t, DefaultOptions())
	conn := s.dial(t)

	start := time.Now()
	e := readError(t, conn)
	if e.Code != 408 || e.Message != "connection timed out" {
		t.Fatalf("error = %+v", e)
	}
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Fatalf("timed out after %v, before the identify deadline", elapsed)
	}
	expectClosed(t, conn)
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	s := newTestServer(t, DefaultOptions())

	conn := s.dial(t)
	send(t, conn, map[string]any{"op": 6, "t": "forged"})
	if e := readError(t, conn); e.Code != 403 || e.Message != "invalid user token" {
		t.Fatalf("error = %+v", e)
	}
	expectClosed(t, conn)

	conn = s.dial(t)
	send(t, conn, map[string]any{"op": 3, "d": map[string]any{"id": s.gameID.String()}, "t": "alice-token"})
	if e := readError(t, conn); e.Code != 401 {
		t.Fatalf("error = %+v", e)
	}
	expectClosed(t, conn)
}

func TestLiveGame(t *testing.T) {
	s := newTestServer(t, DefaultOptions())
	alice, bob := s.dial(t), s.dial(t)
	identify(t, alice, "alice-token")
	identify(t, bob, "bob-token")

	for _, p := range []struct {
		conn  *websocket.Conn
		token string
	}{{alice, "alice-token"}, {bob, "bob-token"}} {
		send(t, p.conn, map[string]any{"op": 3, "d": map[string]any{"type": "Join", "id": s.gameID.String()}, "t": p.token})
		if ev := read(t, p.conn); ev.Op != shared.EventGameUpdate {
			t.Fatalf("join reply = %s", ev.Op)
		}
	}
	if s.hub.Active() != 2 {
		t.Fatalf("active = %d, want 2", s.hub.Active())
	}

	// An error does not close the connection.
	send(t, bob, map[string]any{"op": 2, "d": map[string]any{"id": s.gameID.String(), "x": 0, "y": 0, "piece": "Black"}, "t": "bob-token"})
	if e := readError(t, bob); e.Code != 422 {
		t.Fatalf("error = %+v", e)
	}
	send(t, bob, map[string]any{"op": 2, "d": map[string]any{"id": s.gameID.String(), "x": 2, "y": 3, "piece": "Black"}})
	if e := readError(t, bob); e.Code != 401 {
		t.Fatalf("error = %+v", e)
	}

	send(t, alice, map[string]any{"op": 2, "d": map[string]any{"type": "Place", "id": s.gameID.String(), "x": 2, "y": 3, "piece": "Black"}, "t": "alice-token"})
	seen := map[shared.EventKind]wireEvent{}
	for i := 0; i < 2; i++ {
		ev := read(t, alice)
		seen[ev.Op] = ev
	}
	if _, ok := seen[shared.EventAck]; !ok {
		t.Fatalf("alice got %v, want Ack", seen)
	}
	update, ok := seen[shared.EventGameUpdate]
	if !ok {
		t.Fatalf("alice got %v, want GameUpdate", seen)
	}

	bobUpdate := read(t, bob)
	if bobUpdate.Op != shared.EventGameUpdate || string(bobUpdate.D) != string(update.D) {
		t.Fatalf("bob got %s %s", bobUpdate.Op, bobUpdate.D)
	}
	var payload struct {
		Game struct {
			Board []*string `json:"board"`
			Turn  string    `json:"turn"`
		} `json:"game"`
	}
	if err := json.Unmarshal(update.D, &payload); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if payload.Game.Turn != "White" || len(payload.Game.Board) != 64 {
		t.Fatalf("update = %s", update.D)
	}

	send(t, bob, map[string]any{"op": 7, "d": map[string]any{"type": "Preview", "id": s.gameID.String(), "x": 2, "y": 2, "piece": "White"}, "t": "bob-token"})
	preview := read(t, bob)
	if preview.Op != shared.EventGameUpdatePreview || string(preview.D) != `{"changed":[[3,3]]}` {
		t.Fatalf("preview = %s %s", preview.Op, preview.D)
	}

	send(t, bob, map[string]any{"op": 4, "d": map[string]any{"type": "Leave", "id": s.gameID.String()}, "t": "bob-token"})
	got := map[shared.EventKind]bool{}
	for i := 0; i < 2; i++ {
		got[read(t, bob).Op] = true
	}
	if !got[shared.EventAck] || !got[shared.EventGameAbort] {
		t.Fatalf("bob got %v, want Ack and GameAbort", got)
	}
	if ev := read(t, alice); ev.Op != shared.EventGameAbort {
		t.Fatalf("alice got %s, want GameAbort", ev.Op)
	}
}

func TestRateLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.FrameRate = 0.001
	opts.FrameBurst = 1
	s := newTestServer(t, opts)
	conn := s.dial(t)
	identify(t, conn, "alice-token")

	join := map[string]any{"op": 3, "d": map[string]any{"id": s.gameID.String()}, "t": "alice-token"}
	send(t, conn, join)
	if ev := read(t, conn); ev.Op != shared.EventGameUpdate {
		t.Fatalf("first frame = %s", ev.Op)
	}
	send(t, conn, join)
	if e := readError(t, conn); e.Code != 429 {
		t.Fatalf("error = %+v", e)
	}
}

func TestOversizedFrameKeepsConnection(t *testing.T) {
	s := newTestServer(t, DefaultOptions())
	conn := s.dial(t)
	identify(t, conn, "alice-token")

	send(t, conn, map[string]any{
		"op": 3,
		"d":  map[string]any{"id": s.gameID.String(), "pad": strings.Repeat("x", 2*maxFrameSize)},
		"t":  "alice-token",
	})
	if e := readError(t, conn); e.Code != 413 || e.Message != "frame too large" {
		t.Fatalf("error = %+v", e)
	}

	send(t, conn, map[string]any{"op": 3, "d": map[string]any{"id": s.gameID.String()}, "t": "alice-token"})
	if ev := read(t, conn); ev.Op != shared.EventGameUpdate {
		t.Fatalf("join after oversized frame = %s", ev.Op)
	}
}
