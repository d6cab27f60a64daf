package companion

import (
	"encoding/json"
	"errors"
	"testing"

	"othello-live/internal/game"
)

func TestSuggestOpening(t *testing.T) {
	g := game.NewGame()
	m, err := Suggest(g, DefaultDepth)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if m != (game.Move{X: 5, Y: 4}) {
		t.Fatalf("suggest = %+v, want (5, 4)", m)
	}
	if g.Ply() != 0 || g.Board() != game.NewBoard() {
		t.Fatalf("suggest mutated its input")
	}
}

func TestSuggestIsDeterministic(t *testing.T) {
	g := game.NewGame()
	for _, m := range []game.Move{{X: 2, Y: 3}, {X: 2, Y: 2}, {X: 3, Y: 2}} {
		if _, err := g.Place(m.X, m.Y, g.Turn()); err != nil {
			t.Fatalf("place %+v: %v", m, err)
		}
	}
	for depth := 1; depth <= 4; depth++ {
		first, err := Suggest(g, depth)
		if err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
		for i := 0; i < 3; i++ {
			again, err := Suggest(g, depth)
			if err != nil || again != first {
				t.Fatalf("depth %d: got %+v (%v), want %+v", depth, again, err, first)
			}
		}
		if _, err := g.Clone().Probe(first.X, first.Y, g.Turn()); err != nil {
			t.Fatalf("depth %d: suggestion %+v is illegal: %v", depth, first, err)
		}
	}
}

func TestSuggestWithoutMoves(t *testing.T) {
	var b game.Board
	b[game.Index(0, 0)] = game.CellBlack
	data, err := json.Marshal(map[string]any{"board": b, "turn": game.White})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := Suggest(&g, DefaultDepth); !errors.Is(err, ErrNoMoves) {
		t.Fatalf("err = %v, want ErrNoMoves", err)
	}
}

func TestSelfPlayDraws(t *testing.T) {
	if testing.Short() {
		t.Skip("full-depth self play is slow")
	}
	g := game.NewGame()
	for !g.Over() {
		m, err := Suggest(g, DefaultDepth)
		if err != nil {
			t.Fatalf("ply %d: %v", g.Ply(), err)
		}
		if _, err := g.Place(m.X, m.Y, g.Turn()); err != nil {
			t.Fatalf("ply %d: suggested %+v rejected: %v", g.Ply(), m, err)
		}
	}
	black, white := g.Score()
	if black != 32 || white != 32 {
		t.Fatalf("score = %d-%d, want 32-32", black, white)
	}
}
