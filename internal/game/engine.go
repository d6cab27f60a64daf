package game

import (
	"encoding/json"
	"fmt"
)

// Order matters only for the order of flipped cells returned by Probe.
var directions = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Game is a board plus the side to move. It changes only through Place.
type Game struct {
	board   Board
	turn    Piece
	history []Move
}

// NewGame returns the standard opening position with Black to move.
func NewGame() *Game {
	return &Game{board: NewBoard(), turn: Black}
}

func (g *Game) Board() Board { return g.board }

func (g *Game) Turn() Piece { return g.turn }

// History returns a copy of the accepted moves in order.
func (g *Game) History() []Move {
	out := make([]Move, len(g.history))
	copy(out, g.history)
	return out
}

// Ply is the number of accepted moves.
func (g *Game) Ply() int { return len(g.history) }

// Clone returns a snapshot that shares nothing with g.
func (g *Game) Clone() *Game {
	h := make([]Move, len(g.history), len(g.history)+1)
	copy(h, g.history)
	return &Game{board: g.board, turn: g.turn, history: h}
}

// Probe validates a placement and returns the cells it would capture.
// It never mutates the game.
func (g *Game) Probe(x, y int, piece Piece) ([]Move, error) {
	if !InBounds(x, y) {
		return nil, &PlaceError{Kind: OutOfBounds, X: x, Y: y, Piece: piece}
	}
	if piece != g.turn {
		return nil, &PlaceError{Kind: Turn, X: x, Y: y, Piece: piece}
	}
	if g.board.At(x, y) != CellEmpty {
		return nil, &PlaceError{Kind: Occupied, X: x, Y: y, Piece: piece}
	}
	if !g.board.adjacent(x, y) {
		return nil, &PlaceError{Kind: NotAdjacent, X: x, Y: y, Piece: piece}
	}
	flips := g.board.captures(x, y, piece, nil)
	if len(flips) == 0 {
		return nil, &PlaceError{Kind: NoFlips, X: x, Y: y, Piece: piece}
	}
	return flips, nil
}

// Place commits a placement and returns the flipped cells. On error the game is unchanged.
func (g *Game) Place(x, y int, piece Piece) ([]Move, error) {
	flips, err := g.Probe(x, y, piece)
	if err != nil {
		return nil, err
	}
	cell := CellOf(piece)
	g.board[Index(x, y)] = cell
	for _, f := range flips {
		g.board[Index(f.X, f.Y)] = cell
	}
	g.turn = piece.Opposite()
	g.history = append(g.history, Move{X: x, Y: y})
	return flips, nil
}

// Moves lists every legal placement for piece, x outer and y inner.
func (g *Game) Moves(piece Piece) []Move {
	if piece != g.turn {
		return nil
	}
	var out []Move
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			if g.board.At(x, y) != CellEmpty || !g.board.adjacent(x, y) {
				continue
			}
			if g.board.flanks(x, y, piece) {
				out = append(out, Move{X: x, Y: y})
			}
		}
	}
	return out
}

func (b *Board) adjacent(x, y int) bool {
	for _, d := range directions {
		nx, ny := x+d[0], y+d[1]
		if InBounds(nx, ny) && b.At(nx, ny) != CellEmpty {
			return true
		}
	}
	return false
}

// captures appends to dst every opponent cell bracketed by a placement at (x, y).
func (b *Board) captures(x, y int, piece Piece, dst []Move) []Move {
	own, opp := CellOf(piece), CellOf(piece.Opposite())
	for _, d := range directions {
		nx, ny := x+d[0], y+d[1]
		run := 0
		for InBounds(nx, ny) && b.At(nx, ny) == opp {
			nx, ny = nx+d[0], ny+d[1]
			run++
		}
		if run == 0 || !InBounds(nx, ny) || b.At(nx, ny) != own {
			continue
		}
		for i := 1; i <= run; i++ {
			dst = append(dst, Move{X: x + d[0]*i, Y: y + d[1]*i})
		}
	}
	return dst
}

// flanks reports whether captures would be non-empty, without allocating.
func (b *Board) flanks(x, y int, piece Piece) bool {
	own, opp := CellOf(piece), CellOf(piece.Opposite())
	for _, d := range directions {
		nx, ny := x+d[0], y+d[1]
		run := 0
		for InBounds(nx, ny) && b.At(nx, ny) == opp {
			nx, ny = nx+d[0], ny+d[1]
			run++
		}
		if run > 0 && InBounds(nx, ny) && b.At(nx, ny) == own {
			return true
		}
	}
	return false
}

type gameJSON struct {
	Board   Board  `json:"board"`
	Turn    Piece  `json:"turn"`
	History []Move `json:"history"`
}

func (g *Game) MarshalJSON() ([]byte, error) {
	h := g.history
	if h == nil {
		h = []Move{}
	}
	return json.Marshal(gameJSON{Board: g.board, Turn: g.turn, History: h})
}

func (g *Game) UnmarshalJSON(data []byte) error {
	var raw struct {
		Board   *Board `json:"board"`
		Turn    *Piece `json:"turn"`
		History []Move `json:"history"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Board == nil || raw.Turn == nil {
		return fmt.Errorf("game requires board and turn")
	}
	for _, m := range raw.History {
		if !InBounds(m.X, m.Y) {
			return fmt.Errorf("history move (%d, %d) is out of bounds", m.X, m.Y)
		}
	}
	g.board = *raw.Board
	g.turn = *raw.Turn
	g.history = raw.History
	return nil
}
