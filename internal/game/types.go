package game

import (
	"encoding/json"
	"fmt"
)

// Size is the width and height of the board.
const Size = 8

type Piece uint8

const (
	Black Piece = iota
	White
)

func (p Piece) Opposite() Piece {
	if p == Black {
		return White
	}
	return Black
}

func (p Piece) Valid() bool { return p == Black || p == White }

func (p Piece) String() string {
	switch p {
	case Black:
		return "Black"
	case White:
		return "White"
	}
	return fmt.Sprintf("Piece(%d)", uint8(p))
}

// ParsePiece accepts the wire names "Black" and "White".
func ParsePiece(s string) (Piece, error) {
	switch s {
	case "Black":
		return Black, nil
	case "White":
		return White, nil
	}
	return 0, fmt.Errorf("unknown piece %q", s)
}

func (p Piece) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("marshal piece: invalid value %d", uint8(p))
	}
	return json.Marshal(p.String())
}

func (p *Piece) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("piece must be a string: %w", err)
	}
	v, err := ParsePiece(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Cell is the content of one board square.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellBlack
	CellWhite
)

func CellOf(p Piece) Cell {
	if p == Black {
		return CellBlack
	}
	return CellWhite
}

// Piece reports the piece on the cell, if any.
func (c Cell) Piece() (Piece, bool) {
	switch c {
	case CellBlack:
		return Black, true
	case CellWhite:
		return White, true
	}
	return 0, false
}

func (c Cell) MarshalJSON() ([]byte, error) {
	p, ok := c.Piece()
	if !ok {
		return []byte("null"), nil
	}
	return p.MarshalJSON()
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = CellEmpty
		return nil
	}
	var p Piece
	if err := p.UnmarshalJSON(data); err != nil {
		return err
	}
	*c = CellOf(p)
	return nil
}

// Board is the 8x8 grid, indexed x + y*Size. Being an array it copies by value.
type Board [Size * Size]Cell

func NewBoard() Board {
	var b Board
	b[Index(3, 3)] = CellWhite
	b[Index(4, 4)] = CellWhite
	b[Index(4, 3)] = CellBlack
	b[Index(3, 4)] = CellBlack
	return b
}

func Index(x, y int) int { return x + y*Size }

func InBounds(x, y int) bool { return x >= 0 && x < Size && y >= 0 && y < Size }

func (b *Board) At(x, y int) Cell { return b[Index(x, y)] }

func (b *Board) Count(p Piece) int {
	want := CellOf(p)
	n := 0
	for _, c := range b {
		if c == want {
			n++
		}
	}
	return n
}

// Occupied returns the number of non-empty cells.
func (b *Board) Occupied() int {
	n := 0
	for _, c := range b {
		if c != CellEmpty {
			n++
		}
	}
	return n
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var cells []Cell
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}
	if len(cells) != Size*Size {
		return fmt.Errorf("board must have %d cells, got %d", Size*Size, len(cells))
	}
	copy(b[:], cells)
	return nil
}

type Move struct {
	X int `json:"x"`
	Y int `json:"y"`
}
