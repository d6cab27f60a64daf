package game

import "fmt"

type ErrorKind uint8

const (
	OutOfBounds ErrorKind = iota + 1
	Turn
	Occupied
	NotAdjacent
	NoFlips
)

// PlaceError explains why a placement was rejected.
type PlaceError struct {
	Kind  ErrorKind
	X, Y  int
	Piece Piece
}

// Sentinels for errors.Is; only Kind is compared.
var (
	ErrOutOfBounds = &PlaceError{Kind: OutOfBounds}
	ErrTurn        = &PlaceError{Kind: Turn}
	ErrOccupied    = &PlaceError{Kind: Occupied}
	ErrNotAdjacent = &PlaceError{Kind: NotAdjacent}
	ErrNoFlips     = &PlaceError{Kind: NoFlips}
)

func (e *PlaceError) Error() string {
	switch e.Kind {
	case OutOfBounds:
		return fmt.Sprintf("board square (%d, %d) is out of bounds", e.X, e.Y)
	case Turn:
		return fmt.Sprintf("it is not %s's turn", e.Piece)
	case Occupied:
		return fmt.Sprintf("board square (%d, %d) is occupied", e.X, e.Y)
	case NotAdjacent:
		return fmt.Sprintf("board square (%d, %d) is not adjacent to any other piece", e.X, e.Y)
	case NoFlips:
		return fmt.Sprintf("no pieces were flipped from board square (%d, %d)", e.X, e.Y)
	}
	return "invalid placement"
}

func (e *PlaceError) Is(target error) bool {
	t, ok := target.(*PlaceError)
	return ok && t.Kind == e.Kind
}
