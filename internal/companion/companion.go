// Package companion suggests moves with a fixed-depth negamax search.
package companion

import (
	"errors"
	"math"

	"othello-live/internal/game"
)

// DefaultDepth is the search depth used when callers do not choose one.
const DefaultDepth = 6

var ErrNoMoves = errors.New("no legal moves for the side to move")

// Suggest returns the companion's move for the side to move in g.
// g is not modified. The result depends only on g, depth and move order.
func Suggest(g *game.Game, depth int) (game.Move, error) {
	if depth < 1 {
		depth = 1
	}
	root := g.Clone()
	color := -1
	if root.Turn() == game.Black {
		color = 1
	}

	var line []game.Move
	negamax(root, &line, depth, color)

	// line holds the history of the last position that raised a value
	// anywhere in the tree; the root's next move sits at its ply.
	ply := root.Ply()
	if len(line) <= ply {
		return game.Move{}, ErrNoMoves
	}
	return line[ply], nil
}

func negamax(g *game.Game, line *[]game.Move, depth, color int) int {
	if depth == 0 || g.Over() {
		return color * heuristic(g)
	}
	piece := player(color)
	value := math.MinInt
	for _, m := range g.Moves(piece) {
		child := g.Clone()
		if _, err := child.Place(m.X, m.Y, piece); err != nil {
			continue
		}
		alt := -negamax(child, line, depth-1, -color)
		if alt > value {
			*line = child.History()
		}
		value = max(value, alt)
	}
	return value
}

func player(color int) game.Piece {
	if color == 1 {
		return game.Black
	}
	return game.White
}
