package companion

import "othello-live/internal/game"

// heuristic scores a position by black's piece count; negamax applies the sign.
func heuristic(g *game.Game) int {
	black, _ := g.Score()
	return black
}
