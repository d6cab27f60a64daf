package game

// Over reports whether the side to move has no legal placement.
// Turns only pass on placement, so this ends the game.
func (g *Game) Over() bool {
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			if g.board.At(x, y) == CellEmpty && g.board.adjacent(x, y) && g.board.flanks(x, y, g.turn) {
				return false
			}
		}
	}
	return true
}

// Score returns the black and white piece counts.
func (g *Game) Score() (black, white int) {
	for _, c := range g.board {
		switch c {
		case CellBlack:
			black++
		case CellWhite:
			white++
		}
	}
	return black, white
}

// Winner returns the side holding more pieces; ok is false on a draw.
func (g *Game) Winner() (p Piece, ok bool) {
	black, white := g.Score()
	switch {
	case black > white:
		return Black, true
	case white > black:
		return White, true
	}
	return 0, false
}
