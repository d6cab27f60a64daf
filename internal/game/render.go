package game

import "strings"

// Render draws the board as text, x across and y down. Empty squares that
// are legal for the side to move are marked with '*'.
func (g *Game) Render() string {
	legal := make(map[Move]bool)
	for _, m := range g.Moves(g.turn) {
		legal[m] = true
	}
	var sb strings.Builder
	sb.WriteString("  0 1 2 3 4 5 6 7\n")
	for y := 0; y < Size; y++ {
		sb.WriteByte(byte('0' + y))
		for x := 0; x < Size; x++ {
			sb.WriteByte(' ')
			switch g.board.At(x, y) {
			case CellBlack:
				sb.WriteByte('X')
			case CellWhite:
				sb.WriteByte('O')
			default:
				if legal[Move{X: x, Y: y}] {
					sb.WriteByte('*')
				} else {
					sb.WriteByte('.')
				}
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
