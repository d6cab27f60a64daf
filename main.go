package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"othello-live/internal/companion"
	"othello-live/internal/game"
)

// Play Black against the companion in the terminal.
func main() {
	g := game.NewGame()
	reader := bufio.NewReader(os.Stdin)

	for !g.Over() {
		fmt.Printf("\nTurn %d: %s\n%s", g.Ply()+1, g.Turn(), g.Render())

		if g.Turn() == game.White {
			m, err := companion.Suggest(g, companion.DefaultDepth)
			if err != nil {
				fmt.Println("Companion failed:", err)
				return
			}
			fmt.Printf("Companion plays (%d, %d)\n", m.X, m.Y)
			if _, err := g.Place(m.X, m.Y, game.White); err != nil {
				fmt.Println("Companion move rejected:", err)
				return
			}
			continue
		}

		fmt.Println("Enter your move as: x y (for example: 2 3)")
		for {
			fmt.Print("> ")
			line, err := reader.ReadString('\n')
			if err != nil {
				fmt.Println()
				return
			}
			parts := strings.Fields(line)
			if len(parts) != 2 {
				fmt.Println("Wrong format. Try again.")
				continue
			}
			x, errX := strconv.Atoi(parts[0])
			y, errY := strconv.Atoi(parts[1])
			if errX != nil || errY != nil {
				fmt.Println("Coordinates must be numbers.")
				continue
			}
			flips, err := g.Place(x, y, game.Black)
			if err != nil {
				fmt.Println("Invalid move:", err)
				continue
			}
			fmt.Printf("Flipped %d\n", len(flips))
			break
		}
	}

	fmt.Printf("\nGame over!\n%s", g.Render())
	black, white := g.Score()
	switch winner, ok := g.Winner(); {
	case !ok:
		fmt.Printf("Draw %d-%d\n", black, white)
	case winner == game.Black:
		fmt.Printf("You win %d-%d\n", black, white)
	default:
		fmt.Printf("Companion wins %d-%d\n", white, black)
	}
}
