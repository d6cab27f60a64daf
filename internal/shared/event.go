package shared

import (
	"othello-live/internal/game"

	"github.com/google/uuid"
)

// EventKind is the outbound "op" value.
type EventKind uint8

const (
	EventAck EventKind = iota + 1
	EventReady
	EventGameAbort
	EventGameUpdate
	EventGameUpdatePreview
	EventError
	EventGameEnd
)

func (k EventKind) String() string {
	switch k {
	case EventAck:
		return "Ack"
	case EventReady:
		return "Ready"
	case EventGameAbort:
		return "GameAbort"
	case EventGameUpdate:
		return "GameUpdate"
	case EventGameUpdatePreview:
		return "GameUpdatePreview"
	case EventError:
		return "Error"
	case EventGameEnd:
		return "GameEnd"
	}
	return "Unknown"
}

// Event is one outbound message: {"op": kind, "d": payload}.
type Event struct {
	Op EventKind `json:"op"`
	D  any       `json:"d,omitempty"`
}

type GameUpdate struct {
	Game *game.Game `json:"game"`
}

type GameUpdatePreview struct {
	Changed [][2]int `json:"changed"`
}

type GameAbort struct {
	ID uuid.UUID `json:"id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// GameEnd carries the winner (nil on a draw), the winner's piece count and
// the total number of pieces on the board.
type GameEnd struct {
	Winner *game.Piece `json:"winner"`
	Points int         `json:"points"`
	Total  int         `json:"total"`
}

func Ack() Event { return Event{Op: EventAck} }

func Ready() Event { return Event{Op: EventReady} }

// Update wraps a snapshot; the caller must not mutate g afterwards.
func Update(g *game.Game) Event {
	return Event{Op: EventGameUpdate, D: GameUpdate{Game: g}}
}

func Preview(flips []game.Move) Event {
	changed := make([][2]int, 0, len(flips))
	for _, f := range flips {
		changed = append(changed, [2]int{f.X, f.Y})
	}
	return Event{Op: EventGameUpdatePreview, D: GameUpdatePreview{Changed: changed}}
}

func Abort(id uuid.UUID) Event {
	return Event{Op: EventGameAbort, D: GameAbort{ID: id}}
}

func Error(message string, code int) Event {
	return Event{Op: EventError, D: ErrorPayload{Message: message, Code: code}}
}

func End(g *game.Game) Event {
	black, white := g.Score()
	end := GameEnd{Points: black, Total: black + white}
	if p, ok := g.Winner(); ok {
		end.Winner = &p
		if p == game.White {
			end.Points = white
		}
	}
	return Event{Op: EventGameEnd, D: end}
}
