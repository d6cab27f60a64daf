package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"othello-live/internal/game"

	"github.com/google/uuid"
)

// Opcode is the inbound "op" value.
type Opcode uint8

const (
	OpCreate Opcode = iota + 1
	OpPlace
	OpJoin
	OpLeave
	OpReset
	OpIdentify
	OpPreview
)

func (o Opcode) String() string {
	switch o {
	case OpCreate:
		return "Create"
	case OpPlace:
		return "Place"
	case OpJoin:
		return "Join"
	case OpLeave:
		return "Leave"
	case OpReset:
		return "Reset"
	case OpIdentify:
		return "Identify"
	case OpPreview:
		return "Preview"
	}
	return fmt.Sprintf("Opcode(%d)", uint8(o))
}

// Operation is one of Identify, Place, Preview, Join or Leave.
type Operation interface {
	Opcode() Opcode
}

type Identify struct{}

type Place struct {
	ID    uuid.UUID
	X, Y  int
	Piece game.Piece
}

type Preview struct {
	ID    uuid.UUID
	X, Y  int
	Piece game.Piece
}

type Join struct {
	ID uuid.UUID
}

type Leave struct {
	ID uuid.UUID
}

func (Identify) Opcode() Opcode { return OpIdentify }
func (Place) Opcode() Opcode { return OpPlace }
func (Preview) Opcode() Opcode { return OpPreview }
func (Join) Opcode() Opcode { return OpJoin }
func (Leave) Opcode() Opcode { return OpLeave }

// Packet is a decoded inbound frame. Token is empty when "t" was absent.
type Packet struct {
	Op    Operation
	Token string
}

type rawPacket struct {
	Op *Opcode         `json:"op"`
	D  json.RawMessage `json:"d"`
	T  *string         `json:"t"`
}

type rawPayload struct {
	Type  string      `json:"type"`
	ID    *string     `json:"id"`
	X     *int        `json:"x"`
	Y     *int        `json:"y"`
	Piece *game.Piece `json:"piece"`
}

// Decode parses one frame. Failures are *Error values of kind KindProtocol.
func Decode(frame []byte) (Packet, error) {
	if !utf8.Valid(frame) {
		return Packet{}, Malformed("frame is not valid utf-8", nil)
	}
	var raw rawPacket
	if err := json.Unmarshal(frame, &raw); err != nil {
		return Packet{}, Malformed("malformed packet", err)
	}
	if raw.Op == nil {
		return Packet{}, Malformed("missing field `op`", nil)
	}
	op := *raw.Op
	pkt := Packet{}
	if raw.T != nil {
		pkt.Token = *raw.T
	}

	var p rawPayload
	if len(raw.D) > 0 && !bytes.Equal(raw.D, []byte("null")) {
		if err := json.Unmarshal(raw.D, &p); err != nil {
			return Packet{}, Malformed(fmt.Sprintf("malformed %s payload", op), err)
		}
		if p.Type != "" && p.Type != op.String() {
			return Packet{}, Malformed(fmt.Sprintf("payload type %q does not match opcode %s", p.Type, op), nil)
		}
	}

	switch op {
	case OpIdentify:
		pkt.Op = Identify{}
	case OpJoin, OpLeave:
		id, err := p.gameID()
		if err != nil {
			return Packet{}, err
		}
		if op == OpJoin {
			pkt.Op = Join{ID: id}
		} else {
			pkt.Op = Leave{ID: id}
		}
	case OpPlace, OpPreview:
		id, err := p.gameID()
		if err != nil {
			return Packet{}, err
		}
		switch {
		case p.X == nil:
			return Packet{}, Malformed("missing field `x`", nil)
		case p.Y == nil:
			return Packet{}, Malformed("missing field `y`", nil)
		case p.Piece == nil:
			return Packet{}, Malformed("missing field `piece`", nil)
		}
		if op == OpPlace {
			pkt.Op = Place{ID: id, X: *p.X, Y: *p.Y, Piece: *p.Piece}
		} else {
			pkt.Op = Preview{ID: id, X: *p.X, Y: *p.Y, Piece: *p.Piece}
		}
	default:
		return Packet{}, Malformed(fmt.Sprintf("unsupported opcode %s", op), nil)
	}
	return pkt, nil
}

func (p rawPayload) gameID() (uuid.UUID, error) {
	if p.ID == nil {
		return uuid.Nil, Malformed("missing field `id`", nil)
	}
	id, err := uuid.Parse(*p.ID)
	if err != nil {
		return uuid.Nil, ErrInvalidGameID.With(err)
	}
	return id, nil
}
