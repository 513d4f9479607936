// Package protocol defines the kind-tagged JSON messages exchanged with
// clients and the decoding of inbound frames into session commands.
package protocol

import (
	"encoding/json"
	"errors"

	"github.com/fourline/connect-backend/internal/board"
	"github.com/fourline/connect-backend/internal/engine"
)

var ErrMalformed = errors.New("malformed message")
var ErrUnknownKind = errors.New("unknown message type")

// Client -> Server kinds.
const (
	KindMove         = "Move"
	KindResetRequest = "ResetRequest"
	KindChatSubmit   = "ChatSubmit"
)

// Server -> Client kinds.
const (
	KindSeatAssignment = "SeatAssignment"
	KindStateUpdate    = "StateUpdate"
	KindTerminalNotice = "TerminalNotice"
	KindFull           = "Full"
	KindError          = "Error"
	KindChatRelay      = "ChatRelay"
)

type ClientMessage struct {
	Type   string `json:"type"`
	Column *int   `json:"column,omitempty"`
	Text   string `json:"text,omitempty"`
}

type ServerMessage struct {
	Type   string        `json:"type"`
	Seat   engine.Seat   `json:"seat,omitempty"`
	Board  *board.Grid   `json:"board,omitempty"`
	Turn   engine.Seat   `json:"turn,omitempty"`
	Status engine.Status `json:"status,omitempty"`
	Winner *engine.Seat  `json:"winner,omitempty"`
	Sender engine.Seat   `json:"sender,omitempty"`
	Text   string        `json:"text,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Inbound is a decoded client frame. Exactly one of Cmd and Chat is set.
// The acting seat is filled in by the room from its channel mapping; the
// wire payload never carries identity.
type Inbound struct {
	Cmd  *engine.Command
	Chat string
}

// Decode parses a raw client frame. Anything that is not well-formed JSON,
// is missing a required field, or carries an unrecognized kind yields an
// error for the sender and nothing else.
func Decode(data []byte) (Inbound, error) {
	var cm ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return Inbound{}, ErrMalformed
	}

	switch cm.Type {
	case KindMove:
		if cm.Column == nil {
			return Inbound{}, ErrMalformed
		}
		return Inbound{Cmd: &engine.Command{Type: engine.CmdMove, Column: *cm.Column}}, nil
	case KindResetRequest:
		return Inbound{Cmd: &engine.Command{Type: engine.CmdReset}}, nil
	case KindChatSubmit:
		if cm.Text == "" {
			return Inbound{}, ErrMalformed
		}
		return Inbound{Chat: cm.Text}, nil
	default:
		return Inbound{}, ErrUnknownKind
	}
}

// SeatAssignment is sent once to a joining client and carries the full
// current state so the client can render immediately.
func SeatAssignment(seat engine.Seat, s engine.State) ServerMessage {
	grid := s.Board.Grid()
	return ServerMessage{
		Type:   KindSeatAssignment,
		Seat:   seat,
		Board:  &grid,
		Turn:   s.Turn,
		Status: s.Status,
		Winner: winnerOf(s),
	}
}

// Snapshot encodes the session for broadcast: a StateUpdate while the game
// is waiting or ongoing, a TerminalNotice once it has ended.
func Snapshot(s engine.State) ServerMessage {
	kind := KindStateUpdate
	if s.Status.Terminal() {
		kind = KindTerminalNotice
	}
	grid := s.Board.Grid()
	return ServerMessage{
		Type:   kind,
		Board:  &grid,
		Turn:   s.Turn,
		Status: s.Status,
		Winner: winnerOf(s),
	}
}

func Full() ServerMessage { return ServerMessage{Type: KindFull} }

func Error(msg string) ServerMessage {
	return ServerMessage{Type: KindError, Error: msg}
}

func ChatRelay(sender engine.Seat, text string) ServerMessage {
	return ServerMessage{Type: KindChatRelay, Sender: sender, Text: text}
}

// winnerOf keeps winner off the wire unless the status gives it meaning.
func winnerOf(s engine.State) *engine.Seat {
	if s.Winner == "" {
		return nil
	}
	if s.Status != engine.StatusWin && s.Status != engine.StatusAbandoned {
		return nil
	}
	w := s.Winner
	return &w
}
