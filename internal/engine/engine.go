package engine

import (
	"errors"
	"slices"

	"github.com/fourline/connect-backend/internal/board"
)

var ErrNotOngoing = errors.New("game is not in progress")
var ErrWrongTurn = errors.New("not your turn")
var ErrBadColumn = errors.New("column is full or out of range")
var ErrNotTerminal = errors.New("game has not ended")
var ErrSessionFull = errors.New("session is full")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Seat string

const (
	SeatRed    Seat = "red"
	SeatYellow Seat = "yellow"
)

func (s Seat) Other() Seat {
	if s == SeatRed {
		return SeatYellow
	}
	return SeatRed
}

func (s Seat) Cell() board.Cell { return board.Cell(s) }

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusOngoing   Status = "ongoing"
	StatusWin       Status = "win"
	StatusDraw      Status = "draw"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether no further moves are accepted until a reset.
func (st Status) Terminal() bool {
	return st == StatusWin || st == StatusDraw || st == StatusAbandoned
}

// State is the authoritative session record. It is a value type: Apply and
// the join/leave transitions return a new State and never mutate their input.
type State struct {
	Board  board.Board
	Turn   Seat
	Status Status
	Seats  []Seat // occupied seats in join order
	Winner Seat   // set for win, and for abandonment with a sole survivor
}

func NewState() State {
	return State{Board: board.New(), Turn: SeatRed, Status: StatusWaiting}
}

type CommandType string

const (
	CmdMove  CommandType = "Move"
	CmdReset CommandType = "ResetRequest"
)

type Command struct {
	Type   CommandType
	Seat   Seat
	Column int
}

// Apply validates cmd against s and returns the resulting state. On error
// the returned state is s unchanged, so a rejected command can simply be
// reported back to its sender.
func Apply(s State, cmd Command) (State, error) {
	switch cmd.Type {
	case CmdMove:
		if s.Status != StatusOngoing {
			return s, ErrNotOngoing
		}
		if cmd.Seat != s.Turn {
			return s, ErrWrongTurn
		}
		if !s.Board.ColumnPlayable(cmd.Column) {
			return s, ErrBadColumn
		}

		next := s
		if _, ok := next.Board.Drop(cmd.Column, cmd.Seat.Cell()); !ok {
			// Unreachable after the playability check above.
			return s, ErrBadColumn
		}

		switch res := next.Board.Evaluate(); res.Outcome {
		case board.Win:
			next.Status = StatusWin
			next.Winner = Seat(res.Winner)
		case board.Draw:
			next.Status = StatusDraw
		default:
			next.Turn = next.Turn.Other()
		}
		return next, nil

	case CmdReset:
		if !s.Status.Terminal() {
			return s, ErrNotTerminal
		}

		next := s
		next.Board = board.New()
		next.Winner = ""
		next.Turn = SeatRed
		if len(next.Seats) == 2 {
			next.Status = StatusOngoing
		} else {
			next.Status = StatusWaiting
		}
		return next, nil

	default:
		return s, ErrUnsupportedCommand
	}
}

// Join assigns the first free seat. Joining is only allowed while the
// session is waiting; a full or ended session rejects the joiner.
func Join(s State) (State, Seat, error) {
	if len(s.Seats) >= 2 || s.Status != StatusWaiting {
		return s, "", ErrSessionFull
	}

	seat := SeatRed
	if slices.Contains(s.Seats, SeatRed) {
		seat = SeatYellow
	}

	next := s
	next.Seats = append(slices.Clone(s.Seats), seat)
	if len(next.Seats) == 2 {
		next.Status = StatusOngoing
	}
	return next, seat, nil
}

// Leave removes seat from the session. Abandoning an ongoing game awards
// the win to the sole remaining participant; once the last participant is
// gone the session is rebuilt from scratch.
func Leave(s State, seat Seat) State {
	next := s
	next.Seats = slices.DeleteFunc(slices.Clone(s.Seats), func(x Seat) bool {
		return x == seat
	})

	if len(next.Seats) == 0 && next.Status != StatusWaiting {
		return NewState()
	}

	if s.Status == StatusOngoing {
		next.Status = StatusAbandoned
		if len(next.Seats) == 1 {
			next.Winner = next.Seats[0]
		}
	}
	return next
}
