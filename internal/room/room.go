// Package room runs the single authoritative game session. All session
// mutation happens inside one goroutine; transports talk to it exclusively
// through its inbox.
package room

import (
	"context"

	"go.uber.org/zap"

	"github.com/fourline/connect-backend/internal/engine"
	"github.com/fourline/connect-backend/internal/protocol"
)

type Msg interface{ isRoomMsg() }

type Join struct {
	ClientID string
	Outbox   chan protocol.ServerMessage // where this client receives messages
}

type Leave struct{ ClientID string }

type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

type Chat struct {
	ClientID string
	Text     string
}

// GetView reflects internal state without data races; used by tests and the
// read-only HTTP view.
type GetView struct {
	Reply chan View
}

type Shutdown struct{}

func (Join) isRoomMsg()       {}
func (Leave) isRoomMsg()      {}
func (FromClient) isRoomMsg() {}
func (Chat) isRoomMsg()       {}
func (GetView) isRoomMsg()    {}
func (Shutdown) isRoomMsg()   {}

type View struct {
	NumClients int
	State      engine.State
}

type Room struct {
	inbox   chan Msg
	state   engine.State
	clients map[string]chan protocol.ServerMessage
	seats   map[string]engine.Seat
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewRoom(parent context.Context, log *zap.Logger, initial engine.State) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		inbox:   make(chan Msg, 64),
		state:   initial,
		clients: make(map[string]chan protocol.ServerMessage),
		seats:   make(map[string]engine.Seat),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)
			case Leave:
				r.handleLeave(msg)
			case FromClient:
				r.handleCommand(msg)
			case Chat:
				r.handleChat(msg)
			case GetView:
				msg.Reply <- View{NumClients: len(r.clients), State: r.state}
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	next, seat, err := engine.Join(r.state)
	if err != nil {
		// Capacity rejection, not an error: tell only the joiner and leave
		// the session untouched. The socket stays open; closing is the
		// client's call.
		r.trySend(msg.ClientID, msg.Outbox, protocol.Full())
		r.log.Info("join rejected, session full", zap.String("client", msg.ClientID))
		return
	}

	r.state = next
	r.clients[msg.ClientID] = msg.Outbox
	r.seats[msg.ClientID] = seat

	r.trySend(msg.ClientID, msg.Outbox, protocol.SeatAssignment(seat, r.state))
	r.broadcast(protocol.Snapshot(r.state))
	r.log.Info("participant joined",
		zap.String("client", msg.ClientID),
		zap.String("seat", string(seat)),
		zap.String("status", string(r.state.Status)))
}

func (r *Room) handleLeave(msg Leave) {
	if ch, ok := r.clients[msg.ClientID]; ok {
		close(ch)
		delete(r.clients, msg.ClientID)
	}

	seat, ok := r.seats[msg.ClientID]
	if !ok {
		return // rejected joiner or already dropped
	}
	delete(r.seats, msg.ClientID)

	wasOngoing := r.state.Status == engine.StatusOngoing
	r.state = engine.Leave(r.state, seat)
	r.log.Info("participant left",
		zap.String("client", msg.ClientID),
		zap.String("seat", string(seat)),
		zap.String("status", string(r.state.Status)))

	if wasOngoing && r.state.Status == engine.StatusAbandoned {
		r.broadcast(protocol.Snapshot(r.state))
	}
}

func (r *Room) handleCommand(msg FromClient) {
	out, ok := r.clients[msg.ClientID]
	if !ok {
		return
	}
	seat, ok := r.seats[msg.ClientID]
	if !ok {
		r.trySend(msg.ClientID, out, protocol.Error("no seat assigned"))
		return
	}

	cmd := msg.Cmd
	cmd.Seat = seat // identity comes from the channel mapping, never the wire

	next, err := engine.Apply(r.state, cmd)
	if err != nil {
		r.trySend(msg.ClientID, out, protocol.Error(err.Error()))
		return
	}

	r.state = next
	r.broadcast(protocol.Snapshot(r.state))
}

func (r *Room) handleChat(msg Chat) {
	out, ok := r.clients[msg.ClientID]
	if !ok {
		return
	}
	seat, ok := r.seats[msg.ClientID]
	if !ok {
		r.trySend(msg.ClientID, out, protocol.Error("no seat assigned"))
		return
	}
	r.broadcast(protocol.ChatRelay(seat, msg.Text))
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	clear(r.seats)
	r.cancel()
}

// broadcast fans the message out to every registered client. A failed
// recipient is dropped and logged; it never short-circuits the loop. The
// vacated seat is released when the transport surfaces the disconnect.
func (r *Room) broadcast(m protocol.ServerMessage) {
	for id, ch := range r.clients {
		select {
		case ch <- m:
		default:
			r.log.Warn("send failed, dropping client", zap.String("client", id))
			close(ch)
			delete(r.clients, id)
		}
	}
}

// trySend delivers to a single outbox without blocking the loop. Used for
// messages addressed to one client only.
func (r *Room) trySend(id string, ch chan protocol.ServerMessage, m protocol.ServerMessage) {
	select {
	case ch <- m:
	default:
		r.log.Warn("send failed", zap.String("client", id), zap.String("kind", m.Type))
	}
}
