package room

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fourline/connect-backend/internal/board"
	"github.com/fourline/connect-backend/internal/engine"
	"github.com/fourline/connect-backend/internal/protocol"
)

// helper: receive one message with a timeout so tests never hang
func recvMsg(t *testing.T, ch <-chan protocol.ServerMessage, within time.Duration) protocol.ServerMessage {
	t.Helper()
	select {
	case m, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return m
	case <-time.After(within):
		t.Fatalf("timed out waiting for message")
		return protocol.ServerMessage{} // unreachable
	}
}

func recvNoMsg(t *testing.T, ch <-chan protocol.ServerMessage, within time.Duration) {
	t.Helper()
	select {
	case m, ok := <-ch:
		if !ok {
			// channel closed → no further messages possible
			return
		}
		t.Fatalf("expected no message within %v, but got: %+v", within, m)
	case <-time.After(within):
		// good: nothing arrived
	}
}

func recvView(t *testing.T, r *Room, within time.Duration) View {
	t.Helper()
	reply := make(chan View, 1)
	r.Inbox() <- GetView{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRoom(ctx, zap.NewNop(), engine.NewState())
}

func joinClient(t *testing.T, r *Room, id string) chan protocol.ServerMessage {
	t.Helper()
	out := make(chan protocol.ServerMessage, 16)
	r.Inbox() <- Join{ClientID: id, Outbox: out}
	return out
}

func drain(t *testing.T, ch <-chan protocol.ServerMessage, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		recvMsg(t, ch, 200*time.Millisecond)
	}
}

// seatedPair joins two clients and drains their join traffic: the first
// client sees its seat assignment plus two state updates, the second its
// seat assignment plus one.
func seatedPair(t *testing.T, r *Room) (c1, c2 chan protocol.ServerMessage) {
	t.Helper()
	c1 = joinClient(t, r, "c1")
	drain(t, c1, 2)
	c2 = joinClient(t, r, "c2")
	drain(t, c2, 2)
	drain(t, c1, 1)
	return c1, c2
}

func TestRoom_JoinAssignsSeatThenBroadcasts(t *testing.T) {
	r := newTestRoom(t)

	c1 := joinClient(t, r, "c1")
	first := recvMsg(t, c1, 200*time.Millisecond)
	if first.Type != protocol.KindSeatAssignment {
		t.Fatalf("want seat assignment first, got %q", first.Type)
	}
	if first.Seat != engine.SeatRed {
		t.Fatalf("first joiner: want red, got %v", first.Seat)
	}
	if first.Status != engine.StatusWaiting {
		t.Fatalf("one participant: want waiting, got %v", first.Status)
	}
	if first.Board == nil {
		t.Fatalf("seat assignment must carry the board")
	}

	upd := recvMsg(t, c1, 200*time.Millisecond)
	if upd.Type != protocol.KindStateUpdate {
		t.Fatalf("want state update after join, got %q", upd.Type)
	}

	c2 := joinClient(t, r, "c2")
	second := recvMsg(t, c2, 200*time.Millisecond)
	if second.Type != protocol.KindSeatAssignment || second.Seat != engine.SeatYellow {
		t.Fatalf("second joiner: want yellow seat assignment, got %+v", second)
	}
	if second.Status != engine.StatusOngoing {
		t.Fatalf("two participants: want ongoing, got %v", second.Status)
	}

	u1 := recvMsg(t, c1, 200*time.Millisecond)
	u2 := recvMsg(t, c2, 200*time.Millisecond)
	if u1.Status != engine.StatusOngoing || u2.Status != engine.StatusOngoing {
		t.Fatalf("both clients should see the game start, got %v / %v", u1.Status, u2.Status)
	}
}

func TestRoom_ThirdJoinGetsFullNotice(t *testing.T) {
	r := newTestRoom(t)
	c1, c2 := seatedPair(t, r)

	c3 := joinClient(t, r, "c3")
	m := recvMsg(t, c3, 200*time.Millisecond)
	if m.Type != protocol.KindFull {
		t.Fatalf("want full notice, got %q", m.Type)
	}

	recvNoMsg(t, c1, 150*time.Millisecond)
	recvNoMsg(t, c2, 150*time.Millisecond)

	v := recvView(t, r, 200*time.Millisecond)
	if v.NumClients != 2 || len(v.State.Seats) != 2 {
		t.Fatalf("rejected joiner must not be registered: %d clients, %d seats",
			v.NumClients, len(v.State.Seats))
	}
}

func TestRoom_MoveBroadcastsToBoth(t *testing.T) {
	r := newTestRoom(t)
	c1, c2 := seatedPair(t, r)

	r.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdMove, Column: 3}}

	for _, ch := range []chan protocol.ServerMessage{c1, c2} {
		m := recvMsg(t, ch, 200*time.Millisecond)
		if m.Type != protocol.KindStateUpdate {
			t.Fatalf("want state update, got %q", m.Type)
		}
		if m.Turn != engine.SeatYellow {
			t.Fatalf("after red's move: want yellow's turn, got %v", m.Turn)
		}
		if m.Board == nil || (*m.Board)[5][3] == nil || *(*m.Board)[5][3] != "red" {
			t.Fatalf("piece should land at the bottom of column 3")
		}
	}
}

func TestRoom_ErrorGoesToSenderOnly(t *testing.T) {
	r := newTestRoom(t)
	c1, c2 := seatedPair(t, r)

	// Yellow moving out of turn is rejected back to yellow alone.
	r.Inbox() <- FromClient{ClientID: "c2", Cmd: engine.Command{Type: engine.CmdMove, Column: 0}}

	m := recvMsg(t, c2, 200*time.Millisecond)
	if m.Type != protocol.KindError || m.Error == "" {
		t.Fatalf("want error notification, got %+v", m)
	}
	recvNoMsg(t, c1, 150*time.Millisecond)

	v := recvView(t, r, 200*time.Millisecond)
	if v.State.Board != board.New() {
		t.Fatalf("rejected command mutated the board")
	}
}

func TestRoom_DisconnectMidGameAbandons(t *testing.T) {
	r := newTestRoom(t)
	c1, _ := seatedPair(t, r)

	r.Inbox() <- Leave{ClientID: "c2"}

	m := recvMsg(t, c1, 200*time.Millisecond)
	if m.Type != protocol.KindTerminalNotice {
		t.Fatalf("want terminal notice, got %q", m.Type)
	}
	if m.Status != engine.StatusAbandoned {
		t.Fatalf("want abandoned, got %v", m.Status)
	}
	if m.Winner == nil || *m.Winner != engine.SeatRed {
		t.Fatalf("want red as the surviving winner, got %+v", m.Winner)
	}

	r.Inbox() <- Leave{ClientID: "c1"}

	v := recvView(t, r, 200*time.Millisecond)
	if v.NumClients != 0 || len(v.State.Seats) != 0 {
		t.Fatalf("want empty session, got %+v", v)
	}
	if v.State.Status != engine.StatusWaiting || v.State.Board != board.New() {
		t.Fatalf("zero participants must reset to a fresh waiting session, got %+v", v.State)
	}
}

func TestRoom_ChatRelayReachesBoth(t *testing.T) {
	r := newTestRoom(t)
	c1, c2 := seatedPair(t, r)

	r.Inbox() <- Chat{ClientID: "c1", Text: "gl hf"}

	for _, ch := range []chan protocol.ServerMessage{c1, c2} {
		m := recvMsg(t, ch, 200*time.Millisecond)
		if m.Type != protocol.KindChatRelay {
			t.Fatalf("want chat relay, got %q", m.Type)
		}
		if m.Sender != engine.SeatRed || m.Text != "gl hf" {
			t.Fatalf("unexpected relay payload: %+v", m)
		}
	}
}

func TestRoom_WinThenReset(t *testing.T) {
	r := newTestRoom(t)
	c1, c2 := seatedPair(t, r)

	moves := []FromClient{
		{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdMove, Column: 3}},
		{ClientID: "c2", Cmd: engine.Command{Type: engine.CmdMove, Column: 0}},
		{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdMove, Column: 3}},
		{ClientID: "c2", Cmd: engine.Command{Type: engine.CmdMove, Column: 1}},
		{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdMove, Column: 3}},
		{ClientID: "c2", Cmd: engine.Command{Type: engine.CmdMove, Column: 2}},
		{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdMove, Column: 3}},
	}

	var last protocol.ServerMessage
	for _, mv := range moves {
		r.Inbox() <- mv
		last = recvMsg(t, c1, 200*time.Millisecond)
		_ = recvMsg(t, c2, 200*time.Millisecond)
	}

	if last.Type != protocol.KindTerminalNotice || last.Status != engine.StatusWin {
		t.Fatalf("want win terminal notice, got %+v", last)
	}
	if last.Winner == nil || *last.Winner != engine.SeatRed {
		t.Fatalf("want red winner, got %+v", last.Winner)
	}

	// Either participant may ask for the rematch.
	r.Inbox() <- FromClient{ClientID: "c2", Cmd: engine.Command{Type: engine.CmdReset}}

	for _, ch := range []chan protocol.ServerMessage{c1, c2} {
		m := recvMsg(t, ch, 200*time.Millisecond)
		if m.Type != protocol.KindStateUpdate || m.Status != engine.StatusOngoing {
			t.Fatalf("after reset: want ongoing state update, got %+v", m)
		}
		if m.Turn != engine.SeatRed {
			t.Fatalf("after reset: red opens, got %v", m.Turn)
		}
		if m.Board == nil || (*m.Board)[5][3] != nil {
			t.Fatalf("after reset: board must be empty")
		}
		if m.Winner != nil {
			t.Fatalf("after reset: winner must be cleared")
		}
	}
}

func TestRoom_SlowClientIsDroppedWithoutAbortingBroadcast(t *testing.T) {
	r := newTestRoom(t)

	// c1 gets an unbuffered outbox it never reads; c2 behaves.
	slow := make(chan protocol.ServerMessage)
	r.Inbox() <- Join{ClientID: "c1", Outbox: slow}
	c2 := joinClient(t, r, "c2")
	drain(t, c2, 2)

	v := recvView(t, r, 200*time.Millisecond)
	if v.NumClients != 1 {
		t.Fatalf("slow client should be dropped; NumClients=%d", v.NumClients)
	}
	// The healthy client keeps receiving; its seat survives until the
	// transport reports the disconnect.
	r.Inbox() <- Chat{ClientID: "c2", Text: "anyone there?"}
	m := recvMsg(t, c2, 200*time.Millisecond)
	if m.Type != protocol.KindChatRelay {
		t.Fatalf("want chat relay, got %q", m.Type)
	}
}
