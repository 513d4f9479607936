package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fourline/connect-backend/internal/board"
	"github.com/fourline/connect-backend/internal/engine"
	"github.com/fourline/connect-backend/internal/room"
)

type stateResponse struct {
	Status       engine.Status `json:"status"`
	Turn         engine.Seat   `json:"turn"`
	Winner       *engine.Seat  `json:"winner,omitempty"`
	Participants int           `json:"participants"`
	Clients      int           `json:"clients"`
	Board        board.Grid    `json:"board"`
}

// SessionState is a read-only view for ops/debugging. It goes through the
// room's inbox like everything else rather than peeking at state directly.
func SessionState(rm *room.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan room.View, 1)
		rm.Inbox() <- room.GetView{Reply: reply}

		var v room.View
		select {
		case v = <-reply:
		case <-time.After(2 * time.Second):
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
			return
		}

		resp := stateResponse{
			Status:       v.State.Status,
			Turn:         v.State.Turn,
			Participants: len(v.State.Seats),
			Clients:      v.NumClients,
			Board:        v.State.Board.Grid(),
		}
		if v.State.Winner != "" {
			winner := v.State.Winner
			resp.Winner = &winner
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
