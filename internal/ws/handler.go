package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/fourline/connect-backend/internal/protocol"
	"github.com/fourline/connect-backend/internal/room"
)

const writeTimeout = 3 * time.Second

// Handler upgrades the connection and bridges it to the room: a writer
// goroutine drains the client's outbox while the handler goroutine reads,
// decodes, and forwards inbound frames. The room learns about the
// disconnect exactly once, via the deferred Leave.
func Handler(rm *room.Room, log *zap.Logger, origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: origins,
		})
		if err != nil {
			log.Warn("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan protocol.ServerMessage, 8)
		clientID := randID(6)

		rm.Inbox() <- room.Join{ClientID: clientID, Outbox: out}
		defer func() { rm.Inbox() <- room.Leave{ClientID: clientID} }()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case m, ok := <-out:
					if !ok {
						return
					}
					payload, err := json.Marshal(m)
					if err != nil {
						log.Error("marshal outbound message", zap.Error(err))
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
						log.Debug("write failed", zap.String("client", clientID), zap.Error(err))
					}
					cancel()
				}
			}
		}()

		// Reader loop. No read deadline: a player may take arbitrarily long
		// over a move.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Anything else still just ends the session for this client;
				// the deferred Leave tells the room.
				return
			}

			in, err := protocol.Decode(data)
			if err != nil {
				reply(r.Context(), conn, protocol.Error(err.Error()))
				continue
			}

			if in.Cmd != nil {
				rm.Inbox() <- room.FromClient{ClientID: clientID, Cmd: *in.Cmd}
				continue
			}
			rm.Inbox() <- room.Chat{ClientID: clientID, Text: in.Chat}
		}
	}
}

// reply answers the sender directly, bypassing the room; used for frames
// that never became a command.
func reply(ctx context.Context, conn *websocket.Conn, m protocol.ServerMessage) {
	payload, err := json.Marshal(m)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
