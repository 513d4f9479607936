package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fourline/connect-backend/internal/room"
	"github.com/fourline/connect-backend/internal/ws"
)

func SetupRoutes(rm *room.Room, log *zap.Logger, origins []string) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/state", SessionState(rm))
	r.Get("/ws", ws.Handler(rm, log, origins))
	return r
}
