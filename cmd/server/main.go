package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/fourline/connect-backend/internal/config"
	"github.com/fourline/connect-backend/internal/engine"
	"github.com/fourline/connect-backend/internal/httpapi"
	"github.com/fourline/connect-backend/internal/room"
)

func main() {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// One global session for the lifetime of the process.
	ctx := context.Background()
	rm := room.NewRoom(ctx, log, engine.NewState())

	handler := httpapi.SetupRoutes(rm, log, cfg.WSOrigins)

	log.Info("listening", zap.String("addr", cfg.ListenAddr))
	if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
