package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sketchparty/internal/broadcast"
	"sketchparty/internal/config"
	"sketchparty/internal/http/http_server"
	"sketchparty/internal/services/game"
	"sketchparty/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Broadcast dispatcher: one mailbox + delivery loop per connection
	dispatcher := broadcast.NewDispatcher()

	// 4. Game service: lobby/room registries behind atomic transactions
	gameService := game.NewGameService(dispatcher)

	// 5. WS server
	wsSrv := ws.NewWsServer(dispatcher, gameService,
		cfg.WsReadLimitBytes,
		time.Duration(cfg.WsPingPeriodSeconds)*time.Second,
	)

	// 6. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, gameService)
	go func() {
		<-ctx.Done()
		_ = httpServer.Dispose()
	}()
	if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
