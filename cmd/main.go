package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/burner-service/config"
	"github.com/cwrk-planet/burner-service/internal/fanout"
	"github.com/cwrk-planet/burner-service/internal/repo"
	"github.com/cwrk-planet/burner-service/internal/service"
	httpx "github.com/cwrk-planet/burner-service/internal/transport/http"
	"github.com/cwrk-planet/burner-service/internal/transport/ws"
	"github.com/cwrk-planet/logger/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting burner-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- redis ---
	ctx := context.Background()
	rdb, err := repo.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	// --- repos & fanout ---
	roomRepo := repo.NewRoomRepository(rdb)
	msgRepo := repo.NewMessageRepository(rdb)
	bus := fanout.NewBus(rdb)

	// --- services ---
	roomTTL := time.Duration(cfg.Room.TTLSeconds) * time.Second
	roomSvc := service.NewRoomService(roomRepo, roomTTL, cfg.Room.Capacity)
	admSvc := service.NewAdmissionService(roomRepo)
	lifeSvc := service.NewLifecycleService(roomRepo, bus)
	msgSvc := service.NewMessageService(msgRepo, bus, cfg.Room.MaxMessageLen, cfg.Room.MaxSenderLen)

	// --- WS Hub & Server ---
	hub := ws.NewHub(bus, lifeSvc)
	wsServer := ws.NewServer(hub)

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc, lifeSvc, msgSvc, cfg.CORS.SecureCookies)
	router := httpx.NewRouter(handler, admSvc, wsServer, cfg.CORS.AllowedOrigins, cfg.CORS.SecureCookies)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
