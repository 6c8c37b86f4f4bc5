package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"betteruno/internal/cache"
	"betteruno/internal/chat"
	"betteruno/internal/config"
	"betteruno/internal/database"
	"betteruno/internal/httpapi"
	"betteruno/internal/room"
	"betteruno/internal/ws"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Redis and Postgres are both optional: the relay runs entirely in
	// memory and only uses them for the action log and match history.
	if err := cache.InitRedis(); err != nil {
		log.WithError(err).Warn("Redis unavailable, action logging disabled")
	}
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := database.Connect(ctx); err != nil {
			log.WithError(err).Warn("Postgres unavailable, match history disabled")
		}
		cancel()
		defer database.Close()
	}

	registry := room.NewRegistry(log)
	chats := chat.NewHistory()
	hub := ws.NewHub(log, registry, chats)

	stop := make(chan struct{})
	go registry.RunCleanup(cfg.RoomSweepInterval, cfg.RoomMaxIdle, stop)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	httpapi.New(log, registry).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("Shutting down")
	close(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
}
