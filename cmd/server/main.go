// Command server is the entry point for the PubHub API.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pubhub/internal/bootstrap"
	"pubhub/internal/config"
	"pubhub/internal/middleware"
	"pubhub/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.SetupLogger(cfg.Env)

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv := server.NewServer(cfg, rt)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		middleware.Logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			middleware.Logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	err = srv.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if cerr := rt.Close(ctx); cerr != nil {
		middleware.Logger.Error("Runtime close error", slog.String("error", cerr.Error()))
	}
	if err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
