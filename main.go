package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"signalbot/api"
	"signalbot/app"
	"signalbot/config"
	"signalbot/reconcile"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	if err := a.Bootstrap(ctx); err != nil {
		log.Fatalf("cold-start bootstrap failed: %v", err)
	}

	if err := a.StartConsumer(ctx); err != nil {
		log.Fatalf("consumer startup failed: %v", err)
	}

	scheduler := reconcile.NewScheduler(a.Pipeline, cfg.ReconcileHourUTC)
	go scheduler.Start(ctx)

	server := api.NewServer(api.ServerConfig{
		Analyst:             a.Analyst,
		Pipeline:            a.Pipeline,
		Store:               a.Store,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		ImpactThreshold:     cfg.ImpactThreshold,
	})

	addr := ":" + cfg.Port
	httpServer := &http.Server{Addr: addr, Handler: server.NewRouter()}

	go func() {
		log.Printf("Starting API server on %s", addr)
		log.Println("API endpoints available:")
		log.Println("  GET  /api/health")
		log.Println("  POST /api/analyze")
		log.Println("  POST /api/chat")
		log.Println("  POST /api/reconcile/run")
		log.Println("  GET  /api/reconcile/status")
		log.Println("  GET  /api/knowledge/count")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	// Stop intake and drain pending work before the HTTP surface goes away.
	a.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	os.Exit(0)
}
