package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tripfolio/tripfolio/internal/pkg/config"
	"github.com/tripfolio/tripfolio/internal/server"
	"github.com/tripfolio/tripfolio/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	// Initialize logger
	level := zapcore.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zapcore.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	if err := logger.Init(level); err != nil {
		return err
	}
	l := logger.Log
	defer l.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize observability
	otelShutdown, err := server.InitObservability("tripfolio-engine", cfg.MetricsAddr, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			l.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	// Create server (loads the durable geo cache; a corrupt cache aborts here)
	srv, err := server.New(cfg, l)
	if err != nil {
		return err
	}
	defer srv.Close()

	// Setup router
	srv.SetRouter(server.SetupRouter(srv.Engine(), l))

	// Start pprof server (on separate port, not exposed publicly)
	server.StartPprofServer(cfg.PprofAddr)

	// Create HTTP server
	httpServer := srv.HTTPServer()

	// Setup graceful shutdown
	done := make(chan bool, 1)
	go server.GracefulShutdown(httpServer, l, done)

	// Start server
	l.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil {
		l.Error("Server error", zap.Error(err))
	}

	<-done
	l.Info("Graceful shutdown complete")

	return nil
}
