// Command main is the entry point for the Showcase backend server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"showcase/internal/config"
	"showcase/internal/middleware"
	"showcase/internal/observability"
	"showcase/internal/server"
)

// @title Showcase API
// @version 1.0
// @description Project showcase API with likes, flags, visits and search

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env, cfg.LogLevel)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    "showcase-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	if err := serve(srv, stop, shutdownTracing, shutdownTimeout); err != nil {
		log.Fatal(err)
	}
}

const shutdownTimeout = 10 * time.Second

type lifecycle interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serve runs srv until it fails or stop fires. It returns only after the
// server's resources and the tracer provider have been shut down.
func serve(srv lifecycle, stop <-chan os.Signal, shutdownTracing func(context.Context) error, timeout time.Duration) error {
	started := make(chan error, 1)
	go func() { started <- srv.Start() }()

	var runErr error
	select {
	case runErr = <-started:
		started = nil
	case <-stop:
		log.Println("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server resource shutdown error: %v", err)
	}
	if started != nil {
		select {
		case runErr = <-started:
		case <-ctx.Done():
			log.Printf("Server did not stop within %s", timeout)
		}
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("Tracing shutdown error: %v", err)
	}
	return runErr
}
