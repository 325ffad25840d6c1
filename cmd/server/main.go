// Command main is the entry point for the KnoWhere backend server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"knowhere/internal/config"
	"knowhere/internal/observability"
	"knowhere/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Distributed tracing (optional)
	if cfg.TracingEnabled {
		exporter := "stdout"
		if cfg.OTLPEndpoint != "" {
			exporter = "otlp"
		}
		shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:  "knowhere-api",
			Environment:  cfg.Env,
			Enabled:      true,
			Exporter:     exporter,
			OTLPEndpoint: cfg.OTLPEndpoint,
			SamplerRatio: 1,
		})
		if err != nil {
			log.Printf("Tracing init failed, continuing without: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(ctx); err != nil {
					log.Printf("Tracing shutdown error: %v", err)
				}
			}()
		}
	}

	// Create server with dependency injection
	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server resource shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
