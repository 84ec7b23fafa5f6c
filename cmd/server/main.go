// Command server runs the photoshare API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photoshare/internal/bootstrap"
	"photoshare/internal/config"
	"photoshare/internal/server"
)

// @title photoshare API
// @version 1.0
// @description Photo sharing API with comments, mentions, likes and realtime notifications

// @host localhost:3000
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependencies: %v", err)
	}

	srv, err := server.NewServer(rt.Deps)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := rt.ShutdownTracing(ctx); err != nil {
			log.Printf("Tracer shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on port %s...", cfg.Port)
	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}
