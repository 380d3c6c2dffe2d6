package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pluspoint/pluspoint/internal/database"
	"github.com/pluspoint/pluspoint/internal/logging"
	"github.com/pluspoint/pluspoint/internal/push"
	"github.com/pluspoint/pluspoint/internal/server"
)

func main() {
	generateKeys := flag.Bool("generate-vapid-keys", false, "print a fresh VAPID key pair and exit")
	flag.Parse()

	if *generateKeys {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("failed to generate VAPID keys: %v", err)
		}
		fmt.Printf("PLUSPOINT_VAPID_PUBLIC_KEY=%s\nPLUSPOINT_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	port := os.Getenv("PLUSPOINT_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("PLUSPOINT_DB_PATH")
	if dbPath == "" {
		dbPath = "pluspoint.db"
	}

	jwtSecret := os.Getenv("PLUSPOINT_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("PLUSPOINT_JWT_SECRET is required")
	}

	logger := logging.Setup(os.Getenv("PLUSPOINT_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		JWTSecret: jwtSecret,
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("PLUSPOINT_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("PLUSPOINT_VAPID_PRIVATE_KEY"),
		},
	}

	srv := server.New(db, cfg, logger)

	// Periodic sweep of expired rate limit entries
	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-stopCleanup:
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("pluspoint listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(stopCleanup)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
