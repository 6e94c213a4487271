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

	"github.com/fasthelp/fasthelp/config"
	"github.com/fasthelp/fasthelp/internal/auth"
	"github.com/fasthelp/fasthelp/internal/database"
	"github.com/fasthelp/fasthelp/internal/geo"
	"github.com/fasthelp/fasthelp/internal/notify"
	"github.com/fasthelp/fasthelp/internal/store"
	"github.com/fasthelp/fasthelp/internal/web/handlers"
	"github.com/fasthelp/fasthelp/pkg/models"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("fasthelp-server %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
		os.Exit(0)
	}

	cfg := config.Load()

	if cfg.JWT.SigningKey == "" {
		log.Println("WARNING: JWT_SECRET is empty, using insecure default (set JWT_SECRET in production)")
		cfg.JWT.SigningKey = "insecure-dev-secret-change-me"
	}

	// Connect to Redis. The server still starts if Redis is down: reads
	// degrade to empty results and writes return 503 until it recovers.
	st, err := store.New(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Invalid Redis URL: %v", err)
	}
	defer st.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := st.Ping(pingCtx); err != nil {
		log.Printf("WARNING: Redis unreachable at startup: %v", err)
	}
	cancel()

	db := database.New(st, geo.Box{
		North: cfg.ServiceArea.North,
		South: cfg.ServiceArea.South,
		East:  cfg.ServiceArea.East,
		West:  cfg.ServiceArea.West,
	})

	authService := auth.New(db, cfg.JWT.SigningKey, cfg.JWT.Issuer,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	sender := notify.NewAPISender(cfg.Notify.APIURL, cfg.Notify.APIKey, cfg.Notify.From)
	fanout := notify.NewFanout(db, sender, cfg.Notify.BatchSize,
		time.Duration(cfg.Notify.BatchDelayMs)*time.Millisecond, cfg.Server.BaseURL)

	seedAdminUser(db, cfg)

	h := handlers.New(db, cfg, authService, fanout)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      h.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Fast Help server starting on %s (env: %s)", addr, cfg.Server.Env)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

// seedAdminUser ensures the configured admin account exists and is
// approved. Without it a fresh deployment has no way to approve anyone.
func seedAdminUser(db *database.DB, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	existing, err := db.GetUserByEmail(ctx, cfg.Admin.Email)
	if err != nil {
		log.Printf("Error looking up admin user: %v", err)
		return
	}
	if existing != nil {
		return
	}

	if cfg.Admin.Password == "admin123" {
		log.Println("WARNING: admin account uses the default password (set ADMIN_PASSWORD in production)")
	}

	hash, err := auth.HashPassword(cfg.Admin.Password)
	if err != nil {
		log.Printf("Failed to hash admin password: %v", err)
		return
	}

	created, err := db.CreateUser(ctx, &models.User{
		FullName:     "Administrator",
		Username:     "admin",
		Email:        cfg.Admin.Email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Approval:     models.ApprovalApproved,
	})
	if err != nil {
		log.Printf("Admin user skipped (may already exist): %v", err)
		return
	}
	log.Printf("Seeded admin user: %s (%s)", created.Email, created.ID)
}
