package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rvvm-project/campusgate/internal/buildinfo"
	"github.com/rvvm-project/campusgate/internal/config"
	"github.com/rvvm-project/campusgate/internal/database"
	"github.com/rvvm-project/campusgate/internal/handlers"
	"github.com/rvvm-project/campusgate/internal/models"
	"github.com/rvvm-project/campusgate/internal/store"
	"github.com/rvvm-project/campusgate/internal/websocket"
)

func main() {
	log.Printf("campusgate %s (built %s)", buildinfo.CommitHash, buildinfo.BuildTime)

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Select the datastore. The driver is explicit configuration, never
	// inferred from missing credentials at call sites.
	var (
		st store.Store
		db *database.DB
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Println("Store: [In-Memory] - data is process-local and lost on exit")
		st = store.NewMemory()
	default:
		db, err = database.Connect(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		// Note: db.Close() is called manually in the shutdown handler below

		log.Println("Synchronizing database schema...")
		err = db.AutoMigrate(
			&models.User{},
			&models.Visit{},
			&models.VisitorRequest{},
			&models.Notification{},
		)
		if err != nil {
			log.Printf("Migration warning: %v", err)
		} else {
			log.Println("Schema synchronized successfully")
		}
		st = store.NewGorm(db)
	}

	// 3. Live notification hub
	hub := websocket.NewHub()
	go hub.Run()

	// 4. HTTP router
	router := handlers.NewRouter(cfg, st, hub)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// 5. Start server with graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("Server starting on port %s [env: %s, store: %s]", cfg.Port, cfg.NodeEnv, cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if db != nil {
		log.Println("Closing database connection...")
		if err := db.Close(); err != nil {
			log.Printf("Database close error: %v", err)
		}
	}

	log.Println("Shutdown complete")
}
