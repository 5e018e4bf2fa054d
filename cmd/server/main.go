/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave validation engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Load leave policy config (JSON file, optional)
  4. Wire resolver, accountant, validator and accrual engine
  5. Start the accrual scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: leave.db)
           Use ":memory:" for in-memory database
  -config  Leave policy JSON overlay (optional)

ENVIRONMENT:
  SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD, EMAIL_FROM, EMAIL_TO
  configure run-summary mail. Mail is disabled when SMTP_HOST is unset.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/leave.db"

  # Run with a policy override
  ./server -config="./policy.json"

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Accrual scheduler
  - store/sqlite/sqlite.go: Database implementation
*/
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

	"github.com/gvs/leave-engine/accrual"
	"github.com/gvs/leave-engine/api"
	"github.com/gvs/leave-engine/calendar"
	"github.com/gvs/leave-engine/leave"
	"github.com/gvs/leave-engine/notify"
	"github.com/gvs/leave-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "leave.db", "SQLite database path")
	configPath := flag.String("config", "", "leave policy JSON overlay (optional)")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Policy config
	cfg := leave.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to read config %s: %v", *configPath, err)
		}
		cfg, err = leave.ParseConfig(data)
		if err != nil {
			log.Fatalf("Failed to parse config %s: %v", *configPath, err)
		}
	}

	// Wire the engine
	resolver := calendar.NewResolver(store, store)
	accountant := leave.NewAccountant(store, resolver)
	validator := leave.NewValidator(cfg, store, accountant, resolver)
	engine := accrual.NewEngine(accrual.DefaultConfig(), store, store, accountant)

	// Run-summary mail
	var mailer notify.Mailer = notify.Nop{}
	if smtp := notify.SMTPConfigFromEnv(); smtp.Enabled {
		mailer = notify.NewSMTPMailer(smtp)
		log.Printf("Run-summary mail enabled via %s", smtp.Host)
	}

	// Scheduler
	scheduler := api.NewAccrualScheduler(engine, mailer)
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	handler := api.NewHandler(store, validator, engine)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
