/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the rate-engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load optional .env file, parse command-line flags
  2. Open the rate and holiday caches
  3. Open the calculation-history database
  4. Create API handler with dependencies
  5. Start server with graceful shutdown

CONFIGURATION:
  Every flag can also be set via environment variable (flag wins). A .env
  file in the working directory is loaded first, if present.

  -port / PORT            HTTP server port (default: 8080)
  -data / DATA_DIR        Directory for cache files and backups (default: ./data)
  -db / HISTORY_DB        Calculation-history SQLite path (default: <data>/history.db)
  -rates-url / RATES_URL  Upstream rate search endpoint
  -holidays-url / HOLIDAYS_URL  Holiday API base URL
  -quotes-url / QUOTES_URL      Spot-quote API base URL (optional)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
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
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/selic/rate-engine/api"
	"github.com/selic/rate-engine/holidays"
	"github.com/selic/rate-engine/quotes"
	"github.com/selic/rate-engine/ratestore"
	"github.com/selic/rate-engine/selic"
	"github.com/selic/rate-engine/store/sqlite"
)

const (
	defaultRatesURL    = "https://www3.bcb.gov.br/novoselic/rest/taxaSelicApurada/pub/search?parametrosOrdenacao=%5B%5D&page=1&pageSize=20"
	defaultHolidaysURL = "https://brasilapi.com.br/api/feriados/v1"
)

func main() {
	// A missing .env is fine; flags and real env still apply.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dataDir := flag.String("data", envStr("DATA_DIR", "./data"), "directory for cache files and backups")
	historyDB := flag.String("db", envStr("HISTORY_DB", ""), "calculation-history SQLite path")
	ratesURL := flag.String("rates-url", envStr("RATES_URL", defaultRatesURL), "upstream rate search endpoint")
	holidaysURL := flag.String("holidays-url", envStr("HOLIDAYS_URL", defaultHolidaysURL), "holiday API base URL")
	quotesURL := flag.String("quotes-url", envStr("QUOTES_URL", ""), "spot-quote API base URL (optional)")
	flag.Parse()

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	backupDir := filepath.Join(*dataDir, "backups")

	store := ratestore.New(ratestore.Config{
		Path:      filepath.Join(*dataDir, "selic_apurada_cache.json"),
		BackupDir: backupDir,
	})
	resolver := holidays.NewResolver(
		holidays.Config{
			Path:      filepath.Join(*dataDir, "feriados_cache.json"),
			BackupDir: backupDir,
		},
		holidays.NewClient(*holidaysURL, nil),
	)
	reconciler := selic.NewReconciler(store, resolver, selic.NewClient(*ratesURL, nil))

	if *historyDB == "" {
		*historyDB = filepath.Join(*dataDir, "history.db")
	}
	history, err := sqlite.New(*historyDB)
	if err != nil {
		log.Fatalf("Failed to initialize history database: %v", err)
	}
	defer history.Close()

	var quoteClient *quotes.Client
	if *quotesURL != "" {
		quoteClient = quotes.NewClient(*quotesURL, nil)
	}

	handler := api.NewHandler(store, resolver, reconciler, quoteClient, history)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

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

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		log.Printf("Ignoring invalid %s=%q", key, v)
		return fallback
	}
	return n
}
