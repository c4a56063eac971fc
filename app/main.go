package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storemonitor/app/internal/auth"
	"storemonitor/app/internal/config"
	"storemonitor/app/internal/database"
	"storemonitor/app/internal/handlers"
	"storemonitor/app/internal/metrics"
	"storemonitor/app/internal/ratelimit"
	"storemonitor/app/internal/reference"
	"storemonitor/app/internal/security"
	"storemonitor/app/internal/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := database.Init(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	metrics.Init()

	if cfg.ImportOnStart {
		importCSVs(cfg)
	}

	snap, err := reference.Load(cfg.DefaultTimezone)
	if err != nil {
		log.Fatalf("Failed to load reference data: %v", err)
	}
	latest, _ := snap.Latest()
	metrics.SetSnapshot(snap.NumStores(), snap.NumObservations(), latest)
	log.Printf("Loaded %d stores, %d observations (latest %s)",
		snap.NumStores(), snap.NumObservations(), latest.Format(time.RFC3339))

	reporter := stats.NewReporter(snap)

	keys := auth.NewKeyAuth(cfg.APIKeyHash)
	if !keys.Enabled() {
		log.Println("REPORT_API_KEY not set - report API is open")
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimitPerMin > 0 {
		limiter = ratelimit.New(ratelimit.Config{
			TokensPerMinute: cfg.RateLimitPerMin,
			ErrorMessage:    "Too many report requests. Please slow down.",
		})
		defer limiter.Stop()
	}

	mux := handlers.SetupRoutes(reporter, keys, limiter)

	// Wrap with timeout and security middleware
	var handler http.Handler = mux
	if cfg.RequestTimeout > 0 {
		handler = http.TimeoutHandler(handler, cfg.RequestTimeout, `{"error":"timeout"}`)
	}
	handler = security.AccessLog(security.SecureHeaders(handler))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go pruneLogs(ctx, cfg.LogRetention)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	_ = database.InsertLog(database.LogLevelInfo, database.LogCategorySystem, "", "Server started", "port="+cfg.Port)
	log.Printf("Server starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	log.Println("Server stopped")
}

// importCSVs replaces the input relations with the configured CSV files.
// A failed import keeps whatever the database already holds.
func importCSVs(cfg *config.Config) {
	sources := []struct {
		table database.Table
		path  string
	}{
		{database.TableStoreTimezone, cfg.TimezonesCSV},
		{database.TableMenuHours, cfg.MenuHoursCSV},
		{database.TableStoreStatus, cfg.StoreStatusCSV},
	}
	for _, src := range sources {
		if src.path == "" {
			continue
		}
		res, err := database.ImportFile(src.table, src.path)
		if err != nil {
			log.Printf("Warning: Failed to import %s from %s: %v", src.table, src.path, err)
			_ = database.InsertLog(database.LogLevelError, database.LogCategoryImport, "", "CSV import failed", err.Error())
			continue
		}
		metrics.AddImportRows(string(res.Table), res.Imported, res.Skipped)
		log.Printf("Imported %d rows into %s (%d skipped)", res.Imported, res.Table, res.Skipped)
	}
}

// pruneLogs keeps system_logs at the configured size
func pruneLogs(ctx context.Context, keep int) {
	if keep <= 0 {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		if err := database.PruneLogs(keep); err != nil {
			log.Printf("Warning: Failed to prune logs: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
