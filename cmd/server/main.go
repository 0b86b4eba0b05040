package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"buscontrol/internal/app"
	"buscontrol/internal/config"
	"buscontrol/internal/handler"
	internalRedis "buscontrol/internal/redis"
	"buscontrol/internal/repository/postgres"
	"buscontrol/internal/service"
)

func main() {
	app.SetupLogging(os.Stdout, "")

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	nrApp := app.NewNewRelic(cfg.NewRelic)

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	server := wireServer(db, redisClient, nrApp, cfg)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	statsCache := internalRedis.NewStatisticsCache(redisClient, cfg.Reports.StatisticsCacheTTL)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Initialize repositories.
	recordRepo := postgres.NewTripRecordRepository(db)

	// Initialize services.
	tripService := service.NewTripService(recordRepo, statsCache)
	reportService := service.NewReportService(recordRepo, statsCache, lockStore)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		TripHandler:   handler.NewTripHandler(tripService),
		ReportHandler: handler.NewReportHandler(reportService),
		HealthHandler: handler.NewHealthHandler(tripService),
		RedisClient:   redisClient,
		NewRelicApp:   nrApp,
		FrontendURL:   cfg.Server.FrontendURL,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
