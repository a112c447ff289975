package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"impactbridge/partner-portal/partner-portal-backend/internal/config"
	"impactbridge/partner-portal/partner-portal-backend/internal/documents"
)

// ExpiryWorker marks documents whose expiry date has passed. Readiness
// checklists derive expiry from the document dates directly, so the sweep
// only keeps the stored status column in line for reporting queries.
type ExpiryWorker struct {
	docs   documents.Repository
	logger *zap.Logger
}

// NewExpiryWorker creates a new expiry worker
func NewExpiryWorker(docs documents.Repository, logger *zap.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		docs:   docs,
		logger: logger,
	}
}

// Sweep runs a single expiry pass
func (w *ExpiryWorker) Sweep(ctx context.Context) {
	asOf := time.Now()
	n, err := w.docs.MarkExpired(ctx, asOf)
	if err != nil {
		w.logger.Error("Expiry sweep failed", zap.Error(err))
		return
	}
	w.logger.Info("Expiry sweep complete",
		zap.Int64("documents_expired", n),
		zap.Time("as_of", asOf))
}

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on environment")
	}

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	worker := NewExpiryWorker(documents.NewRepository(db), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Workers.ExpirySchedule, func() {
		worker.Sweep(ctx)
	}); err != nil {
		logger.Fatal("Invalid expiry schedule",
			zap.String("schedule", cfg.Workers.ExpirySchedule),
			zap.Error(err))
	}

	// Catch up on anything that expired while the worker was down.
	worker.Sweep(ctx)

	scheduler.Start()
	logger.Info("Expiry worker started", zap.String("schedule", cfg.Workers.ExpirySchedule))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down expiry worker...")
	cancel()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("Expiry worker exiting")
}
