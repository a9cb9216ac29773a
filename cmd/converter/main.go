package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/port"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/archive"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/config"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/errreport"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/ffmpeg"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/metrics"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/postgres"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/tracing"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/poller"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/staging"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/usecase"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const release = "hackaton-converter@1.0.0"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting hackaton-converter",
		zap.String("queue_driver", cfg.QueueDriver),
		zap.String("storage_driver", cfg.StorageDriver),
		zap.String("notifier_driver", cfg.NotifierDriver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else if tp != nil {
		defer tp.Shutdown(context.Background())
	}

	var reporter port.ErrorReporter
	sentryReporter, err := errreport.NewSentryReporter(cfg.SentryDSN, cfg.SentryEnvironment, release)
	if err != nil {
		log.Warn("sentry init failed, continuing without error reporting", zap.Error(err))
	} else if sentryReporter != nil {
		reporter = sentryReporter
		defer sentryReporter.Flush(2 * time.Second)
	}

	// Audit store (optional)
	var repo port.ConversionRepository
	if cfg.DatabaseURL != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Warn("migration warning", zap.Error(err))
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		fatalOnErr(err, "connect to postgres")
		defer pool.Close()
		repo = postgres.NewConversionRepository(pool)
	}

	// Drivers
	queue, closeQueue, err := buildQueue(ctx, cfg, log)
	fatalOnErr(err, "create message source")
	defer closeQueue()

	store, err := buildStore(ctx, cfg, log)
	fatalOnErr(err, "create object store")

	notifier, closeNotifier, err := buildNotifier(cfg, log)
	fatalOnErr(err, "create notifier")
	defer closeNotifier()

	extractor := ffmpeg.NewExtractor(ffmpeg.ExtractorConfig{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		Format:      cfg.FFmpegFormat,
		Quality:     cfg.FFmpegQuality,
	}, log)

	stagingManager := staging.NewManager(cfg.TempDir, log)
	fatalOnErr(stagingManager.CreateDir(cfg.TempDir), "create temp dir")

	// Use case
	uc := usecase.NewConvertVideoUseCase(usecase.ConvertVideoDeps{
		Queue:      queue,
		Store:      store,
		Notifier:   notifier,
		Extractor:  extractor,
		Archiver:   archive.NewZipBuilder(),
		Staging:    stagingManager,
		Repository: repo,
		Reporter:   reporter,
	}, log, usecase.ConvertVideoConfig{
		MaxConcurrent: cfg.MaxConcurrentConversions,
	})

	// Health and metrics server
	srv := metrics.StartServer(ctx, cfg.APIPort, log)

	p, err := poller.New(cfg.PollSchedule, uc, log)
	fatalOnErr(err, "create poller")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("hackaton-converter started, polling for messages")

	if err := p.Run(ctx); err != nil {
		log.Error("poller error", zap.Error(err))
	}

	log.Info("waiting for in-flight conversions")
	uc.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown", zap.Error(err))
	}

	log.Info("hackaton-converter stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
