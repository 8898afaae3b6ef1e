// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"application-documents/internal/api"
	"application-documents/internal/common/aws"
	"application-documents/internal/common/camunda"
	"application-documents/internal/common/config"
	"application-documents/internal/common/database"
	apphttp "application-documents/internal/common/http"
	"application-documents/internal/common/logger"
	"application-documents/internal/common/observability"
	"application-documents/internal/document"
	"application-documents/internal/pdf"
	"application-documents/internal/repository"
	"application-documents/internal/view"

	gad "application-documents/internal/workers/document/generate-application-document"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	var outputs []string
	if cfg.Logging.Output != "" {
		outputs = append(outputs, cfg.Logging.Output)
	}
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, outputs...)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting application document worker...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics unavailable, continuing without", zap.Error(err))
		obs = observability.NewNoop()
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = camunda.NewClient(ctx, cfg.Camunda)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	redisClient := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Document generation ---
	settings := config.NewSettings(viper.GetViper())
	settings.Watch(log)

	resolver := view.NewRedisResolver(
		redisClient.Client,
		cfg.Document.OverridesKey,
		view.NewStaticResolver(cfg.Document.Templates),
		log,
	)
	views := view.NewTemplateRenderer(
		apphttp.NewClient(config.GetDuration(cfg.Document.TemplateTimeout)),
		config.GetDuration(cfg.Document.TemplateCacheTTL),
	)
	pdfRenderer := pdf.NewRenderer(pdf.Config{
		PageSize:    cfg.PDF.PageSize,
		Orientation: cfg.PDF.Orientation,
		FontFamily:  cfg.PDF.FontFamily,
		FontSize:    cfg.PDF.FontSize,
	})

	generator, err := document.NewGenerator(
		repository.NewApplicationRepository(pg.DB),
		resolver,
		views,
		pdfRenderer,
		settings,
		log,
	)
	if err != nil {
		zapLog.Fatal("failed to create document generator", zap.Error(err))
	}

	// --- Init AWS Clients ---
	var store gad.DocumentStore
	if cfg.Storage.S3.Enabled {
		s3Client, err := aws.NewS3Client(ctx, cfg.Storage.S3.Region, cfg.Storage.S3.Bucket, cfg.Storage.S3.Prefix)
		if err != nil {
			zapLog.Fatal("failed to create s3 client", zap.Error(err))
		}
		store = s3Client
		zapLog.Info("S3 document storage enabled", zap.String("bucket", cfg.Storage.S3.Bucket))
	}

	var events gad.EventPublisher
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region, cfg.Notifications.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("failed to create sns client", zap.Error(err))
		}
		events = snsClient
		zapLog.Info("SNS document events enabled", zap.String("topicArn", cfg.Notifications.SNS.TopicARN))
	}

	// --- Workers ---
	var jobWorker worker.JobWorker
	if config.IsWorkerEnabled(cfg, gad.TaskType) {
		handler := gad.NewHandler(
			gad.LoadConfig(cfg),
			pg.DB,
			generator,
			store,
			events,
			obs,
			log,
		)
		jobWorker = camunda.StartWorker(zeebeClient, gad.TaskType, config.GetWorkerConfig(cfg, gad.TaskType), handler.Handle, zapLog)
	}

	// --- HTTP API, Health & Metrics ---
	router := api.NewRouter(api.RouterOptions{
		Documents: api.NewDocumentHandler(generator, cfg.Document.BaseURI, log),
		Dependencies: map[string]api.Pinger{
			"postgres": pg,
			"redis":    redisClient,
			"zeebe":    zeebeClient,
		},
		Logger: log,
	})
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	if jobWorker != nil {
		jobWorker.Close()
		jobWorker.AwaitClose()
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing metrics", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
