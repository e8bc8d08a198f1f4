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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"FitAI_V1.0/internal/config"
	"FitAI_V1.0/internal/database"
	"FitAI_V1.0/internal/dietplan"
	"FitAI_V1.0/internal/events"
	"FitAI_V1.0/internal/geminiservice"
	"FitAI_V1.0/internal/server"
	"FitAI_V1.0/internal/storage"
	"FitAI_V1.0/internal/utility"
)

type planPublisher interface {
	dietplan.EventPublisher
	Close() error
}

func setupLogger(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	log.Logger = log.With().Str("service", "fitai-api").Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

// openStore picks the plan store backend and wraps it in the history cache.
func openStore(ctx context.Context, cfg config.Config, dynamo *dynamodb.Client) (database.Service, error) {
	var store database.Service
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pg, err := database.NewPostgresPlanStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Connected to postgres plan store")
		store = pg
	case config.StoreDynamoDB:
		store = database.NewDynamoPlanStore(dynamo, cfg.DietPlansTable)
		log.Info().Str("table", cfg.DietPlansTable).Msg("Using dynamodb plan store")
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.HistoryCacheSize <= 0 {
		return store, nil
	}
	cached, err := database.NewCachedPlanStore(store, cfg.HistoryCacheSize)
	if err != nil {
		store.Close()
		return nil, err
	}
	return cached, nil
}

func newPublisher(cfg config.Config) planPublisher {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info().Msg("KAFKA_BROKERS not set, plan events disabled")
		return events.NoopPublisher{}
	}
	log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("Publishing plan events to kafka")
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// Open chat sockets are hijacked and not tracked by Shutdown.
	utility.CloseAllClients()

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	ctx := context.Background()

	// 1. AWS clients
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatal().Err(err).Msg("could not load AWS config")
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	s3Client := s3.NewFromConfig(awsCfg)

	// 2. Plan store
	store, err := openStore(ctx, cfg, dynamoClient)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open plan store")
	}
	defer store.Close()

	// 3. Generation client and pipeline
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set, plans will use the fallback skeleton")
	}
	gemini := geminiservice.NewClient(cfg.GeminiAPIKey,
		geminiservice.WithBaseURL(cfg.GeminiBaseURL),
		geminiservice.WithModel(cfg.GeminiModel),
		geminiservice.WithCallTimeout(cfg.GeminiCallTimeout),
	)

	publisher := newPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("could not close event publisher")
		}
	}()

	plans := dietplan.NewService(dietplan.NewGenerator(gemini, cfg.DayConcurrency), store, publisher)
	photos := storage.NewPhotoService(s3Client, dynamoClient, cfg.PhotoBucket, cfg.UsersTable)

	// 4. HTTP server
	apiServer := server.NewServer(cfg, server.Deps{
		DB:     store,
		Plans:  plans,
		Photos: photos,
		Chat:   gemini,
	})

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, done)

	log.Info().Str("addr", apiServer.Addr).Str("store", cfg.StoreBackend).Msg("FitAI API listening")
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server error")
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info().Msg("Graceful shutdown complete.")
}
