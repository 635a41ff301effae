package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mediscript/internal/auth"
	"mediscript/internal/config"
	"mediscript/internal/domain/services"
	"mediscript/internal/handler"
	"mediscript/internal/middleware"
	"mediscript/internal/repository"
	"mediscript/internal/service/ingest"
	"mediscript/internal/service/recognition"
	recordsvc "mediscript/internal/service/record"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, closeLog, err := config.NewLogger(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
		"recognition_provider", cfg.RecognitionProvider,
		"batch_policy", cfg.BatchPolicy,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer store.Close()

	archive, err := repository.OpenArchive(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open source archive: %v", err)
	}

	recognizer, err := recognition.NewFromConfig(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up recognizer: %v", err)
	}

	var opts []ingest.Option
	if archive != nil {
		opts = append(opts, ingest.WithArchive(archive))
	}
	orchestrator := ingest.NewOrchestrator(recognizer, store, services.BatchPolicy(cfg.BatchPolicy), logger, opts...)
	reviewService := recordsvc.NewReviewService(store, logger)

	recordHandler := handler.NewRecordHandler(reviewService, cfg.Environment != "prod", logger)
	batchHandler := handler.NewBatchHandler(orchestrator, cfg.MaxUploadBytes, nil, logger)

	logger.Info("services initialized")

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, recordHandler, batchHandler)

	// Order: CORS → Recovery → Auth → Routes
	var h http.Handler = mux
	if cfg.AuthJWKSURL != "" {
		verifier, err := auth.NewJWTVerifier(ctx, cfg.AuthJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
		h = middleware.AuthMiddleware(verifier, logger)(h)
	} else {
		if cfg.Environment == "prod" {
			log.Fatalf("AUTH_JWKS_URL is required in production")
		}
		logger.Warn("JWT auth disabled, trusting " + middleware.ReviewerHeader + " header")
		h = middleware.DevIdentity(h)
	}
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.ReviewerHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-running batch streams
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
