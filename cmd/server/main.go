package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"semclass/internal/classifier"
	"semclass/internal/classifier/semaphore"
	"semclass/internal/config"
	"semclass/internal/handler"
	"semclass/internal/metrics"
	"semclass/internal/parser"
	"semclass/internal/router"
	"semclass/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the classification service client
	client, err := semaphore.NewClient(&cfg.Service)
	if err != nil {
		return fmt.Errorf("failed to initialize classification client: %w", err)
	}
	strategies, err := classifier.NewStrategies(client, cfg.Classify.Strategies)
	if err != nil {
		return fmt.Errorf("failed to build submission strategies: %w", err)
	}
	fallback := classifier.NewFallbackClassifier(strategies...)

	recorder := metrics.NewRecorder(metrics.WithRuntimeCollectors())

	// Initialize services
	classifySvc := service.NewClassifyService(fallback, parser.NewExtractor(nil), service.ClassifyDefaults{
		Threshold: cfg.Classify.Threshold,
		Category:  cfg.Classify.Category,
		MaxTopics: cfg.Classify.MaxTopics,
	}, recorder)

	// Initialize handlers
	classifyH := handler.NewClassifyHandler(classifySvc)
	healthH := handler.NewHealthHandler(client)

	r := router.Setup(classifyH, healthH, recorder.Handler(), recorder, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s (classification endpoint %s)", cfg.Server.Port, cfg.Service.ClassificationURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Printf("Server stopped")
	return nil
}
