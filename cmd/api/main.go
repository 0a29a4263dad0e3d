// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ledgerdesk/account-assistant/internal/config"
	"github.com/ledgerdesk/account-assistant/internal/events"
	"github.com/ledgerdesk/account-assistant/internal/handler"
	"github.com/ledgerdesk/account-assistant/internal/llm"
	"github.com/ledgerdesk/account-assistant/internal/middleware"
	"github.com/ledgerdesk/account-assistant/internal/service"
	"github.com/ledgerdesk/account-assistant/internal/store"
	"github.com/ledgerdesk/account-assistant/internal/tool"
	"github.com/ledgerdesk/account-assistant/pkg/logger"
	"github.com/ledgerdesk/account-assistant/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "account-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the database
	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Connect the audit event feed if a broker is configured. The feed is
	// best-effort: a missing broker degrades to local operation only.
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.Connect(ctx, events.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, audit events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
		}
	}

	// Initialize LLM client
	llmClient, err := llm.NewClient(llm.Provider(cfg.LLMProvider), llm.Options{
		APIKey:  apiKeyFor(cfg),
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}

	// Initialize services
	accountSvc := service.NewAccountService(st, publisher, log)
	registry := tool.NewRegistry()
	accountSvc.RegisterTools(registry)
	assistantSvc := service.NewAssistantService(llmClient, registry, service.AssistantConfig{
		Model:        cfg.LLMModel,
		Timeout:      cfg.LLMTimeout,
		RetryBackoff: cfg.LLMRetryBackoff,
	}, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(st, publisher)
	accountHandler := handler.NewAccountHandler(accountSvc, log)
	assistantHandler := handler.NewAssistantHandler(assistantSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Assistant
		r.Post("/assistant", assistantHandler.Ask)

		// Customers
		r.Route("/customers", func(r chi.Router) {
			r.Post("/", accountHandler.CreateCustomer)
			r.Get("/", accountHandler.ListCustomers)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", accountHandler.GetCustomer)
				r.Get("/balance", accountHandler.GetBalance)
			})
		})

		// Tickets and payments
		r.Post("/tickets", accountHandler.CreateTicket)
		r.Post("/payments", accountHandler.RegisterPayment)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func apiKeyFor(cfg *config.Config) string {
	if llm.Provider(cfg.LLMProvider) == llm.ProviderAnthropic {
		return cfg.AnthropicAPIKey
	}
	return cfg.OpenAIAPIKey
}
