package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/cleverbot-go/internal/chat/domain"
	"github.com/boddenberg/cleverbot-go/internal/chat/infra"
	"github.com/boddenberg/cleverbot-go/internal/chat/port"
	chatservice "github.com/boddenberg/cleverbot-go/internal/chat/service"
	"github.com/boddenberg/cleverbot-go/internal/config"
	"github.com/boddenberg/cleverbot-go/internal/handler"
	"github.com/boddenberg/cleverbot-go/internal/infra/observability"
	"github.com/boddenberg/cleverbot-go/internal/infra/resilience"
	"github.com/boddenberg/cleverbot-go/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	issueFor := flag.String("issue-token", "", "print an access token for the given subject and exit (requires JWT_SECRET)")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -issue-token")
	flag.Parse()

	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	// --- Auth ---
	var authSvc *service.AuthService
	if cfg.JWTSecret != "" {
		authSvc = service.NewAuthService(cfg.JWTSecret, *tokenTTL, logger)
	}

	if *issueFor != "" {
		if authSvc == nil {
			logger.Fatal("JWT_SECRET is required to issue tokens")
		}
		token, err := authSvc.IssueAccessToken(*issueFor)
		if err != nil {
			logger.Fatal("failed to issue token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("cleverbot_endpoint", cfg.CleverbotEndpoint),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Int("chat_rejection_retries", cfg.ChatRejectionRetries),
		zap.Duration("conversation_ttl", cfg.ConversationTTL),
		zap.Bool("auth_enabled", authSvc != nil),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "cleverbot-go")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	cb := resilience.NewCircuitBreaker("cleverbot", logger)
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)
	retryCfg := resilience.Config{
		MaxRetries:     cfg.ChatRejectionRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	newAsker := func(initial *domain.Session) port.Asker {
		return infra.NewClient(httpClient, cfg.CleverbotEndpoint, cb, initial, logger)
	}

	// --- Services ---
	convSvc := chatservice.NewConversationService(newAsker, cfg.ConversationTTL, bulkhead, retryCfg, metrics, logger)
	defer convSvc.Close()
	dialogueSvc := chatservice.NewDialogueService(newAsker, bulkhead, cfg.MaxDialogueTurns, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Conversations: convSvc,
		Dialogues:     dialogueSvc,
		AuthSvc:       authSvc,
		Breaker:       cb,
		Metrics:       metrics,
		Logger:        logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTPTimeout*time.Duration(cfg.MaxDialogueTurns) + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("server stopped")
}
