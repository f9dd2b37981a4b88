package handler

import (
	"net/http"
	"time"

	chathandler "github.com/boddenberg/cleverbot-go/internal/chat/handler"
	chatservice "github.com/boddenberg/cleverbot-go/internal/chat/service"
	"github.com/boddenberg/cleverbot-go/internal/domain"
	"github.com/boddenberg/cleverbot-go/internal/infra/observability"
	"github.com/boddenberg/cleverbot-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Deps groups what the router needs. AuthSvc may be nil (auth disabled);
// Breaker may be nil (health reports no upstream detail).
type Deps struct {
	Conversations *chatservice.ConversationService
	Dialogues     *chatservice.DialogueService
	AuthSvc       *service.AuthService
	Breaker       *gobreaker.CircuitBreaker
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	logger := deps.Logger

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(deps.Breaker))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(deps.AuthSvc, logger))

		// =============================================
		// 1. 💬 Conversas e diálogos
		// =============================================
		if deps.Conversations != nil && deps.Dialogues != nil {
			r.Group(chathandler.Routes(deps.Conversations, deps.Dialogues, logger))
		}

		// =============================================
		// 2. 📊 Métricas
		// GET /v1/metrics/chat
		// =============================================
		r.Get("/metrics/chat", chatMetricsHandler(deps.Metrics))
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

// healthzHandler reports the circuit breaker guarding the Cleverbot endpoint.
// An open breaker means the upstream is currently rejecting us: degraded, not down.
func healthzHandler(cb *gobreaker.CircuitBreaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "cleverbot-go", Status: "healthy", LastChecked: now},
		}

		overallStatus := "healthy"
		if cb != nil {
			state := cb.State()
			status := "healthy"
			if state != gobreaker.StateClosed {
				status = "degraded"
				overallStatus = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name:        "cleverbot",
				Status:      status,
				Detail:      "circuit " + state.String(),
				LastChecked: now,
			})
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func chatMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetChatSnapshot())
	}
}
