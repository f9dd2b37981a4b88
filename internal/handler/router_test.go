package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boddenberg/cleverbot-go/internal/domain"
	"github.com/boddenberg/cleverbot-go/internal/handler"
	"github.com/boddenberg/cleverbot-go/internal/infra/observability"
	"github.com/boddenberg/cleverbot-go/internal/infra/resilience"
	"github.com/boddenberg/cleverbot-go/internal/service"

	"go.uber.org/zap"
)

func newRouter(deps handler.Deps) http.Handler {
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return handler.NewRouter(deps)
}

func TestHealthz(t *testing.T) {
	router := newRouter(handler.Deps{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHealthz_ReportsBreaker(t *testing.T) {
	cb := resilience.NewCircuitBreaker("healthz", zap.NewNop())
	router := newRouter(handler.Deps{Breaker: cb})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var health domain.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("expected healthy, got %s", health.Status)
	}
	if len(health.Services) != 2 || health.Services[1].Detail != "circuit closed" {
		t.Errorf("unexpected services %+v", health.Services)
	}
}

func TestReadyz(t *testing.T) {
	router := newRouter(handler.Deps{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newRouter(handler.Deps{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestChatMetricsSnapshot(t *testing.T) {
	metrics := observability.NewMetrics()
	metrics.RecordAsk(observability.OutcomeSuccess, 10*time.Millisecond)
	metrics.RecordAsk(observability.OutcomeDenied, 10*time.Millisecond)
	router := newRouter(handler.Deps{Metrics: metrics})

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/chat", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snapshot domain.ChatMetrics
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.TotalAsks != 2 || snapshot.DeniedRejections != 1 || snapshot.RejectionRate != 0.5 {
		t.Errorf("unexpected snapshot %+v", snapshot)
	}
}

func TestV1_RequiresTokenWhenAuthEnabled(t *testing.T) {
	authSvc := service.NewAuthService("test-secret", time.Hour, zap.NewNop())
	router := newRouter(handler.Deps{AuthSvc: authSvc})

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/chat", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	token, err := authSvc.IssueAccessToken("alice")
	if err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodGet, "/v1/metrics/chat", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}
}

func TestV1_RejectsMalformedAuthorization(t *testing.T) {
	authSvc := service.NewAuthService("test-secret", time.Hour, zap.NewNop())
	router := newRouter(handler.Deps{AuthSvc: authSvc})

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/chat", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
