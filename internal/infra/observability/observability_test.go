package observability_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/boddenberg/cleverbot-go/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Levels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for level, want := range cases {
		logger := observability.NewLogger(level)
		if !logger.Core().Enabled(want) {
			t.Errorf("%s: expected %s enabled", level, want)
		}
		if want > zapcore.DebugLevel && logger.Core().Enabled(want-1) {
			t.Errorf("%s: expected %s disabled", level, want-1)
		}
	}
}

func TestZapLoggerMiddleware_LogsRoutePattern(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	r := chi.NewRouter()
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Get("/v1/conversations/{conversationId}/state", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/abc/state", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.WarnLevel {
		t.Errorf("expected warn for 404, got %s", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["route"] != "/v1/conversations/{conversationId}/state" {
		t.Errorf("unexpected route %v", fields["route"])
	}
	if fields["status"] != int64(http.StatusNotFound) {
		t.Errorf("unexpected status %v", fields["status"])
	}
}

func TestMetrics_Snapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.RecordAsk(observability.OutcomeSuccess, 20*time.Millisecond)
	m.RecordAsk(observability.OutcomeSuccess, 20*time.Millisecond)
	m.RecordAsk(observability.OutcomeRejected, 5*time.Millisecond)
	m.RecordAsk(observability.OutcomeTransport, time.Second)
	m.SetActiveConversations(3)
	m.IncrDialogue()

	snap := m.GetChatSnapshot()
	if snap.TotalAsks != 4 {
		t.Errorf("expected 4 asks, got %d", snap.TotalAsks)
	}
	if snap.Rejections != 1 || snap.DeniedRejections != 0 {
		t.Errorf("unexpected rejections %+v", snap)
	}
	if snap.TransportErrors != 1 {
		t.Errorf("expected 1 transport error, got %d", snap.TransportErrors)
	}
	if snap.RejectionRate != 0.25 {
		t.Errorf("expected rejection rate 0.25, got %f", snap.RejectionRate)
	}
	if snap.ActiveConversations != 3 || snap.DialoguesRun != 1 {
		t.Errorf("unexpected gauges %+v", snap)
	}
}

func TestNewMetrics_Independent(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()

	a.RecordAsk(observability.OutcomeSuccess, time.Millisecond)

	if b.GetChatSnapshot().TotalAsks != 0 {
		t.Error("expected registries to be independent")
	}
}
