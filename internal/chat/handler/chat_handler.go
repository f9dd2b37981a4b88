// Package handler: chat_handler.go implementa as rotas de conversa.
//
// ============================================================
// ROTAS
// ============================================================
//
// POST   /v1/conversations              → abre conversa (opcionalmente retomando um state)
// POST   /v1/conversations/{id}/ask     → um turno: {"question": "..."} → {"answer": "..."}
// GET    /v1/conversations/{id}/state   → exporta o state, na ordem em que é enviado
// DELETE /v1/conversations/{id}         → descarta a conversa
// POST   /v1/dialogues                  → duas sessões conversando entre si
//
// Os handlers são finos: validação básica e delegação para o service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/boddenberg/cleverbot-go/internal/chat/domain"
	chatservice "github.com/boddenberg/cleverbot-go/internal/chat/service"
	maindomain "github.com/boddenberg/cleverbot-go/internal/domain"
	"github.com/boddenberg/cleverbot-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// tracer é o tracer OpenTelemetry para o módulo chat/handler.
var tracer = otel.Tracer("chat/handler")

// Routes monta as rotas de chat num sub-router.
func Routes(convSvc *chatservice.ConversationService, dialogueSvc *chatservice.DialogueService, logger *zap.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/conversations", StartHandler(convSvc, logger))
		r.Post("/conversations/{conversationId}/ask", AskHandler(convSvc, logger))
		r.Get("/conversations/{conversationId}/state", StateHandler(convSvc, logger))
		r.Delete("/conversations/{conversationId}", EndHandler(convSvc, logger))
		r.Post("/dialogues", DialogueHandler(dialogueSvc, logger))
	}
}

// StartHandler: POST /v1/conversations. Body vazio abre uma conversa nova com o state padrão.
func StartHandler(convSvc *chatservice.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/conversations")
		defer span.End()

		var req domain.StartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"state\": [...]} or empty")
			return
		}

		conv, err := convSvc.Start(ctx, service.OwnerFromContext(ctx), req.State)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, conv)
	}
}

// AskHandler: POST /v1/conversations/{conversationId}/ask.
// Qualquer texto é aceito como pergunta, inclusive vazio.
func AskHandler(convSvc *chatservice.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/conversations/{id}/ask")
		defer span.End()

		id := chi.URLParam(r, "conversationId")
		span.SetAttributes(attribute.String("conversation.id", id))

		var req domain.AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"question\": \"your message\"}")
			return
		}

		resp, err := convSvc.Ask(ctx, service.OwnerFromContext(ctx), id, req.Question)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// StateHandler: GET /v1/conversations/{conversationId}/state.
func StateHandler(convSvc *chatservice.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationId")

		resp, err := convSvc.State(service.OwnerFromContext(r.Context()), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// EndHandler: DELETE /v1/conversations/{conversationId}.
func EndHandler(convSvc *chatservice.ConversationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationId")

		if err := convSvc.End(service.OwnerFromContext(r.Context()), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DialogueHandler: POST /v1/dialogues.
//
// Quando o diálogo para no meio, o transcript parcial é devolvido com o
// status do erro e o campo "error" preenchido.
func DialogueHandler(dialogueSvc *chatservice.DialogueService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dialogues")
		defer span.End()

		var req domain.DialogueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"opening\": \"...\", \"turns\": n}")
			return
		}

		transcript, err := dialogueSvc.Run(ctx, req.Opening, req.Turns)
		if err != nil {
			if transcript == nil {
				handleServiceError(w, err, logger)
				return
			}
			writeJSON(w, statusFor(err), transcript)
			return
		}

		writeJSON(w, http.StatusOK, transcript)
	}
}

// ============================================================
// Helpers: funções utilitárias do chat handler
// ============================================================

// rejectionResponse expõe o status devolvido pelo Cleverbot.
type rejectionResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status"`
	Denied         bool   `json:"denied"`
}

// writeJSON serializa data como JSON e escreve na response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError escreve uma resposta de erro padronizada.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor mapeia erros de domínio para HTTP status codes.
func statusFor(err error) int {
	var rejection *maindomain.ErrRejection
	var circuitOpen *maindomain.ErrCircuitOpen
	var notFound *maindomain.ErrNotFound
	var validation *maindomain.ErrValidation
	var unauthorized *maindomain.ErrUnauthorized
	var external *maindomain.ErrExternalService

	switch {
	case errors.As(err, &rejection), errors.As(err, &external):
		return http.StatusBadGateway
	case errors.As(err, &circuitOpen):
		return http.StatusServiceUnavailable
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError escreve o erro com o status de statusFor.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := statusFor(err)

	var rejection *maindomain.ErrRejection
	if errors.As(err, &rejection) {
		logger.Warn("cleverbot rejection",
			zap.Int("upstream_status", rejection.StatusCode),
			zap.Bool("denied", rejection.Denied),
		)
		writeJSON(w, status, rejectionResponse{
			Error:          err.Error(),
			UpstreamStatus: rejection.StatusCode,
			Denied:         rejection.Denied,
		})
		return
	}

	switch {
	case status == http.StatusInternalServerError:
		logger.Error("unexpected error in chat handler", zap.Error(err))
		writeError(w, status, "internal server error")
	case status >= 500:
		logger.Error("chat request failed", zap.Error(err))
		writeError(w, status, err.Error())
	default:
		logger.Debug("chat request refused", zap.String("error", err.Error()))
		writeError(w, status, err.Error())
	}
}
