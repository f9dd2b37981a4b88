// Package service: conversation_service.go implementa o ConversationService.
//
// ============================================================
// ARQUITETURA: uma sessão Cleverbot por conversa
// ============================================================
//
// Cada conversa tem o seu próprio Asker (client + sessão). O client não é
// seguro para uso concorrente, então cada conversa tem um mutex e os turnos
// de uma mesma conversa são serializados. Conversas diferentes rodam em
// paralelo, limitadas pelo Bulkhead compartilhado.
//
// Fluxo de um turno:
//  1. Handler recebe POST /v1/conversations/{id}/ask com {"question": "..."}
//  2. ConversationService.Ask() localiza a conversa (e confere o dono)
//  3. Pega o lock da conversa e um slot do Bulkhead
//  4. Chama Asker.Ask (que recalcula o icognocheck e faz o POST)
//  5. Em rejeição, só tenta de novo se ChatRejectionRetries > 0
//  6. Devolve a resposta + sessionid aprendido
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/boddenberg/cleverbot-go/internal/chat/domain"
	"github.com/boddenberg/cleverbot-go/internal/chat/port"
	maindomain "github.com/boddenberg/cleverbot-go/internal/domain"
	"github.com/boddenberg/cleverbot-go/internal/infra/cache"
	"github.com/boddenberg/cleverbot-go/internal/infra/observability"
	"github.com/boddenberg/cleverbot-go/internal/infra/resilience"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// chatTracer é o tracer OpenTelemetry para o módulo de chat.
var chatTracer = otel.Tracer("chat/service")

// conversation guarda um Asker. info não muda depois de Start; turns é lido
// pelo hook de expiração sem o lock, então é atômico.
type conversation struct {
	mu    sync.Mutex
	info  domain.Conversation
	turns atomic.Int64
	asker port.Asker
}

// ConversationService guarda as conversas vivas e executa os turnos.
type ConversationService struct {
	factory  port.AskerFactory
	store    *cache.InMemory[*conversation]
	bulkhead *resilience.Bulkhead
	retry    resilience.Config
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewConversationService cria o serviço. Conversas paradas por mais de ttl
// são descartadas. retry.MaxRetries é o número de re-envios após uma
// rejeição (0 = a rejeição volta direto para o chamador).
func NewConversationService(
	factory port.AskerFactory,
	ttl time.Duration,
	bulkhead *resilience.Bulkhead,
	retry resilience.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ConversationService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &ConversationService{
		factory:  factory,
		bulkhead: bulkhead,
		retry:    retry,
		metrics:  metrics,
		logger:   logger,
	}
	s.store = cache.New[*conversation](ttl, cache.WithEvictHook(func(id string, c *conversation) {
		s.logger.Info("conversation expired",
			zap.String("conversation_id", id),
			zap.Int64("turns", c.turns.Load()),
		)
		s.metrics.SetActiveConversations(s.store.Len())
	}))
	return s
}

// Close stops background expiry.
func (s *ConversationService) Close() {
	s.store.Close()
}

// Start abre uma conversa nova. Um state não vazio retoma uma conversa
// exportada anteriormente, preservando a ordem dos campos.
func (s *ConversationService) Start(ctx context.Context, owner string, state []domain.Field) (*domain.Conversation, error) {
	_, span := chatTracer.Start(ctx, "ConversationService.Start")
	defer span.End()

	var initial *domain.Session
	if len(state) > 0 {
		initial = domain.NewSession(state...)
	}

	c := &conversation{
		info: domain.Conversation{
			ID:        uuid.NewString(),
			Owner:     owner,
			CreatedAt: time.Now().UTC(),
		},
		asker: s.factory(initial),
	}
	s.store.Set(c.info.ID, c)
	s.metrics.SetActiveConversations(s.store.Len())

	span.SetAttributes(attribute.String("conversation.id", c.info.ID))
	s.logger.Info("conversation started",
		zap.String("conversation_id", c.info.ID),
		zap.String("owner", owner),
		zap.Bool("resumed", initial != nil),
	)

	info := c.info
	return &info, nil
}

// Ask executa um turno na conversa id.
func (s *ConversationService) Ask(ctx context.Context, owner, id, question string) (*domain.AskResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ConversationService.Ask")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", id))

	c, err := s.lookup(owner, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	answer, err := s.askWithPolicy(ctx, c.asker, question)
	if err != nil {
		s.logger.Warn("ask failed",
			zap.String("conversation_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	turn := c.turns.Add(1)
	if !s.store.Touch(id) {
		s.logger.Info("conversation expired during ask", zap.String("conversation_id", id))
	}

	sessionID, _ := c.asker.Session().Get(domain.FieldSessionID)
	return &domain.AskResponse{
		ConversationID: id,
		Answer:         answer,
		SessionID:      sessionID,
		Turn:           int(turn),
	}, nil
}

// State exporta o estado atual da conversa.
func (s *ConversationService) State(owner, id string) (*domain.StateResponse, error) {
	c, err := s.lookup(owner, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return &domain.StateResponse{
		ConversationID: id,
		State:          c.asker.Session().Fields(),
	}, nil
}

// End descarta a conversa.
func (s *ConversationService) End(owner, id string) error {
	if _, err := s.lookup(owner, id); err != nil {
		return err
	}
	s.store.Delete(id)
	s.metrics.SetActiveConversations(s.store.Len())
	s.logger.Info("conversation ended", zap.String("conversation_id", id))
	return nil
}

// lookup trata conversa de outro dono como inexistente.
func (s *ConversationService) lookup(owner, id string) (*conversation, error) {
	c, ok := s.store.Get(id)
	if !ok || c.info.Owner != owner {
		return nil, &maindomain.ErrNotFound{Resource: "conversation", ID: id}
	}
	return c, nil
}

// askWithPolicy aplica bulkhead, métricas e a política de re-envio.
// Cada tentativa é um Ask novo, então o token é recalculado.
func (s *ConversationService) askWithPolicy(ctx context.Context, asker port.Asker, question string) (string, error) {
	if err := s.bulkhead.Acquire(ctx); err != nil {
		return "", err
	}
	defer s.bulkhead.Release()

	var answer string
	err := resilience.RetryIf(ctx, s.retry, isRejection, func() error {
		start := time.Now()
		a, err := asker.Ask(ctx, question)
		s.metrics.RecordAsk(outcomeOf(err), time.Since(start))
		if err != nil {
			return err
		}
		answer = a
		return nil
	})
	return answer, err
}

func isRejection(err error) bool {
	var rejection *maindomain.ErrRejection
	return errors.As(err, &rejection)
}

func outcomeOf(err error) string {
	var rejection *maindomain.ErrRejection
	var circuitOpen *maindomain.ErrCircuitOpen

	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.As(err, &rejection) && rejection.Denied:
		return observability.OutcomeDenied
	case errors.As(err, &rejection):
		return observability.OutcomeRejected
	case errors.As(err, &circuitOpen):
		return observability.OutcomeCircuit
	default:
		return observability.OutcomeTransport
	}
}
