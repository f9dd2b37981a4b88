package service

import (
	"context"
	"time"

	"github.com/boddenberg/cleverbot-go/internal/chat/domain"
	"github.com/boddenberg/cleverbot-go/internal/chat/port"
	maindomain "github.com/boddenberg/cleverbot-go/internal/domain"
	"github.com/boddenberg/cleverbot-go/internal/infra/observability"
	"github.com/boddenberg/cleverbot-go/internal/infra/resilience"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Speakers of a dialogue. Bob opens; every reply alternates between them.
const (
	SpeakerBob   = "Bob"
	SpeakerAlice = "Alice"
)

const defaultOpening = "Hello."

// DialogueService põe duas sessões independentes para conversar entre si.
// Cada lado tem o seu próprio Asker; nada é compartilhado entre eles.
type DialogueService struct {
	factory  port.AskerFactory
	bulkhead *resilience.Bulkhead
	maxTurns int
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewDialogueService cria o serviço de diálogo.
func NewDialogueService(
	factory port.AskerFactory,
	bulkhead *resilience.Bulkhead,
	maxTurns int,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DialogueService {
	return &DialogueService{
		factory:  factory,
		bulkhead: bulkhead,
		maxTurns: maxTurns,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run produz turns respostas. A abertura é dita por Bob e respondida pela
// sessão de Alice; cada resposta é repassada para a outra sessão.
//
// Ao primeiro erro, devolve o transcript até ali junto com o erro.
func (s *DialogueService) Run(ctx context.Context, opening string, turns int) (*domain.Transcript, error) {
	ctx, span := chatTracer.Start(ctx, "DialogueService.Run")
	defer span.End()

	if turns < 1 || turns > s.maxTurns {
		return nil, &maindomain.ErrValidation{Field: "turns", Message: "must be between 1 and the configured maximum"}
	}
	if opening == "" {
		opening = defaultOpening
	}

	transcript := &domain.Transcript{
		ID:    uuid.NewString(),
		Lines: []domain.Line{{Speaker: SpeakerBob, Text: opening}},
	}
	span.SetAttributes(
		attribute.String("dialogue.id", transcript.ID),
		attribute.Int("dialogue.turns", turns),
	)
	s.metrics.IncrDialogue()

	// alice responde ao que Bob diz e vice-versa.
	alice, bob := s.factory(nil), s.factory(nil)

	said := opening
	for i := 0; i < turns; i++ {
		asker, speaker := alice, SpeakerAlice
		if i%2 == 1 {
			asker, speaker = bob, SpeakerBob
		}

		reply, err := s.ask(ctx, asker, said)
		if err != nil {
			s.logger.Warn("dialogue stopped",
				zap.String("dialogue_id", transcript.ID),
				zap.Int("lines", len(transcript.Lines)),
				zap.Error(err),
			)
			transcript.Error = err.Error()
			return transcript, err
		}

		transcript.Lines = append(transcript.Lines, domain.Line{Speaker: speaker, Text: reply})
		said = reply
	}

	return transcript, nil
}

func (s *DialogueService) ask(ctx context.Context, asker port.Asker, question string) (string, error) {
	if err := s.bulkhead.Acquire(ctx); err != nil {
		return "", err
	}
	defer s.bulkhead.Release()

	start := time.Now()
	reply, err := asker.Ask(ctx, question)
	s.metrics.RecordAsk(outcomeOf(err), time.Since(start))
	return reply, err
}
