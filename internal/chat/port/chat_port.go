// Package port define as interfaces (ports) usadas pelo serviço de chat.
//
// O ConversationService depende dessas interfaces e NÃO do client concreto,
// o que permite testar o serviço sem rede.
package port

import (
	"context"

	"github.com/boddenberg/cleverbot-go/internal/chat/domain"
)

// Asker é uma parte da conversa: um client com a sua própria sessão.
// Implementações não precisam ser seguras para uso concorrente.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
	Session() *domain.Session
}

// AskerFactory cria um Asker novo. initial == nil significa estado padrão.
type AskerFactory func(initial *domain.Session) Asker
