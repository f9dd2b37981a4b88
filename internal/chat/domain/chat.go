package domain

import "time"

// ============================================================
// Conversas: Request/Response entre o chamador e o serviço
// ============================================================

// StartRequest é o body de POST /v1/conversations.
// State é opcional: quando presente, a conversa é retomada a partir dele
// (mesma ordem de campos exportada por GET /state).
type StartRequest struct {
	State []Field `json:"state,omitempty"`
}

// Conversation descreve uma conversa ativa.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	Owner     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	Turns     int       `json:"turns"`
}

// AskRequest é o body de POST /v1/conversations/{id}/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse devolve o texto da resposta e o que foi aprendido no turno.
type AskResponse struct {
	ConversationID string `json:"conversation_id"`
	Answer         string `json:"answer"`
	SessionID      string `json:"session_id,omitempty"`
	Turn           int    `json:"turn"`
}

// StateResponse é o estado exportado, pronto para ser reenviado em StartRequest.
type StateResponse struct {
	ConversationID string  `json:"conversation_id"`
	State          []Field `json:"state"`
}

// ============================================================
// Diálogo: dois clientes independentes conversando entre si
// ============================================================

// DialogueRequest é o body de POST /v1/dialogues.
type DialogueRequest struct {
	Opening string `json:"opening"`
	Turns   int    `json:"turns"`
}

// Line é uma fala do diálogo.
type Line struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Transcript é o resultado de um diálogo. Error vem preenchido quando o
// diálogo parou antes de completar os turnos pedidos.
type Transcript struct {
	ID    string `json:"dialogue_id"`
	Lines []Line `json:"lines"`
	Error string `json:"error,omitempty"`
}
