package domain

import "context"

const (
	MaxTopicsLen      = 500
	MaxParticipantLen = 100
)

// Request já validada e saneada: sem espaços nas pontas, truncada e não vazia.
type Request struct {
	Topics      string
	Participant string
}

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Completer envia mensagens ao provedor e devolve o texto da primeira escolha.
//
// Erros devem ser (ou embrulhar) ErrTimeout, ErrUpstreamUnavailable ou
// ErrUpstreamMalformed.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
