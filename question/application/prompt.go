package application

import (
	"fmt"

	"github.com/lgsantiago/social-icebreaker-api/question/domain"
)

const (
	SystemPrompt = "You're an AI icebreaker generator."

	userPromptTemplate = "Generate a fun, thought-provoking icebreaker question for a group game. " +
		"The question should be addressed to %s and relate to the following topics: %s."
)

// BuildMessages interpola participante e tópicos no prompt sem escapar nada.
// O texto do usuário chega ao modelo como veio (após saneamento).
func BuildMessages(req domain.Request) []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: SystemPrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf(userPromptTemplate, req.Participant, req.Topics)},
	}
}
