package application

import (
	"strings"
	"unicode/utf8"

	"github.com/lgsantiago/social-icebreaker-api/question/domain"
)

const (
	MsgMissingFields = "Missing topic or participant"
	MsgInvalidTypes  = "Invalid data types"
	MsgEmptyInput    = "Empty or invalid input"
)

// ParseRequest valida os campos já decodificados do JSON (map[string]any) e
// devolve a requisição saneada.
//
// Campo ausente, null, "", false ou 0 conta como ausente; qualquer outro valor
// não textual é tipo inválido. Textos longos são truncados, não rejeitados.
func ParseRequest(fields map[string]any) (domain.Request, error) {
	topics, topicsOK := fields["topics"]
	participant, participantOK := fields["participant"]
	if !topicsOK || !participantOK || isFalsy(topics) || isFalsy(participant) {
		return domain.Request{}, domain.NewInputError(MsgMissingFields)
	}

	t, ok1 := topics.(string)
	p, ok2 := participant.(string)
	if !ok1 || !ok2 {
		return domain.Request{}, domain.NewInputError(MsgInvalidTypes)
	}

	req := domain.Request{
		Topics:      Sanitize(t, domain.MaxTopicsLen),
		Participant: Sanitize(p, domain.MaxParticipantLen),
	}
	if req.Topics == "" || req.Participant == "" {
		return domain.Request{}, domain.NewInputError(MsgEmptyInput)
	}
	return req, nil
}

// Sanitize remove espaços das pontas e corta em max caracteres (runas).
func Sanitize(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	}
	return false
}
