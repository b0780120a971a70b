package application

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/lgsantiago/social-icebreaker-api/question/domain"
)

const DefaultTimeout = 10 * time.Second

// Generator faz exatamente uma chamada ao Completer por pergunta, sem retry.
type Generator struct {
	Completer domain.Completer
	Timeout   time.Duration
}

// Generate devolve a pergunta sem espaços nas pontas.
//
// Ao estourar o prazo a chamada em voo é cancelada e o erro é ErrTimeout.
// Qualquer outra falha de transporte vira ErrUpstreamUnavailable.
func (g Generator) Generate(ctx context.Context, req domain.Request) (string, error) {
	if g.Completer == nil {
		return "", errors.WithMessage(domain.ErrUpstreamUnavailable, "completer is not configured")
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := g.Completer.Complete(callCtx, BuildMessages(req))
	if err != nil {
		return "", classify(callCtx, err)
	}
	return strings.TrimSpace(text), nil
}

func classify(callCtx context.Context, err error) error {
	switch {
	case errors.Is(callCtx.Err(), context.DeadlineExceeded), errors.Is(err, domain.ErrTimeout):
		return errors.Wrap(domain.ErrTimeout, err.Error())
	case errors.Is(err, domain.ErrUpstreamMalformed), errors.Is(err, domain.ErrUpstreamUnavailable):
		return err
	default:
		return errors.Wrap(domain.ErrUpstreamUnavailable, err.Error())
	}
}
