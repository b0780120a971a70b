package domain

import "github.com/pkg/errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrTimeout             = errors.New("completion timeout")
	ErrUpstreamUnavailable = errors.New("completion service unavailable")
	ErrUpstreamMalformed   = errors.New("completion service returned malformed response")
)

// InputError carrega a mensagem devolvida ao cliente no 400.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func NewInputError(message string) error {
	return &InputError{Message: message}
}
