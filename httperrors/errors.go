// Package httperrors traduz falhas para o envelope JSON {"error": "..."}.
//
// A mensagem para o usuário fica separada do erro interno, que só vai para o log.
package httperrors

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

type HttpError struct {
	statusCode  int
	userMessage string
	err         error
}

func New(statusCode int, userMessage string, internalError error) HttpError {
	if internalError == nil {
		internalError = errors.New(userMessage)
	}
	return HttpError{
		statusCode:  statusCode,
		userMessage: userMessage,
		err:         internalError,
	}
}

func (e HttpError) Error() string {
	return e.err.Error()
}

func (e HttpError) Unwrap() error {
	return e.err
}

func (e HttpError) StatusCode() int {
	return e.statusCode
}

func (e HttpError) UserMessage() string {
	return e.userMessage
}

func (e HttpError) WriteError(w http.ResponseWriter) error {
	return WriteJSON(w, e.statusCode, map[string]string{"error": e.userMessage})
}

// WriteJSON escreve qualquer corpo JSON com o status informado.
func WriteJSON(w http.ResponseWriter, statusCode int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(body)
}
