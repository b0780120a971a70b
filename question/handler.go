package question

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lgsantiago/social-icebreaker-api/httperrors"
	"github.com/lgsantiago/social-icebreaker-api/middleware/requestlog"
	"github.com/lgsantiago/social-icebreaker-api/question/domain"
)

const (
	MsgInvalidJSON      = "Invalid JSON body"
	MsgTimeout          = "Request timeout"
	MsgUpstreamFailed   = "OpenAI request failed"
	MsgMethodNotAllowed = "Method not allowed"
	defaultMaxBodyBytes = 64 << 10
)

type Generator interface {
	Generate(ctx context.Context, req domain.Request) (string, error)
}

// RequestParser valida o corpo decodificado; em produção é application.ParseRequest.
type RequestParser func(fields map[string]any) (domain.Request, error)

type Handler struct {
	gen     Generator
	parse   RequestParser
	logger  *zap.Logger
	maxBody int64
}

func NewHandler(gen Generator, parse RequestParser, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{gen: gen, parse: parse, logger: logger, maxBody: defaultMaxBodyBytes}
}

type response struct {
	Question string `json:"question"`
}

// Generate atende POST /generate-question. A admissão já aconteceu no middleware.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(w http.ResponseWriter, r *http.Request) error {
		var fields map[string]any
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody)).Decode(&fields); err != nil {
			return httperrors.New(http.StatusBadRequest, MsgInvalidJSON, errors.WithMessage(err, "decode body"))
		}

		req, err := h.parse(fields)
		if err != nil {
			return err
		}

		question, err := h.gen.Generate(r.Context(), req)
		if err != nil {
			return err
		}
		return httperrors.WriteJSON(w, http.StatusOK, response{Question: question})
	})
}

// MethodNotAllowed responde 405 em JSON para qualquer método além de POST.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	_ = httperrors.New(http.StatusMethodNotAllowed, MsgMethodNotAllowed, nil).WriteError(w)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, fn func(http.ResponseWriter, *http.Request) error) {
	err := fn(w, r)
	if err == nil {
		return
	}

	httpErr := toHttpError(err)
	logger := requestlog.Logger(r.Context(), h.logger)
	if httpErr.StatusCode() >= http.StatusInternalServerError || httpErr.StatusCode() == http.StatusRequestTimeout {
		logger.Error("generate question failed", zap.Int("status", httpErr.StatusCode()), zap.Error(err))
	} else {
		logger.Info("generate question rejected", zap.Int("status", httpErr.StatusCode()), zap.Error(err))
	}

	if writeErr := httpErr.WriteError(w); writeErr != nil {
		logger.Debug("write error response", zap.Error(writeErr))
	}
}

func toHttpError(err error) httperrors.HttpError {
	var httpErr httperrors.HttpError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var inErr *domain.InputError
	switch {
	case errors.As(err, &inErr):
		return httperrors.New(http.StatusBadRequest, inErr.Message, err)
	case errors.Is(err, domain.ErrTimeout):
		return httperrors.New(http.StatusRequestTimeout, MsgTimeout, err)
	default:
		return httperrors.New(http.StatusInternalServerError, MsgUpstreamFailed, err)
	}
}
