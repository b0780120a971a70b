package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lgsantiago/social-icebreaker-api/middleware/requestlog"
	"github.com/lgsantiago/social-icebreaker-api/question/domain"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4"

	maxErrorSnippet = 512
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// OpenAIClient faz um POST por chamada; o prazo vem do ctx.
type OpenAIClient struct {
	cfg    Config
	hc     *http.Client
	logger *zap.Logger
}

type OpenAIOption func(*OpenAIClient)

func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *OpenAIClient) { c.hc = hc }
}

func WithLogger(logger *zap.Logger) OpenAIOption {
	return func(c *OpenAIClient) { c.logger = logger }
}

func NewOpenAIClient(cfg Config, opts ...OpenAIOption) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	c := &OpenAIClient{
		cfg:    cfg,
		hc:     &http.Client{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.Completer = (*OpenAIClient)(nil)

type chatRequest struct {
	Model    string           `json:"model"`
	Messages []domain.Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	logger := requestlog.Logger(ctx, c.logger)
	endpoint := c.cfg.BaseURL + "/chat/completions"

	body, err := json.Marshal(chatRequest{Model: c.cfg.Model, Messages: messages})
	if err != nil {
		return "", errors.WithMessage(err, "marshal chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(domain.ErrUpstreamUnavailable, err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if id := requestlog.RequestID(ctx); id != "" {
		req.Header.Set("X-Client-Request-Id", id)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", errors.Wrap(domain.ErrTimeout, err.Error())
		}
		return "", errors.Wrap(domain.ErrUpstreamUnavailable, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
		logger.Warn("completion provider non-2xx",
			zap.Int("status", resp.StatusCode),
			zap.String("model", c.cfg.Model),
			zap.String("x_request_id", resp.Header.Get("X-Request-Id")),
			zap.ByteString("body", snippet),
		)
		return "", errors.Wrapf(domain.ErrUpstreamUnavailable, "chat status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", errors.Wrap(domain.ErrTimeout, err.Error())
		}
		return "", errors.Wrap(domain.ErrUpstreamMalformed, err.Error())
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return "", errors.Wrap(domain.ErrUpstreamMalformed, "no choices[0].message.content")
	}

	logger.Debug("completion provider ok", zap.String("model", c.cfg.Model), zap.Int("choices", len(out.Choices)))
	return *out.Choices[0].Message.Content, nil
}
