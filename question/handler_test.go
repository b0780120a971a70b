package question_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lgsantiago/social-icebreaker-api/question"
	"github.com/lgsantiago/social-icebreaker-api/question/application"
	"github.com/lgsantiago/social-icebreaker-api/question/domain"
	"github.com/lgsantiago/social-icebreaker-api/question/infra"
)

func newHandler(t *testing.T, upstreamURL string, timeout time.Duration) *question.Handler {
	t.Helper()
	client := infra.NewOpenAIClient(infra.Config{BaseURL: upstreamURL, APIKey: "sk-test"})
	gen := application.Generator{Completer: client, Timeout: timeout}
	return question.NewHandler(gen, application.ParseRequest, zaptest.NewLogger(t))
}

func generate(h *question.Handler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/generate-question", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Generate(w, r)
	return w
}

func TestGenerate_ReturnsTrimmedQuestion(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" Hello, Bob! "}}]}`))
	}))
	defer upstream.Close()

	w := generate(newHandler(t, upstream.URL, time.Second), `{"topics":"travel","participant":"Bob"}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"question":"Hello, Bob!"}`, w.Body.String())
}

func TestGenerate_InvalidInputNeverCallsUpstream(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer upstream.Close()
	h := newHandler(t, upstream.URL, time.Second)

	cases := map[string]struct {
		body    string
		message string
	}{
		"missing topics":    {`{"participant":"Bob"}`, "Missing topic or participant"},
		"missing both":      {`{}`, "Missing topic or participant"},
		"numeric topics":    {`{"topics":7,"participant":"Bob"}`, "Invalid data types"},
		"array participant": {`{"topics":"travel","participant":["Bob"]}`, "Invalid data types"},
		"whitespace":        {`{"topics":"   ","participant":"Bob"}`, "Empty or invalid input"},
		"not json":          {`topics=travel`, "Invalid JSON body"},
		"json array":        {`["travel","Bob"]`, "Invalid JSON body"},
		"json null":         {`null`, "Missing topic or participant"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := generate(h, tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.JSONEq(t, `{"error":"`+tc.message+`"}`, w.Body.String())
		})
	}
	require.Zero(t, calls.Load())
}

func TestGenerate_OversizedInputIsTruncatedNotRejected(t *testing.T) {
	var gotReq domain.Request
	gen := generatorFunc(func(_ context.Context, req domain.Request) (string, error) {
		gotReq = req
		return "q", nil
	})
	h := question.NewHandler(gen, application.ParseRequest, nil)

	body := `{"topics":"` + strings.Repeat("t", 700) + `","participant":"` + strings.Repeat("p", 300) + `"}`
	w := generate(h, body)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gotReq.Topics, 500)
	require.Len(t, gotReq.Participant, 100)
}

func TestGenerate_UpstreamTimeoutReturns408(t *testing.T) {
	cancelled := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		close(cancelled)
	}))
	defer upstream.Close()

	w := generate(newHandler(t, upstream.URL, 50*time.Millisecond), `{"topics":"travel","participant":"Bob"}`)

	require.Equal(t, http.StatusRequestTimeout, w.Code)
	require.JSONEq(t, `{"error":"Request timeout"}`, w.Body.String())
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("expected upstream call to be cancelled")
	}
}

func TestGenerate_ConnectionRefusedReturns500(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	w := generate(newHandler(t, url, time.Second), `{"topics":"travel","participant":"Bob"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"OpenAI request failed"}`, w.Body.String())
}

func TestGenerate_UpstreamErrorsReturn500(t *testing.T) {
	bodies := map[string]struct {
		status int
		body   string
	}{
		"non-2xx":   {http.StatusTooManyRequests, `{"error":{"message":"quota"}}`},
		"malformed": {http.StatusOK, `{"unexpected":true}`},
	}
	for name, tc := range bodies {
		t.Run(name, func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer upstream.Close()

			w := generate(newHandler(t, upstream.URL, time.Second), `{"topics":"travel","participant":"Bob"}`)

			require.Equal(t, http.StatusInternalServerError, w.Code)
			require.JSONEq(t, `{"error":"OpenAI request failed"}`, w.Body.String())
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	question.MethodNotAllowed(w, httptest.NewRequest(http.MethodGet, "/generate-question", nil))

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, http.MethodPost, w.Header().Get("Allow"))
	require.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
}

type generatorFunc func(ctx context.Context, req domain.Request) (string, error)

func (f generatorFunc) Generate(ctx context.Context, req domain.Request) (string, error) {
	return f(ctx, req)
}
