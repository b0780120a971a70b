// Servidor falso de chat completions para testar o /generate-question localmente
// sem chamar a OpenAI. Use OPENAI_BASE_URL=http://localhost:8081/v1 no servidor.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	// FAKE_DELAY=12s força o caminho de timeout (408) do servidor principal
	var delay time.Duration
	if v := os.Getenv("FAKE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Fatal("FAKE_DELAY inválido", zap.String("value", v), zap.Error(err))
		}
		delay = d
	}

	http.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		logger.Info("completion recebida",
			zap.String("model", req.Model),
			zap.Int("messages", len(req.Messages)),
			zap.String("client_request_id", r.Header.Get("X-Client-Request-Id")),
		)

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				logger.Info("cliente desistiu antes da resposta")
				return
			}
		}

		prompt := ""
		if n := len(req.Messages); n > 0 {
			prompt = req.Messages[n-1].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]string{
					"role":    "assistant",
					"content": fmt.Sprintf("  (fake) Se você pudesse escolher, o que faria? [%d chars de prompt]  ", len(prompt)),
				},
			}},
		})
	})

	logger.Info("servidor falso rodando", zap.String("addr", "http://localhost:8081/v1"))
	if err := http.ListenAndServe(":8081", nil); err != nil {
		logger.Fatal("erro ao subir o servidor", zap.Error(err))
	}
}
