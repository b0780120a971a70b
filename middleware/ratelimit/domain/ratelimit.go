package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"strings"
	"time"
)

// Key identifica o chamador (ex: IP encaminhado ou "unknown").
type Key string

// UnknownKey agrupa todos os chamadores sem identificação em um único bucket.
const UnknownKey Key = "unknown"

// Window é uma janela fixa: no máximo Limit admissões a cada Period.
type Window struct {
	Name   string
	Limit  int64
	Period time.Duration
}

// WindowCount é o estado de uma janela logo após o incremento.
type WindowCount struct {
	Count int64
	// TTL é o tempo restante até a janela expirar. Zero quando desconhecido.
	TTL time.Duration
}

// WindowCounter incrementa atomicamente o contador (key, window), criando-o
// com expiração = window.Period quando ausente.
//
// Todo incremento consome uma vaga, mesmo que a requisição acabe rejeitada.
type WindowCounter interface {
	Increment(ctx context.Context, key Key, w Window) (WindowCount, error)
}

// Limiter representa algo que pode decidir se uma ação é permitida agora.
//
// Usado como fallback local quando o contador compartilhado está fora do ar.
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por chave (ex: IP, API key, usuário).
// A implementação pode manter cache, TTL, etc.
type LimiterStore interface {
	Get(Key) Limiter
}

// FailMode define o que fazer quando o WindowCounter devolve erro.
type FailMode string

const (
	// FailLocal consulta um LimiterStore em memória (padrão).
	FailLocal FailMode = "local"
	// FailOpen admite a requisição.
	FailOpen FailMode = "open"
	// FailClosed rejeita a requisição.
	FailClosed FailMode = "closed"
)

// ParseFailMode aceita "local", "open" ou "closed" (case-insensitive).
func ParseFailMode(s string) (FailMode, bool) {
	switch FailMode(strings.ToLower(strings.TrimSpace(s))) {
	case FailLocal:
		return FailLocal, true
	case FailOpen:
		return FailOpen, true
	case FailClosed:
		return FailClosed, true
	}
	return "", false
}

// WindowResult é o resultado de uma janela dentro de uma Decision.
type WindowResult struct {
	Window  Window
	Count   int64
	TTL     time.Duration
	Allowed bool
}

// Remaining devolve quantas admissões ainda cabem na janela.
func (r WindowResult) Remaining() int64 {
	if rem := r.Window.Limit - r.Count; rem > 0 {
		return rem
	}
	return 0
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
	// Windows vem vazio quando a decisão foi tomada sem o contador compartilhado.
	Windows []WindowResult
	// Degraded indica que o contador compartilhado falhou e o FailMode foi aplicado.
	Degraded bool
}
