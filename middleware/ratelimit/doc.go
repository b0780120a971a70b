// Package ratelimit fornece adapters HTTP (net/http) para admissão por janelas e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny em paralelo por janela, acquire/timeout)
//   - infra: implementações concretas (Redis, token bucket local, semáforo, estatísticas)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo em POST /generate-question:
//
//  1. Extrai a chave do cliente (X-Forwarded-For ou "unknown")
//  2. Chama a camada application para obter a decisão (janelas curta e longa)
//  3. Se bloqueado, responde 429 {"error":"Rate limit exceeded"}; sem vaga de concorrência, 503
//  4. Se permitido, chama o próximo handler (geração da pergunta)
//
// Variáveis de ambiente do binário (cmd/server) controlam o comportamento,
// como RATE_SHORT_LIMIT, RATE_LONG_LIMIT, RATE_FAIL_MODE e CONCURRENCY_MAX.
package ratelimit
