// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - RedisCounter: janela fixa compartilhada (SET NX PX + INCR + PTTL em MULTI/EXEC)
//   - Store: token bucket local por chave usando golang.org/x/time/rate (fallback)
//   - RedisStatsStore / MemoryStatsStore: estatísticas de decisão
//   - ChanPool: semáforo simples para limite de concorrência
package infra
