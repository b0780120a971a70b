// Package domain define contratos e tipos de domínio para admissão (rate limit) e concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
// Janelas, contadores e decisões ficam aqui; Redis e x/time/rate ficam em infra.
package domain
