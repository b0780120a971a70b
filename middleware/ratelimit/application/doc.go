// Package application contém os casos de uso (regras de aplicação) para admissão
// e limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, key) consulta todas as janelas em paralelo e retorna
// uma Decision (allow/deny + retry-after).
package application
