// Package question expõe a geração de perguntas via HTTP:
//
//	POST /generate-question  {"topics": "...", "participant": "..."} -> {"question": "..."}
//	GET  /generate-question  -> 405
//
// Toda resposta é JSON; erros viram {"error": "..."} com o status correspondente.
package question
