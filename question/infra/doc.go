// Package infra implementa domain.Completer sobre a API de chat completions
// (formato OpenAI).
package infra
