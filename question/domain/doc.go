// Package domain define os tipos da geração de perguntas: a requisição saneada,
// as mensagens enviadas ao provedor e os tipos de erro.
//
// Não depende de net/http; o cliente HTTP do provedor fica em infra.
package domain
