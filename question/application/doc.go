// Package application contém o caso de uso de geração de perguntas:
// validação e saneamento da entrada, montagem do prompt e a chamada única ao
// provedor sob prazo fixo.
package application
