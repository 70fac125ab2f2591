package handler

import (
	"net/http"

	"payment-orchestrator/internal/core/domain/ports"
	"payment-orchestrator/internal/core/usecase"
)

// RegisterAll wires every API route onto the mux with auth and metrics
// applied per route group.
func RegisterAll(mux *http.ServeMux, f *usecase.Factory, authenticator ports.TokenAuthenticator) {
	auth := AuthMiddleware(authenticator)

	NewTransactionHandler(f.Send, f.Get, f.List).RegisterRoutes(mux, auth)
	NewAccountHandler(f.CreateAccount, f.GetAccount, f.Deposit).RegisterRoutes(mux, auth)
}
