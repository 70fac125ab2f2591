package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"payment-orchestrator/internal/core/domain/ports"
)

type contextKey string

const accountIDKey contextKey = "account_id"

// AccountFromContext returns the account authenticated by AuthMiddleware.
func AccountFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDKey).(string)
	return id, ok
}

// AuthMiddleware resolves the bearer token to an account and stores the
// account id on the request context.
func AuthMiddleware(auth ports.TokenAuthenticator) func(http.Handler) http.Handler {
	var base BaseHandler
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				base.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			accountID, err := auth.Authenticate(r.Context(), token)
			if errors.Is(err, ports.ErrInvalidToken) {
				base.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
			if err != nil {
				base.RespondWithError(w, r, http.StatusInternalServerError, "internal server error", err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
