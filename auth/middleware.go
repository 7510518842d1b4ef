package auth

import (
	"context"
	crmerrors "crm-realtime/errors"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// Middleware rejects requests without a valid token with 401.
// The token is read from the Authorization header, or from the "token" query parameter
// since browsers cannot set headers on a WebSocket handshake.
func Middleware(signer *Signer, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearer(r)
			if tokenStr == "" {
				http.Error(w, crmerrors.ErrUnauthenticated.Error(), http.StatusUnauthorized)
				return
			}
			claims, err := signer.ValidateToken(tokenStr)
			if err != nil {
				log.Debug("Token rejected", "remote", r.RemoteAddr, "error", err)
				http.Error(w, crmerrors.ErrUnauthenticated.Error(), http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user of the request, "" when the gate is off.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func bearer(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}
