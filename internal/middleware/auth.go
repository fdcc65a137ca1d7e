package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/marlonjr14/pokemon-api/internal/auth"
	"github.com/marlonjr14/pokemon-api/internal/response"
	"github.com/sirupsen/logrus"
)

const bearerPrefix = "Bearer "

const (
	MsgTokenMissing = "Token is missing!"
	MsgTokenExpired = "Token has expired!"
	MsgTokenInvalid = "Token is invalid!"
)

type contextKey string

const usernameKey contextKey = "username"

// TokenVerifier resolves a bearer token to the username it was issued for
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// token's username in the request context for the wrapped handler
func AuthMiddleware(verifier TokenVerifier, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.Error(w, r, http.StatusUnauthorized, MsgTokenMissing)
				return
			}

			// The scheme is optional; a bare token is accepted as well.
			token := strings.TrimPrefix(header, bearerPrefix)

			username, err := verifier.Verify(token)
			if err != nil {
				log.WithFields(logrus.Fields{"path": r.URL.Path, "error": err}).Warn("token rejected")
				if errors.Is(err, auth.ErrTokenExpired) {
					response.Error(w, r, http.StatusUnauthorized, MsgTokenExpired)
					return
				}
				response.Error(w, r, http.StatusUnauthorized, MsgTokenInvalid)
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UsernameFromContext returns the authenticated username set by AuthMiddleware
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}
