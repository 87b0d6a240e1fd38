package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"coach-quiz-service/internal/app"
	"coach-quiz-service/internal/domain"
)

// UserHeader carries the authenticated user handle set by the auth proxy.
const UserHeader = "X-User-Id"

type identityKey struct{}

// RequireIdentity resolves the caller once per request. Handlers read it back with
// identityFrom and hand it to the services explicitly.
func RequireIdentity(resolver app.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(UserHeader))
			if userID == "" {
				// Browsers cannot set headers on websocket upgrades.
				userID = strings.TrimSpace(r.URL.Query().Get("userId"))
			}
			if userID == "" {
				writeError(w, fmt.Errorf("%w: missing %s", domain.ErrIdentityUnresolved, UserHeader))
				return
			}
			identity, err := resolver.Resolve(r.Context(), userID)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFrom(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(identityKey{}).(domain.Identity)
	return identity
}
