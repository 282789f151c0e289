package httpapi

import (
	"net/http"
	"strings"

	"paddock.events/internal/auth"
)

const (
	sessionCookie = "paddock_session"
	authHeader    = "Authorization"
	bearer        = "Bearer "
)

// withSession resolves the session token (cookie or bearer header) to the
// authenticated admin user and attaches it to the request context. Requests
// without a valid session pass through untouched; every protected operation
// fails closed when no principal is present.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := a.auth.Resolve(r.Context(), token)
		if err != nil {
			// Invalid token behaves like no token at all.
			next.ServeHTTP(w, r)
			return
		}
		ctx := auth.ContextWithUser(r.Context(), user)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}
