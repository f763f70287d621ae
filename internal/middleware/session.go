package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookie names the cookie carrying the opaque UI session id.
const SessionCookie = "ui_session"

type ctxKey struct{}

// EnsureSession reuses the UI session id from the cookie or issues a new
// one, and injects it into the request context.
func EnsureSession(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					sid = cookie.Value
				}
			}
			if sid == "" {
				sid = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(ttl / time.Second),
			})

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sid)))
		})
	}
}

// WithSessionID returns ctx carrying the UI session id.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxKey{}, sid)
}

// SessionID returns the UI session id set by EnsureSession, or "".
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(ctxKey{}).(string)
	return sid
}
