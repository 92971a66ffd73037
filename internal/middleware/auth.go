package middleware

import (
	"context"
	"net/http"

	"github.com/lmoran/recipe-keeper/internal/auth"
)

type contextKey string

// userIDKey carries the authenticated user's id through the request context.
const userIDKey contextKey = "user_id"

// UserID returns the authenticated user id set by RequireAuth, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithUserID returns a context carrying the given user id. Used by tests and
// RequireAuth itself.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Unauthorized"}`))
}

// RequireAuth validates the session cookie, checks the session still points
// at an existing user, and injects the user id into the request context.
// A session whose user no longer exists is treated as unauthenticated.
func RequireAuth(sessions auth.Sessions, users auth.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				unauthorized(w)
				return
			}

			userID, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil || userID == "" {
				unauthorized(w)
				return
			}

			if _, err := users.GetUserByID(r.Context(), userID); err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
