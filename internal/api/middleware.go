package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/sells-group/icp-engine/internal/apperr"
)

type contextKey string

const userIDKey contextKey = "userID"

// userID returns the authenticated user ID attached by the middleware.
func userID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// authenticate extracts the bearer token, verifies it against the auth
// provider, and attaches the resulting user ID to the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			s.writeError(w, apperr.Authentication("Missing authorization header"))
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		id, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			s.writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}
