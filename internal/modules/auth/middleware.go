package auth

import (
	"net/http"
	"strings"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

// Middleware resolves the bearer token into a session on the request context.
// Requests without a token proceed as the guest; a bad token is rejected.
func Middleware(service Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				respond(w, http.StatusUnauthorized, map[string]string{"error": "expected a bearer token"})
				return
			}
			sess, err := service.Parse(strings.TrimSpace(token))
			if err != nil {
				respond(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(user.WithSession(r.Context(), sess)))
		})
	}
}
