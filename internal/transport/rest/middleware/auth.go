package middleware

import (
	"context"
	"net/http"
	"strings"

	"codeclive/internal/model"
	"codeclive/internal/service"
)

type contextKey string

const IdentityKey contextKey = "identity"

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc  *service.AuthService
	required bool
}

// NewAuthMiddleware creates a new auth middleware. When required is false,
// requests without a token pass through anonymously.
func NewAuthMiddleware(authSvc *service.AuthService, required bool) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc, required: required}
}

// RequireUser validates a user JWT from the Authorization header
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			if !m.required {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		identity, err := m.authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity extracts the caller from context; nil for anonymous requests
func GetIdentity(ctx context.Context) *model.Identity {
	if v, ok := ctx.Value(IdentityKey).(*model.Identity); ok {
		return v
	}
	return nil
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
