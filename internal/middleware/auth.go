package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rvvm-project/campusgate/internal/utils"
)

type contextKey string

const userContextKey contextKey = "user"

// AuthUser is the identity resolved from a bearer token.
type AuthUser struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// UserFromContext returns the authenticated user attached by Authenticate,
// or nil for unauthenticated requests.
func UserFromContext(ctx context.Context) *AuthUser {
	u, _ := ctx.Value(userContextKey).(*AuthUser)
	return u
}

func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// Authenticate verifies the Authorization bearer token and attaches the
// resolved identity to the request context. A missing token yields 401; an
// invalid or expired one yields 403, matching the public API contract.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				deny(w, http.StatusUnauthorized, "Access token is required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				deny(w, http.StatusUnauthorized, "Access token is required")
				return
			}

			claims, err := utils.ValidateToken(parts[1], jwtSecret)
			if err != nil {
				deny(w, http.StatusForbidden, "Invalid or expired token")
				return
			}

			user := &AuthUser{
				ID:    stringClaim(claims, "id"),
				Email: stringClaim(claims, "email"),
				Name:  stringClaim(claims, "name"),
				Role:  stringClaim(claims, "role"),
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose role is not in the allowed
// set. Must run after Authenticate.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				deny(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !allowed[user.Role] {
				deny(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
