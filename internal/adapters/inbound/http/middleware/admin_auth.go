package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const adminIDKey contextKey = "admin_id"

const adminRole = "admin"

// AdminClaims is the bearer token shape accepted on admin routes. The admin id travels in sub.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth admits requests carrying an HS256 token signed with secret whose role is admin.
// With an empty secret every admin request is refused.
func AdminAuth(secret string, logger *log.Logger) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(key) == 0 {
				writeAuthError(w, http.StatusServiceUnavailable, "admin_auth_not_configured", "admin authentication is not configured")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, "admin_token_missing", "authorization bearer token is required")
				return
			}
			rawToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			claims := &AdminClaims{}
			token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				if logger != nil {
					logger.Printf("admin_token_rejected path=%s error=%v", r.URL.Path, err)
				}
				writeAuthError(w, http.StatusUnauthorized, "admin_token_invalid", "admin token is invalid")
				return
			}

			adminID := strings.TrimSpace(claims.Subject)
			if claims.Role != adminRole || adminID == "" {
				writeAuthError(w, http.StatusForbidden, "admin_role_required", "admin role is required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdminID(r.Context(), adminID)))
		})
	}
}

func WithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, adminIDKey, adminID)
}

func AdminIDFromContext(ctx context.Context) (string, bool) {
	adminID, ok := ctx.Value(adminIDKey).(string)
	return adminID, ok && adminID != ""
}

// IssueAdminToken signs a token for adminID. It backs local tooling and tests.
func IssueAdminToken(secret string, adminID string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = adminID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Role:             adminRole,
		RegisteredClaims: claims,
	})
	return token.SignedString([]byte(secret))
}

func writeAuthError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
