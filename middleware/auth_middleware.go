package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/upb/account-service/internal/auth"
	"github.com/upb/account-service/models"
	"github.com/upb/account-service/services"
	"github.com/upb/account-service/utils"
	"go.uber.org/zap"
)

// Rejection messages
const (
	msgUnauthorized = "Unauthorized"
	msgForbidden    = "Forbidden"
)

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	verifier auth.TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier auth.TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// RequireAuth admits requests carrying a valid bearer token.
// No token is 401; a token that fails verification is 403.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		identity, decision, err := auth.Authenticate(extractBearerToken(r), m.verifier)
		switch decision {
		case auth.Admitted:
		case auth.RejectedUnauthenticated:
			m.logger.Warn("missing token",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, msgUnauthorized)
			return
		default:
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Bool("expired", errors.Is(err, auth.ErrTokenExpired)),
				zap.Error(err))
			_ = utils.WriteForbidden(w, msgForbidden)
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", identity.UserID),
			zap.Stringer("role", identity.Role))

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
	})
}

// RequireRole admits an authenticated caller whose role is one of roles.
// It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity := GetIdentityFromContext(ctx)

			if !m.admit(w, r, auth.RequireRoles(identity, roles...)) {
				return
			}

			m.logger.Debug("role check passed",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.Stringer("role", identity.Role))

			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOrAdmin admits admins, and users whose id equals the URL
// parameter param. It must run after RequireAuth.
func (m *AuthMiddleware) RequireOwnerOrAdmin(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentityFromContext(r.Context())
			if !m.admit(w, r, auth.CanAccessAccount(identity, chi.URLParam(r, param))) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// admit writes the rejection for a non-admitted decision and reports whether
// the request may proceed
func (m *AuthMiddleware) admit(w http.ResponseWriter, r *http.Request, decision auth.Decision) bool {
	requestID := GetRequestIDFromContext(r.Context())

	switch decision {
	case auth.Admitted:
		return true
	case auth.RejectedUnauthenticated:
		m.logger.Error("identity not found in context",
			zap.String("request_id", requestID))
		_ = utils.WriteUnauthorized(w, msgUnauthorized)
	default:
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
		}
		if identity := GetIdentityFromContext(r.Context()); identity != nil {
			fields = append(fields, zap.String("user_id", identity.UserID), zap.Stringer("role", identity.Role))
		}
		m.logger.Warn("insufficient permissions", fields...)
		_ = utils.WriteForbidden(w, services.ErrForbidden.Message)
	}
	return false
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
