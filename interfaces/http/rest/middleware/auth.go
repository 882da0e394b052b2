package middleware

import (
	stderrors "errors"
	"net/http"
	"slices"
	"strings"

	"salesadmin/pkg/auth"
	"salesadmin/pkg/errors"
)

// TokenValidator checks a bearer token and returns its claims
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Authenticate requires a valid admin bearer token and puts the caller in
// the request context
func Authenticate(tokens TokenValidator, errHandler *errors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errHandler.Handle(w, r, errors.NewUnauthorizedError("missing authorization header").WithCode("MISSING_TOKEN"))
				return
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				switch {
				case stderrors.Is(err, auth.ErrExpiredToken):
					errHandler.Handle(w, r, errors.NewUnauthorizedError("token has expired").WithCode("TOKEN_EXPIRED"))
				case stderrors.Is(err, auth.ErrInvalidSignature):
					errHandler.Handle(w, r, errors.NewUnauthorizedError("invalid token signature").WithCode("INVALID_TOKEN"))
				default:
					errHandler.Handle(w, r, errors.NewUnauthorizedError("invalid token").WithCode("INVALID_TOKEN"))
				}
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				Username: claims.Username,
				Roles:    claims.Roles,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets through callers holding any of roles
func RequireRole(errHandler *errors.ErrorHandler, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				errHandler.Handle(w, r, errors.NewUnauthorizedError("unauthorized"))
				return
			}

			if !slices.ContainsFunc(user.Roles, func(role string) bool { return slices.Contains(roles, role) }) {
				errHandler.HandleStatus(w, r, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads a bearer token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// ClientIP extracts the client IP address
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
