package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"salesadmin/interfaces/http/rest/middleware"
	"salesadmin/pkg/auth"
	"salesadmin/pkg/errors"
	"salesadmin/pkg/utils"
)

// LoginAttemptsPerMinute bounds login attempts from one IP
const LoginAttemptsPerMinute = 10

// LoginRequest is the admin login body
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresAt string `json:"expiresAt"`
}

// AuthHandler issues admin tokens
type AuthHandler struct {
	credentials auth.AdminCredentials
	tokens      *auth.TokenService
	limiter     auth.RateLimiter
	errors      *errors.ErrorHandler
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	credentials auth.AdminCredentials,
	tokens *auth.TokenService,
	limiter auth.RateLimiter,
	errHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		tokens:      tokens,
		limiter:     limiter,
		errors:      errHandler,
		logger:      logger,
	}
}

// Login handles POST /auth/login. A successful login clears the caller's
// attempt budget.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := middleware.ClientIP(r)
	if allowed, _ := h.limiter.Allow(r.Context(), ip); !allowed {
		h.errors.Handle(w, r, errors.NewRateLimitError(LoginAttemptsPerMinute, "minute"))
		return
	}

	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	username := strings.TrimSpace(req.Username)
	if err := h.credentials.Check(username, req.Password); err != nil {
		h.logger.Warn("Rejected admin login", zap.String("username", username), zap.String("ip", ip))
		h.errors.Handle(w, r, errors.NewUnauthorizedError("invalid username or password").WithCode("INVALID_CREDENTIALS"))
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(username, []string{auth.RoleAdmin})
	if err != nil {
		h.errors.Handle(w, r, errors.Wrap(err, "failed to issue token"))
		return
	}
	_ = h.limiter.Reset(r.Context(), ip)

	h.logger.Info("Admin logged in", zap.String("username", username))
	respondJSON(w, h.logger, http.StatusOK, LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: utils.FormatRFC3339(expiresAt),
	})
}
