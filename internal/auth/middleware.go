package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionChecker reports whether the session behind a token is still live
type SessionChecker interface {
	SessionActive(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	tokens   *TokenManager
	sessions SessionChecker
	apiKey   string
	logger   *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(tokens *TokenManager, sessions SessionChecker, apiKey string, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens:   tokens,
		sessions: sessions,
		apiKey:   apiKey,
		logger:   logger,
	}
}

// Authenticate requires a valid Bearer token backed by a live session, or a
// valid x-api-key for system callers
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
			if m.validateAPIKey(apiKey) {
				ctx := WithUserContext(r.Context(), systemUser())
				m.logger.Info("request authenticated",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("auth_type", "api_key"),
					zap.Duration("auth_duration", time.Since(start)),
				)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			m.logger.Warn("invalid API key attempt",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			writeError(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "Invalid API key")
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "Missing or malformed authorization header")
			return
		}

		userCtx, err := m.authenticateToken(r.Context(), token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeError(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "Session is invalid or has expired")
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("auth_type", "jwt"),
			zap.String("user_id", userCtx.UserID.String()),
			zap.String("user_type", string(userCtx.UserType)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
	})
}

// OptionalAuthenticate attaches a user context when a valid token is
// present and otherwise lets the request through anonymously
func (m *Middleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			userCtx, err := m.authenticateToken(r.Context(), token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
				return
			}
			m.logger.Debug("optional auth: token validation failed, continuing unauthenticated",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSystem only lets API key callers through
func (m *Middleware) RequireSystem(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := FromContext(r.Context())
		if !ok || !userCtx.IsSystem {
			writeError(w, http.StatusForbidden, domain.ErrorTypeForbidden, "System access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUserType ensures the signed-in account is one of the given types
func (m *Middleware) RequireUserType(types ...domain.UserType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok || userCtx.IsSystem {
				writeError(w, http.StatusForbidden, domain.ErrorTypeForbidden, "No user context")
				return
			}
			for _, t := range types {
				if userCtx.UserType == t {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, domain.ErrorTypeForbidden, "This action is not available for your account type")
		})
	}
}

func (m *Middleware) authenticateToken(ctx context.Context, token string) (*UserContext, error) {
	userCtx, err := m.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if m.sessions != nil {
		active, err := m.sessions.SessionActive(ctx, userCtx.SessionID)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, ErrExpiredToken
		}
	}
	return userCtx, nil
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}

func systemUser() *UserContext {
	return &UserContext{
		UserID:   SystemUserID,
		Email:    "system",
		IsSystem: true,
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func writeError(w http.ResponseWriter, status int, errType, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
