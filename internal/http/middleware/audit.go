package middleware

import (
	"net/http"
	"strings"

	"github.com/aimarketspace/marketplace-api/internal/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuditConfig holds configuration for audit middleware
type AuditConfig struct {
	// SkipPaths contains path prefixes that should not be audited
	SkipPaths []string
	// SkipMethods contains HTTP methods that should not be audited
	SkipMethods []string
	// AuditReads enables auditing of GET requests (defaults to false)
	AuditReads bool
}

// DefaultAuditConfig returns default audit configuration
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		SkipPaths: []string{
			"/health",
			"/metrics",
			"/swagger",
			"/media",
		},
		SkipMethods: []string{
			http.MethodOptions,
			http.MethodHead,
		},
		AuditReads: false,
	}
}

// AuditAction describes the kind of change a request made
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionRead   AuditAction = "read"
)

// AuditMiddleware writes one structured "audit" log line per successful
// state-changing request, naming the acting user and the entity touched.
// Request bodies are never logged.
type AuditMiddleware struct {
	config *AuditConfig
	logger *zap.Logger
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(config *AuditConfig, logger *zap.Logger) *AuditMiddleware {
	if config == nil {
		config = DefaultAuditConfig()
	}
	return &AuditMiddleware{
		config: config,
		logger: logger.Named("audit"),
	}
}

// Audit returns middleware that records modifications
func (m *AuditMiddleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.shouldAudit(r) {
			next.ServeHTTP(w, r)
			return
		}

		rw := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.logAudit(r, rw.statusCode)
	})
}

// shouldAudit determines if a request should be audited
func (m *AuditMiddleware) shouldAudit(r *http.Request) bool {
	for _, method := range m.config.SkipMethods {
		if r.Method == method {
			return false
		}
	}

	if r.Method == http.MethodGet && !m.config.AuditReads {
		return false
	}

	for _, skipPath := range m.config.SkipPaths {
		if strings.HasPrefix(r.URL.Path, skipPath) {
			return false
		}
	}

	return true
}

func (m *AuditMiddleware) logAudit(r *http.Request, statusCode int) {
	// Only log successful modifications
	if statusCode < 200 || statusCode >= 300 {
		return
	}

	action := methodToAction(r.Method)
	if action == "" {
		return
	}

	entityType, entityID := extractEntityInfo(r)

	fields := []zap.Field{
		zap.String("action", string(action)),
		zap.String("entity_type", entityType),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status_code", statusCode),
	}
	if entityID != "" {
		fields = append(fields, zap.String("entity_id", entityID))
	}
	if userCtx, ok := auth.FromContext(r.Context()); ok {
		fields = append(fields,
			zap.String("actor", userCtx.Actor()),
			zap.String("user_id", userCtx.UserID.String()),
		)
	} else {
		fields = append(fields, zap.String("actor", "anonymous"))
	}

	m.logger.Info("audit", fields...)
}

// methodToAction converts HTTP method to audit action
func methodToAction(method string) AuditAction {
	switch method {
	case http.MethodPost:
		return AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return AuditActionUpdate
	case http.MethodDelete:
		return AuditActionDelete
	case http.MethodGet:
		return AuditActionRead
	default:
		return ""
	}
}

// extractEntityInfo extracts entity type and ID from the matched route
func extractEntityInfo(r *http.Request) (string, string) {
	routeCtx := chi.RouteContext(r.Context())
	if routeCtx == nil {
		return parseEntityFromPath(r.URL.Path), ""
	}

	entityID := routeCtx.URLParam("id")
	if entityID == "" {
		entityID = routeCtx.URLParam("userId")
	}

	pattern := routeCtx.RoutePattern()
	if pattern == "" {
		pattern = r.URL.Path
	}
	return parseEntityFromPath(pattern), entityID
}

// parseEntityFromPath maps the most specific known path segment to an entity type
func parseEntityFromPath(path string) string {
	entityMap := map[string]string{
		"auth":            "Session",
		"creator-profile": "CreatorProfile",
		"avatar":          "CreatorAvatar",
		"creators":        "CreatorProfile",
		"verification":    "BusinessProfile",
		"verifications":   "BusinessProfile",
		"posts":           "BusinessPost",
		"requests":        "PendingRequest",
		"consent":         "CookieConsent",
		"support":         "SupportMessage",
		"webhooks":        "WebhookDelivery",
	}

	entity := ""
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if entityType, ok := entityMap[part]; ok {
			entity = entityType
		}
	}
	if entity != "" {
		return entity
	}
	if strings.TrimSuffix(path, "/") == "/api/v1/me" {
		return "Account"
	}
	return "Unknown"
}

// responseCapture wraps ResponseWriter to capture the status code
type responseCapture struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseCapture) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
