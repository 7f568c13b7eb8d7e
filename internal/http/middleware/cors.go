package middleware

import (
	"net/http"

	"github.com/aimarketspace/marketplace-api/internal/config"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Headers the web client always needs, whatever the configuration says
var (
	requiredAllowedHeaders = []string{"Authorization", "Content-Type", "X-API-Key", RequestIDHeader}
	requiredExposedHeaders = []string{"Location", "Retry-After", RequestIDHeader}
)

func isDevelopment(environment string) bool {
	return environment == "development" || environment == "local" || environment == ""
}

// CORS returns a CORS middleware configured from the application config
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   mergeHeaders(cfg.AllowedHeaders, requiredAllowedHeaders),
		ExposedHeaders:   mergeHeaders(cfg.ExposedHeaders, requiredExposedHeaders),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	wildcard := false
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			wildcard = true
			break
		}
	}

	switch {
	case wildcard:
		if !isDevelopment(environment) {
			logger.Warn("CORS configured with wildcard origin in non-development environment",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAnyOrigin
	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins",
			zap.Strings("origins", cfg.AllowedOrigins))
	case isDevelopment(environment):
		options.AllowOriginFunc = allowAnyOrigin
		logger.Info("CORS configured to allow all origins in development mode")
	default:
		// An empty AllowedOrigins means "*" to go-chi/cors, so deny explicitly
		options.AllowOriginFunc = func(r *http.Request, origin string) bool {
			return false
		}
		logger.Warn("CORS configured with no allowed origins - all cross-origin requests will be denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func allowAnyOrigin(r *http.Request, origin string) bool {
	return origin != ""
}

// mergeHeaders appends required headers missing from configured, comparing
// case-insensitively
func mergeHeaders(configured, required []string) []string {
	seen := make(map[string]bool, len(configured))
	out := make([]string, 0, len(configured)+len(required))
	for _, h := range configured {
		key := http.CanonicalHeaderKey(h)
		if !seen[key] {
			seen[key] = true
			out = append(out, h)
		}
	}
	for _, h := range required {
		if !seen[http.CanonicalHeaderKey(h)] {
			out = append(out, h)
		}
	}
	return out
}
