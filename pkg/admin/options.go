package admin

import (
	"log/slog"
)

// Option configures an API.
type Option func(*API)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		if log != nil {
			a.log = log
		}
	}
}

// WithVersion sets the version reported by GET /health and the OpenAPI document.
func WithVersion(version string) Option {
	return func(a *API) {
		a.version = version
	}
}

// WithHostname sets the interface the admin listener binds to.
func WithHostname(hostname string) Option {
	return func(a *API) {
		if hostname != "" {
			a.hostname = hostname
		}
	}
}

// WithCORS sets the CORS configuration.
func WithCORS(cfg CORSConfig) Option {
	return func(a *API) {
		a.corsConfig = cfg
	}
}
