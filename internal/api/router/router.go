// Package router provides HTTP routing configuration using Chi.
package router

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/remiblancher/sigalg/internal/api/handler"
	"github.com/remiblancher/sigalg/internal/api/middleware"
	"github.com/remiblancher/sigalg/pkg/policy"
)

//go:embed openapi.yaml
var openapiSpec []byte

// DefaultMaxBodyBytes bounds request bodies when Config leaves it unset.
const DefaultMaxBodyBytes = 1 << 20

// Config holds router configuration.
type Config struct {
	Version string
	Policy  *policy.Policy
	Logger  *zap.Logger

	// MaxBodyBytes caps request bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pol := cfg.Policy
	if pol == nil {
		pol = policy.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody == 0 {
		maxBody = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.MaxBodySize(maxBody))

	// Health endpoints
	healthHandler := handler.NewHealthHandler(cfg.Version, pol.Name)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// OpenAPI spec
	r.Get("/api/openapi.yaml", serveOpenAPISpec)

	sigalgHandler := handler.NewSigAlgHandler(pol, logger.Named("sigalg"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/algorithms", sigalgHandler.Algorithms)
		r.Post("/classify", sigalgHandler.Classify)
		r.Post("/certificates/inspect", sigalgHandler.Inspect)
		r.Post("/channel-binding", sigalgHandler.ChannelBinding)
	})

	return r
}

// serveOpenAPISpec serves the OpenAPI specification file.
func serveOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapiSpec)
}
