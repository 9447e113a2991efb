// Package api provides the HTTP API server and handlers for the Shelfwise library.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shelfwise/shelfwise-server/internal/ratelimit"
	"github.com/shelfwise/shelfwise-server/internal/search"
	"github.com/shelfwise/shelfwise-server/internal/store/sqlite"
)

const defaultLoginPerMinute = 10

// Options tunes the HTTP layer.
type Options struct {
	CORSOrigins    []string
	LoginPerMinute int
	AIPerMinute    int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        *sqlite.Store
	index        *search.Index
	services     *Services
	router       chi.Router
	api          huma.API
	logger       *slog.Logger
	loginLimiter *ratelimit.KeyedLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *sqlite.Store, index *search.Index, services *Services, opts Options, logger *slog.Logger) *Server {
	if opts.LoginPerMinute <= 0 {
		opts.LoginPerMinute = defaultLoginPerMinute
	}

	s := &Server{
		store:        store,
		index:        index,
		services:     services,
		router:       chi.NewRouter(),
		logger:       logger,
		loginLimiter: ratelimit.PerMinute("login", opts.LoginPerMinute),
	}

	s.setupMiddleware(opts)
	s.setupAPI()
	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.loginLimiter.Stop()
}

func (s *Server) setupMiddleware(opts Options) {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(authMiddleware(s.services.Auth))
	s.router.Use(s.aiRateLimit(opts.AIPerMinute))
}

func (s *Server) setupAPI() {
	humaConfig := huma.DefaultConfig("Shelfwise API", "1.0.0")
	humaConfig.Info.Description = "Library catalog with personal recommendations and an AI reading assistant"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()
	s.api.UseMiddleware(s.authorize)
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerReviewRoutes()
	s.registerMeRoutes()
	s.registerRecommendationRoutes()
	s.registerAssistantRoutes()
	s.registerAdminRoutes()

	s.router.Handle("/metrics", promhttp.Handler())
}

// bearer is the security requirement of authenticated operations.
var bearer = []map[string][]string{{"bearer": {}}}
