package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ByLCY/splittext/config"
	"github.com/ByLCY/splittext/layout"
	"github.com/ByLCY/splittext/renderer"
)

// Server is the HTTP API for splitting markup and rendering previews.
type Server struct {
	router chi.Router
	ts     layout.Typesetter
	rnd    renderer.Renderer
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server. ts measures text for the
// line segmenter; rnd turns preview layouts into PDF bytes.
func NewServer(ts layout.Typesetter, rnd renderer.Renderer, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		ts:  ts,
		rnd: rnd,
		log: log,
		cfg: cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.Server.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.Server.APIKey, s.log))
		}

		r.Post("/api/split", s.handleSplit)
		r.Post("/api/render", s.handleRender)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
