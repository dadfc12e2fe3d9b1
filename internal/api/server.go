package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/skillhub/internal/config"
	"github.com/terra-clan/skillhub/internal/i18n"
	"github.com/terra-clan/skillhub/internal/notify"
	"github.com/terra-clan/skillhub/internal/skills"
)

// InquirySender delivers contact form submissions
type InquirySender interface {
	Send(ctx context.Context, inquiry notify.Inquiry) error
	HealthCheck(ctx context.Context) map[string]error
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	manager        skills.Manager
	inquiries      InquirySender
	bundle         *i18n.Bundle
	metrics        *Metrics
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	manager skills.Manager,
	inquiries InquirySender,
	bundle *i18n.Bundle,
	verifier TokenVerifier,
	metrics *Metrics,
) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	s := &Server{
		config:         cfg,
		manager:        manager,
		inquiries:      inquiries,
		bundle:         bundle,
		metrics:        metrics,
		authMiddleware: NewAuthMiddleware(verifier, bundle),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(i18n.Middleware)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Language"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Probes and metrics (outside versioned API)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())

	auth := s.authMiddleware

	r.Route("/api/v1", func(r chi.Router) {
		// Anonymous callers may browse; a bearer token identifies the caller
		r.Use(auth.Identify)

		r.Route("/skills", func(r chi.Router) {
			r.Get("/", s.handleListSkills)
			r.With(auth.RequirePermission(skills.PermSkillsWrite)).Post("/", s.handleCreateSkill)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSkill)
				r.With(auth.RequirePermission(skills.PermSkillsWrite)).Patch("/", s.handleUpdateSkill)
				r.With(auth.RequireUser).Post("/like", s.handleToggleLike)

				r.Get("/comments", s.handleListComments)
				r.With(auth.RequireUser).Post("/comments", s.handleSubmitComment)
				r.With(auth.RequireUser).Delete("/comments/{commentId}", s.handleDeleteComment)
			})
		})

		r.With(auth.RequireUser).Get("/me/likes", s.handleLikedSkills)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Get("/{id}", s.handleGetCategory)
		})

		r.Post("/inquiries", s.handleSendInquiry)
		r.Get("/translations/{locale}", s.handleTranslations)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", requestID(r),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
