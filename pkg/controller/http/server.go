package http

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pawnotes/pawnotes/pkg/usecase"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
	"github.com/pawnotes/pawnotes/pkg/utils/safe"
)

type Server struct {
	router         *chi.Mux
	uc             *usecase.UseCases
	staticFS       fs.FS
	allowedOrigins []string
}

type Options func(*Server)

// WithStaticFS serves a built single page application from fsys for every
// path not handled by the API
func WithStaticFS(fsys fs.FS) Options {
	return func(s *Server) {
		s.staticFS = fsys
	}
}

// WithAllowedOrigins lists origins allowed to open capture websockets in
// addition to the server's own origin
func WithAllowedOrigins(origins ...string) Options {
	return func(s *Server) {
		s.allowedOrigins = append(s.allowedOrigins, origins...)
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(uc.Auth))

		r.Get("/auth/me", authMeHandler())

		r.Get("/dashboard", dashboardHandler(uc.Case))
		r.Get("/templates", templatesHandler(uc.Note))

		r.Route("/cases", func(r chi.Router) {
			r.Get("/", listCasesHandler(uc.Case))
			r.Post("/", createCaseHandler(uc.Case))

			r.Route("/{caseID}", func(r chi.Router) {
				r.Get("/", getCaseHandler(uc.Case))
				r.Put("/", updateCaseHandler(uc.Case))
				r.Post("/status", changeStatusHandler(uc.Case))
				r.Put("/actions", saveActionsHandler(uc.Case))
				r.Post("/soap", generateSOAPHandler(uc.Note))
				r.Post("/export", exportCaseHandler(uc.Case))
				r.Get("/capture", captureHandler(uc.Capture, s.checkOrigin))
			})
		})

		r.Route("/emails", func(r chi.Router) {
			r.Get("/", listEmailsHandler(uc.Email))
			r.Post("/", sendEmailHandler(uc.Email))
		})

		r.Post("/assistant", assistantHandler(uc.Assistant))
	})

	if s.staticFS != nil {
		r.Get("/*", spaHandler(s.staticFS))
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// checkOrigin accepts same-origin requests, requests without an Origin
// header and the configured origins
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if strings.EqualFold(strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://"), r.Host) {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, usecase.Succeeded())
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// spaHandler handles SPA routing by serving static files and falling back to index.html
func spaHandler(staticFS fs.FS) http.HandlerFunc {
	fileServer := http.FileServer(http.FS(staticFS))

	return func(w http.ResponseWriter, r *http.Request) {
		urlPath := strings.TrimPrefix(r.URL.Path, "/")
		if urlPath == "" {
			urlPath = "index.html"
		}

		file, err := staticFS.Open(urlPath)
		if err != nil {
			// unknown paths belong to the client-side router
			index, err := fs.ReadFile(staticFS, "index.html")
			if err != nil {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			safe.Write(r.Context(), w, index)
			return
		}
		safe.Close(r.Context(), file)

		fileServer.ServeHTTP(w, r)
	}
}
