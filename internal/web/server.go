// Package web provides the HTTP server and handlers for the comment board.
package web

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evcraddock/commentboard/internal/admission"
	"github.com/evcraddock/commentboard/internal/auth"
	"github.com/evcraddock/commentboard/internal/comment"
	"github.com/evcraddock/commentboard/internal/lock"
	"github.com/evcraddock/commentboard/internal/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// maxFormBytes caps form bodies well above the largest valid submission.
const maxFormBytes = 64 << 10

// Config wires the server's collaborators. Locker and Metrics are optional.
type Config struct {
	Auth      *auth.Authenticator
	Moderator admission.Moderator
	Locker    lock.Locker
	Metrics   *metrics.Metrics
}

// Server is the comment board HTTP server.
type Server struct {
	comments  *comment.Repository
	pipeline  *admission.Pipeline
	auth      *auth.Authenticator
	metrics   *metrics.Metrics
	templates *template.Template
	mux       *http.ServeMux
	now       func() time.Time
}

// NewServer creates a web server with the given database.
func NewServer(db *sql.DB, cfg Config) (*Server, error) {
	if cfg.Auth == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if cfg.Moderator == nil {
		return nil, fmt.Errorf("moderator is required")
	}

	repo := comment.NewRepository(db)
	opts := []admission.Option{admission.WithMetrics(cfg.Metrics)}
	if cfg.Locker != nil {
		opts = append(opts, admission.WithLocker(cfg.Locker))
	}

	s := &Server{
		comments: repo,
		pipeline: admission.New(repo, cfg.Moderator, opts...),
		auth:     cfg.Auth,
		metrics:  cfg.Metrics,
		mux:      http.NewServeMux(),
		now:      time.Now,
	}

	funcMap := template.FuncMap{
		"ago": func(t time.Time) string { return relativeTime(s.now(), t) },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	s.templates = tmpl

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	s.routes(http.FileServer(http.FS(staticContent)))
	return s, nil
}

// routes registers the route table. Patterns are matched by the
// standard mux; handlers only check what a pattern cannot express.
func (s *Server) routes(static http.Handler) {
	s.mux.HandleFunc("GET /health", handleHealth)
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", static))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.mux.HandleFunc("GET /{$}", s.handleList)
	s.mux.HandleFunc("GET /comments", s.handleList)
	s.mux.HandleFunc("POST /{$}", s.handleSubmit)
	s.mux.HandleFunc("POST /comments", s.handleSubmit)

	s.mux.HandleFunc("GET /admin", s.handleAdminGet)
	s.mux.HandleFunc("POST /admin", s.handleAdminPost)
	s.mux.HandleFunc("POST /admin/logout", s.handleLogout)
	s.mux.HandleFunc("GET /admin/{id}/edit", s.requireAdmin(s.withCommentID(s.handleEditForm)))
	s.mux.HandleFunc("POST /admin/{id}/edit", s.requireAdmin(s.withCommentID(s.handleEditSubmit)))
	s.mux.HandleFunc("POST /admin/{id}/delete", s.requireAdmin(s.withCommentID(s.handleDelete)))

	// Anything else under /admin, including other methods on /admin itself.
	s.mux.HandleFunc("/admin", s.handleAdminFallback)
	s.mux.HandleFunc("/admin/", s.handleAdminFallback)

	s.mux.HandleFunc("/", s.handleUnmatched)
}

// handleUnmatched sends paths like /adminfoo to the admin fallback and
// everything else to 404.
func (s *Server) handleUnmatched(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/admin") {
		s.handleAdminFallback(w, r)
		return
	}
	http.NotFound(w, r)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Error("writing health response", "error", err)
	}
}

// render executes the named page template with the given status.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
	}
}

// serverError logs err and replies with a generic 500.
func serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, "path", r.URL.Path, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func relativeTime(now, t time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}

	minutes := int(d / time.Minute)
	hours := minutes / 60
	days := hours / 24
	years := days / 365

	switch {
	case years > 0:
		return plural(years, "year")
	case days > 0:
		return plural(days, "day")
	case hours > 0:
		return plural(hours, "hour")
	case minutes > 0:
		return plural(minutes, "minute")
	default:
		return "a few seconds ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
