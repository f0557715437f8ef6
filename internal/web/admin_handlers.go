package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evcraddock/commentboard/internal/auth"
	"github.com/evcraddock/commentboard/internal/comment"
)

type loginData struct {
	Error string
}

type adminData struct {
	Comments []*comment.Comment
}

type editData struct {
	Comment          *comment.Comment
	Error            string
	Name             string
	Text             string
	MaxNameLength    int
	MaxCommentLength int
}

// idHandler receives a comment id already parsed from the path.
type idHandler func(w http.ResponseWriter, r *http.Request, id int64)

// requireAdmin lets authenticated requests through. Anonymous GETs get
// the login prompt; anything else anonymous is unauthorized.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Authenticated(r) {
			s.denyAnonymous(w, r)
			return
		}
		next(w, r)
	}
}

// withCommentID parses {id}. Non-numeric ids are not an admin route at
// all and get the fallback treatment.
func (s *Server) withCommentID(next idHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.PathValue("id")
		if !isDigits(raw) {
			s.handleAdminFallback(w, r)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		next(w, r, id)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (s *Server) denyAnonymous(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		s.render(w, http.StatusOK, "login", loginData{})
		return
	}
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// handleAdminFallback answers admin paths no route claims.
func (s *Server) handleAdminFallback(w http.ResponseWriter, r *http.Request) {
	if s.auth.Authenticated(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	s.denyAnonymous(w, r)
}

// handleAdminGet shows the login prompt or, once signed in, every comment.
func (s *Server) handleAdminGet(w http.ResponseWriter, r *http.Request) {
	if !s.auth.Authenticated(r) {
		s.render(w, http.StatusOK, "login", loginData{})
		return
	}

	comments, err := s.comments.ListAll(r.Context())
	if err != nil {
		serverError(w, r, "loading comments", err)
		return
	}
	s.render(w, http.StatusOK, "admin", adminData{Comments: comments})
}

// handleAdminPost logs in. An already authenticated session has nothing
// to post here.
func (s *Server) handleAdminPost(w http.ResponseWriter, r *http.Request) {
	if s.auth.Authenticated(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	token, err := s.auth.Login(r.Context(), r.PostFormValue("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.metrics.Login(false)
		slog.WarnContext(r.Context(), "admin login failed")
		s.render(w, http.StatusUnauthorized, "login", loginData{Error: "Invalid password."})
		return
	}
	if err != nil {
		serverError(w, r, "creating admin session", err)
		return
	}

	s.metrics.Login(true)
	auth.SetCookie(w, token)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// handleLogout always clears the cookie, whether or not a session exists.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(w, r); err != nil {
		slog.ErrorContext(r.Context(), "revoking admin session", "error", err)
	}
	s.render(w, http.StatusOK, "logout", nil)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request, id int64) {
	c, err := s.comments.GetByID(r.Context(), id)
	if errors.Is(err, comment.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "loading comment", err)
		return
	}
	s.renderEdit(w, http.StatusOK, editData{Comment: c, Name: c.Name, Text: c.Text})
}

// handleEditSubmit re-validates the fields but skips the duplicate and
// moderation checks.
func (s *Server) handleEditSubmit(w http.ResponseWriter, r *http.Request, id int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	in := comment.Normalize(r.PostFormValue("name"), r.PostFormValue("comment"))
	if err := comment.Validate(in); err != nil {
		var verr *comment.ValidationError
		if !errors.As(err, &verr) {
			serverError(w, r, "validating comment", err)
			return
		}
		c, err := s.comments.GetByID(r.Context(), id)
		if errors.Is(err, comment.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			serverError(w, r, "loading comment", err)
			return
		}
		s.renderEdit(w, http.StatusBadRequest, editData{
			Comment: c,
			Error:   verr.Error(),
			Name:    r.PostFormValue("name"),
			Text:    r.PostFormValue("comment"),
		})
		return
	}

	err := s.comments.Update(r.Context(), id, in.Name, in.Text)
	if errors.Is(err, comment.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "updating comment", err)
		return
	}

	slog.InfoContext(r.Context(), "comment edited", "id", id)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// handleDelete removes a comment. Absent ids are not an error.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.comments.Delete(r.Context(), id); err != nil {
		serverError(w, r, "deleting comment", err)
		return
	}
	slog.InfoContext(r.Context(), "comment deleted", "id", id)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) renderEdit(w http.ResponseWriter, status int, data editData) {
	data.MaxNameLength = comment.MaxNameLength
	data.MaxCommentLength = comment.MaxCommentLength
	s.render(w, status, "edit", data)
}
