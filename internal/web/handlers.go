package web

import (
	"net/http"

	"github.com/evcraddock/commentboard/internal/comment"
	"github.com/evcraddock/commentboard/internal/fingerprint"
)

type publicData struct {
	Comments         []*comment.Comment
	Error            string
	Name             string
	Text             string
	MaxNameLength    int
	MaxCommentLength int
}

// handleList renders the public board.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.renderPublic(w, r, http.StatusOK, publicData{})
}

// handleSubmit runs a public submission through admission.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	name := r.PostFormValue("name")
	text := r.PostFormValue("comment")

	res, err := s.pipeline.Submit(r.Context(), name, text, fingerprint.FromRequest(r))
	if err != nil {
		serverError(w, r, "admitting comment", err)
		return
	}

	if !res.Accepted {
		s.renderPublic(w, r, http.StatusBadRequest, publicData{
			Error: res.Rejection.Reason,
			Name:  name,
			Text:  text,
		})
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) renderPublic(w http.ResponseWriter, r *http.Request, status int, data publicData) {
	comments, err := s.comments.ListAll(r.Context())
	if err != nil {
		serverError(w, r, "loading comments", err)
		return
	}
	data.Comments = comments
	data.MaxNameLength = comment.MaxNameLength
	data.MaxCommentLength = comment.MaxCommentLength
	s.render(w, status, "public", data)
}
