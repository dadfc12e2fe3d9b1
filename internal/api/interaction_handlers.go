package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/skillhub/internal/models"
	"github.com/terra-clan/skillhub/internal/skills"
)

// Like and comment handlers

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := PrincipalFromContext(r.Context())

	result, err := s.manager.ToggleLike(r.Context(), p, id)
	if err != nil {
		s.respondServiceError(w, r, err, "failed to toggle like", "skill_id", id, "user_id", p.MaskedUserID())
		return
	}

	if result.Liked {
		s.metrics.Interaction(interactionLike)
	} else {
		s.metrics.Interaction(interactionUnlike)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	comments, err := s.manager.ListComments(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err, "failed to list comments", "skill_id", id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"comments": comments,
		"total":    len(comments),
	})
}

func (s *Server) handleSubmitComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := PrincipalFromContext(r.Context())

	var in skills.CommentInput
	if !s.decodeJSON(w, r, &in) {
		return
	}

	result, err := s.manager.SubmitComment(r.Context(), p, id, in)
	if err != nil {
		s.respondServiceError(w, r, err, "failed to submit comment", "skill_id", id, "user_id", p.MaskedUserID())
		return
	}

	status := http.StatusOK
	if result.Action == models.CommentInserted {
		status = http.StatusCreated
		s.metrics.Interaction(interactionCommentInsert)
	} else {
		s.metrics.Interaction(interactionCommentUpdate)
	}
	respondJSON(w, status, result)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	commentID := chi.URLParam(r, "commentId")
	p := PrincipalFromContext(r.Context())

	deleted, err := s.manager.DeleteComment(r.Context(), p, id, commentID)
	if err != nil {
		s.respondServiceError(w, r, err, "failed to delete comment",
			"skill_id", id, "comment_id", commentID, "user_id", p.MaskedUserID())
		return
	}

	s.metrics.Interaction(interactionCommentDelete)
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleLikedSkills(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())

	liked, err := s.manager.LikedSkills(r.Context(), p)
	if err != nil {
		s.respondServiceError(w, r, err, "failed to list liked skills", "user_id", p.MaskedUserID())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"skills": liked,
		"total":  len(liked),
	})
}
