package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/skillhub/internal/models"
)

// Skill handlers

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := models.ListFilters{
		Keyword:    firstOf(q.Get("q"), q.Get("keyword")),
		CategoryID: firstOf(q.Get("category_id"), q.Get("categoryId")),
		Sort:       models.SortKey(q.Get("sort")),
		Page:       atoiOr(q.Get("page"), models.DefaultPage),
		Limit:      atoiOr(q.Get("limit"), models.DefaultLimit),
	}

	page, err := s.manager.List(r.Context(), filters)
	if err != nil {
		s.respondServiceError(w, r, err, "failed to list skills", "keyword", filters.Keyword)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := s.manager.Get(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err, "failed to get skill", "skill_id", id)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	var draft models.SkillDraft
	if !s.decodeJSON(w, r, &draft) {
		return
	}

	id, err := s.manager.Create(r.Context(), PrincipalFromContext(r.Context()), &draft)
	if err != nil {
		s.respondServiceError(w, r, err, "failed to create skill", "skill_id", id)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateSkill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.SkillPatch
	if !s.decodeJSON(w, r, &patch) {
		return
	}

	if err := s.manager.Update(r.Context(), PrincipalFromContext(r.Context()), id, &patch); err != nil {
		s.respondServiceError(w, r, err, "failed to update skill", "skill_id", id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func atoiOr(s string, fallback int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return fallback
}
