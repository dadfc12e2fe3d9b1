package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/skillhub/internal/i18n"
	"github.com/terra-clan/skillhub/internal/models"
	"github.com/terra-clan/skillhub/internal/notify"
)

// Category, translation and inquiry handlers

// categoryView is a category with its resolved display name and style
type categoryView struct {
	*models.Category
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func newCategoryView(c *models.Category, locale models.Locale) categoryView {
	style := c.Style()
	return categoryView{
		Category: c,
		Label:    c.Name.Resolve(locale),
		Icon:     style.Icon,
		Color:    style.Color,
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.manager.ListCategories(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err, "failed to list categories")
		return
	}

	locale := i18n.FromContext(r.Context())
	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, newCategoryView(c, locale))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"categories": views,
		"total":      len(views),
	})
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := s.manager.GetCategory(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err, "failed to get category", "category_id", id)
		return
	}

	respondJSON(w, http.StatusOK, newCategoryView(c, i18n.FromContext(r.Context())))
}

func (s *Server) handleTranslations(w http.ResponseWriter, r *http.Request) {
	locale, ok := models.ParseLocale(chi.URLParam(r, "locale"))
	var dict map[string]string
	if ok && s.bundle != nil {
		dict = s.bundle.Dictionary(locale)
	}
	if dict == nil {
		respondLocalizedError(w, r, s.bundle, http.StatusNotFound, codeNotFound, "error.not_found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"locale":   locale,
		"messages": dict,
	})
}

func (s *Server) handleSendInquiry(w http.ResponseWriter, r *http.Request) {
	if s.inquiries == nil {
		s.respondServiceError(w, r, notify.ErrNotConfigured, "inquiries disabled")
		return
	}

	var inquiry notify.Inquiry
	if !s.decodeJSON(w, r, &inquiry) {
		return
	}

	if err := s.inquiries.Send(r.Context(), inquiry); err != nil {
		var derr *notify.DeliveryError
		if errors.As(err, &derr) {
			s.respondServiceError(w, r, err, "inquiry delivery failed", "failed_sinks", derr.Failed())
			return
		}
		s.respondServiceError(w, r, err, "failed to send inquiry")
		return
	}

	s.metrics.Interaction(interactionInquiry)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": translate(r, s.bundle, "inquiry.received", inquiry.Name),
	})
}
