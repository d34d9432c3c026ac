package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/ender-catalog-be/internal/apperr"
	"github.com/isdelr/ender-catalog-be/internal/services"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
	defaultSummaryDays   = 30
	maxSummaryDays       = 365
)

// UserHandler handles the authenticated user's own resources.
type UserHandler struct {
	service services.AccountServiceProvider
	respond *Responder
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.AccountServiceProvider, respond *Responder) *UserHandler {
	return &UserHandler{service: service, respond: respond}
}

// Profile returns the authenticated user's profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.respond)
	if !ok {
		return
	}
	profile, err := h.service.Profile(r.Context(), user)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]any{"user": newUserView(profile)})
}

// Activity returns the authenticated user's recent activity.
func (h *UserHandler) Activity(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.respond)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", defaultActivityLimit)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	limit = min(limit, maxActivityLimit)

	entries, err := h.service.Activity(r.Context(), user, limit)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]any{"activities": entries})
}

// ActivitySummary returns per-action counts over the last days days.
func (h *UserHandler) ActivitySummary(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.respond)
	if !ok {
		return
	}

	days, err := queryInt(r, "days", defaultSummaryDays)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	if days > maxSummaryDays {
		h.respond.Error(w, r, apperr.Validation("days", "days must be at most 365"))
		return
	}

	summary, err := h.service.ActivitySummary(r.Context(), user, days)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]any{"summary": summary})
}

// queryInt parses a positive integer query parameter, returning fallback when it is absent.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, apperr.Validation(name, name+" must be a positive integer")
	}
	return v, nil
}
