package handlers

import (
	"net/http"
	"time"

	"github.com/isdelr/ender-catalog-be/internal/apperr"
	"github.com/isdelr/ender-catalog-be/internal/auth"
	"github.com/isdelr/ender-catalog-be/internal/models"
	"github.com/isdelr/ender-catalog-be/internal/services"
	"github.com/rs/zerolog/log"
)

// SessionCookies issues and clears the token cookie.
type SessionCookies interface {
	SetCookie(w http.ResponseWriter, token string, expiresAt time.Time)
	ClearCookie(w http.ResponseWriter)
}

// AuthHandler handles signup, login and logout.
type AuthHandler struct {
	service services.AccountServiceProvider
	cookies SessionCookies
	respond *Responder
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.AccountServiceProvider, cookies SessionCookies, respond *Responder) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookies, respond: respond}
}

// Signup handles new user registration.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload services.SignupInput
	if err := decodeJSON(w, r, &payload); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	user, err := h.service.Signup(r.Context(), payload)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User signed up")
	h.respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "User signup successfully",
		"user":    newUserView(user),
	})
}

// Login verifies credentials and sets the token cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload services.LoginInput
	if err := decodeJSON(w, r, &payload); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	res, err := h.service.Login(r.Context(), payload)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.cookies.SetCookie(w, res.Token, res.ExpiresAt)
	h.respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    newUserView(res.User),
	})
}

// Logout clears the token cookie. The token itself stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.respond)
	if !ok {
		return
	}

	h.service.Logout(r.Context(), user)
	h.cookies.ClearCookie(w)
	h.respond.JSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// currentUser returns the identity attached by the auth middleware, writing a 401 when
// the route was mounted without it.
func currentUser(w http.ResponseWriter, r *http.Request, respond *Responder) (models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, r, apperr.New(apperr.ErrUnauthenticated, "Unauthorized: token missing"))
		return models.User{}, false
	}
	return user, true
}
