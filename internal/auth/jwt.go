package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/isdelr/ender-catalog-be/internal/apperr"
	"github.com/isdelr/ender-catalog-be/internal/models"
	"github.com/rs/zerolog/log"
)

// Claims defines the JWT claims structure.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Options configures a TokenManager.
type Options struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	SecureCookie bool
}

// TokenManager mints and verifies signed tokens and moves them in and out of cookies.
type TokenManager struct {
	secret       []byte
	ttl          time.Duration
	cookieName   string
	secureCookie bool
	now          func() time.Time
}

// NewTokenManager creates a TokenManager from explicit configuration.
func NewTokenManager(opts Options) *TokenManager {
	name := opts.CookieName
	if name == "" {
		name = "token"
	}
	return &TokenManager{
		secret:       []byte(opts.Secret),
		ttl:          opts.TTL,
		cookieName:   name,
		secureCookie: opts.SecureCookie,
		now:          time.Now,
	}
}

// TTL returns the lifetime of minted tokens.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Mint creates a new token binding a user ID and role. It returns the token and its expiry.
func (m *TokenManager) Mint(userID, role string) (string, time.Time, error) {
	now := m.now()
	expirationTime := now.Add(m.ttl)
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expirationTime, nil
}

// Verify parses and validates a token string. Any failure is apperr.ErrUnauthenticated.
func (m *TokenManager) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, apperr.New(apperr.ErrUnauthenticated, "Unauthorized: token missing")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, apperr.New(apperr.ErrUnauthenticated, "Unauthorized: invalid token")
	}
	return claims, nil
}

// SetCookie delivers the token as an HTTP-only cookie expiring with the token.
func (m *TokenManager) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie overwrites the token cookie with an expired, empty one. Tokens copied
// elsewhere stay valid until they expire.
func (m *TokenManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest reads the token from the cookie, falling back to a bearer header.
func (m *TokenManager) TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// UserLookup resolves the user a verified token refers to.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// ErrorResponder writes an error response for a rejected request.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// Middleware creates a middleware for protecting routes. On success the public view of
// the authenticated user is attached to the request context.
func (m *TokenManager) Middleware(users UserLookup, respond ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := m.Verify(m.TokenFromRequest(r))
			if err != nil {
				respond(w, r, err)
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					respond(w, r, apperr.New(apperr.ErrUnauthenticated, "Unauthorized: user not found"))
					return
				}
				respond(w, r, fmt.Errorf("auth lookup: %w", err))
				return
			}

			log.Debug().Str("user_id", user.ID).Str("role", user.Role).Msg("Authenticated request")
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user.Public())))
		})
	}
}

type contextKey string

const userContextKey = contextKey("authUser")

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user attached by Middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}
