package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/ender-catalog-be/internal/apperr"
	"github.com/isdelr/ender-catalog-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager() *TokenManager {
	return NewTokenManager(Options{Secret: testSecret, TTL: 24 * time.Hour, CookieName: "token"})
}

type mockUserLookup struct {
	mock.Mock
}

func (m *mockUserLookup) GetByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func TestMintAndVerify(t *testing.T) {
	m := newTestManager()

	token, expiresAt, err := m.Mint("user-1", models.RoleUser)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestVerify_Expired(t *testing.T) {
	m := newTestManager()
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, _, err := m.Mint("user-1", models.RoleUser)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(23 * time.Hour) }
	_, err = m.Verify(token)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(25 * time.Hour) }
	_, err = m.Verify(token)
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
}

func TestVerify_TamperedSignature(t *testing.T) {
	m := newTestManager()
	token, _, err := m.Mint("user-1", models.RoleUser)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = m.Verify(tampered)
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
}

func TestVerify_Rejects(t *testing.T) {
	m := newTestManager()

	other := NewTokenManager(Options{Secret: "another-secret-another-secret", TTL: time.Hour})
	foreign, _, err := other.Mint("user-1", models.RoleUser)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "user-1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":          "",
		"malformed":      "not.a.jwt",
		"foreign secret": foreign,
		"alg none":       unsigned,
		"no expiry":      noExpiry,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(token)
			assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
		})
	}
}

func TestSetAndClearCookie(t *testing.T) {
	m := NewTokenManager(Options{Secret: testSecret, TTL: 24 * time.Hour, CookieName: "token", SecureCookie: true})

	w := httptest.NewRecorder()
	m.SetCookie(w, "abc", time.Now().Add(24*time.Hour))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "token", c.Name)
	assert.Equal(t, "abc", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 86400, c.MaxAge)

	w = httptest.NewRecorder()
	m.ClearCookie(w)
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestTokenFromRequest(t *testing.T) {
	m := newTestManager()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, m.TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", m.TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})
	assert.Equal(t, "cookie-token", m.TokenFromRequest(r))
}

func runMiddleware(t *testing.T, m *TokenManager, users UserLookup, token string) (*httptest.ResponseRecorder, *models.User, error) {
	t.Helper()
	var gotErr error
	var gotUser *models.User

	respond := func(w http.ResponseWriter, r *http.Request, err error) {
		gotErr = err
		w.WriteHeader(apperr.Status(err))
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		gotUser = &user
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	if token != "" {
		r.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	w := httptest.NewRecorder()
	m.Middleware(users, respond)(next).ServeHTTP(w, r)
	return w, gotUser, gotErr
}

func TestMiddleware(t *testing.T) {
	m := newTestManager()
	token, _, err := m.Mint("user-1", models.RoleUser)
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		users := new(mockUserLookup)
		w, user, err := runMiddleware(t, m, users, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, user)
		assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
		users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("valid token attaches public user", func(t *testing.T) {
		users := new(mockUserLookup)
		users.On("GetByID", mock.Anything, "user-1").
			Return(models.User{ID: "user-1", Email: "jane@x.com", PasswordHash: "hash", Role: models.RoleUser}, nil)

		w, user, err := runMiddleware(t, m, users, token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "jane@x.com", user.Email)
		assert.Empty(t, user.PasswordHash)
		users.AssertExpectations(t)
	})

	t.Run("user deleted after issuance", func(t *testing.T) {
		users := new(mockUserLookup)
		users.On("GetByID", mock.Anything, "user-1").Return(models.User{}, apperr.ErrNotFound)

		w, _, err := runMiddleware(t, m, users, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
	})

	t.Run("store fault is internal", func(t *testing.T) {
		users := new(mockUserLookup)
		users.On("GetByID", mock.Anything, "user-1").Return(models.User{}, errors.New("database is locked"))

		w, _, err := runMiddleware(t, m, users, token)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Error(t, err)
	})
}
