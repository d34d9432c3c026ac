package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/isdelr/ender-catalog-be/internal/apperr"
	"github.com/isdelr/ender-catalog-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSignup(t *testing.T) {
	env := newTestEnv(t, AccountPolicy{})
	ctx := context.Background()

	age := 30
	user, err := env.accounts.Signup(ctx, SignupInput{
		FirstName: "  Jane ",
		LastName:  "Doe",
		Email:     "Jane@X.com",
		Password:  "secret1",
		Age:       &age,
		Skills:    []string{"go"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Jane", user.FirstName)
	assert.Equal(t, "jane@x.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.DefaultPhotoURL, user.PhotoURL)
	assert.Equal(t, []string{"go"}, user.Skills)
	assert.Empty(t, user.PasswordHash)

	stored, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))

	assert.Equal(t, 1, env.countActions(t, models.ActionSignup))
}

func TestSignup_DuplicateEmailIgnoresCase(t *testing.T) {
	env := newTestEnv(t, AccountPolicy{})
	env.signup(t, "Jane", "jane@x.com")

	_, err := env.accounts.Signup(context.Background(), SignupInput{
		FirstName: "Other", LastName: "Doe", Email: "JANE@x.com", Password: "secret1",
	})
	appErr := requireKind(t, err, apperr.ErrConflict)
	require.NotNil(t, appErr)
	assert.Equal(t, "User with that email already exists", appErr.Message)
	assert.Equal(t, 1, env.countActions(t, models.ActionSignup))
}

func TestSignup_Validation(t *testing.T) {
	env := newTestEnv(t, AccountPolicy{})
	valid := func() SignupInput {
		return SignupInput{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", Password: "secret1"}
	}
	young := 5

	tests := []struct {
		name  string
		edit  func(*SignupInput)
		field string
	}{
		{"missing first name", func(in *SignupInput) { in.FirstName = "" }, "firstName"},
		{"short first name", func(in *SignupInput) { in.FirstName = "J" }, "firstName"},
		{"bad email", func(in *SignupInput) { in.Email = "jane" }, "email"},
		{"short password", func(in *SignupInput) { in.Password = "abc" }, "password"},
		{"password over 72 bytes", func(in *SignupInput) { in.Password = strings.Repeat("é", 40) }, "password"},
		{"too young", func(in *SignupInput) { in.Age = &young }, "age"},
		{"unknown gender", func(in *SignupInput) { in.Gender = "robot" }, "gender"},
		{"unknown role", func(in *SignupInput) { in.Role = "root" }, "role"},
		{"admin self-assignment", func(in *SignupInput) { in.Role = models.RoleAdmin }, "role"},
		{"empty skill", func(in *SignupInput) { in.Skills = []string{""} }, "skills[0]"},
		{"bad photo url", func(in *SignupInput) { in.PhotoURL = "not a url" }, "photoUrl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.edit(&in)
			_, err := env.accounts.Signup(context.Background(), in)
			appErr := requireKind(t, err, apperr.ErrValidation)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
	assert.Equal(t, 0, env.countActions(t, models.ActionSignup))
}

func TestSignup_AdminWhenAllowed(t *testing.T) {
	env := newTestEnv(t, AccountPolicy{AllowRoleSelfAssignment: true})

	user, err := env.accounts.Signup(context.Background(), SignupInput{
		FirstName: "Ada", LastName: "Admin", Email: "ada@x.com", Password: "secret1", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, AccountPolicy{})
	jane := env.signup(t, "Jane", "jane@x.com")

	res, err := env.accounts.Login(context.Background(), LoginInput{Email: " JANE@x.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, jane.ID, res.User.ID)
	assert.Empty(t, res.User.PasswordHash)
	require.NotNil(t, res.User.LastLoginAt)

	claims, err := env.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, jane.ID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)

	stored, err := env.users.GetByID(context.Background(), jane.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, 1, env.countActions(t, models.ActionLogin))
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t, AccountPolicy{})
	env.signup(t, "Jane", "jane@x.com")
	ctx := context.Background()

	_, wrongPassword := env.accounts.Login(ctx, LoginInput{Email: "jane@x.com", Password: "wrong-password"})
	_, unknownEmail := env.accounts.Login(ctx, LoginInput{Email: "nobody@x.com", Password: "secret1"})

	for _, err := range []error{wrongPassword, unknownEmail} {
		appErr := requireKind(t, err, apperr.ErrUnauthenticated)
		require.NotNil(t, appErr)
		assert.Equal(t, "Invalid credentials", appErr.Message)
	}

	var anonymous int
	require.NoError(t, env.db.Get(&anonymous,
		"SELECT COUNT(*) FROM activity_logs WHERE action = ? AND user_id IS NULL", models.ActionLoginFailed))
	assert.Equal(t, 2, anonymous)
	assert.Equal(t, 0, env.countActions(t, models.ActionLogin))
}

func TestLogin_MalformedInput(t *testing.T) {
	env := newTestEnv(t, AccountPolicy{})

	_, err := env.accounts.Login(context.Background(), LoginInput{Email: "jane@x.com"})
	appErr := requireKind(t, err, apperr.ErrValidation)
	require.NotNil(t, appErr)
	assert.Equal(t, "password", appErr.Field)
}

func TestLogin_StoreFaultIsNotAuthError(t *testing.T) {
	users := new(mockUserRepository)
	users.On("GetByEmail", mock.Anything, "jane@x.com").Return(models.User{}, errors.New("disk I/O error"))
	env := newTestEnv(t, AccountPolicy{})
	accounts := NewAccountService(users, env.tokens, env.activity, AccountPolicy{BcryptCost: bcrypt.MinCost})

	_, err := accounts.Login(context.Background(), LoginInput{Email: "jane@x.com", Password: "secret1"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperr.ErrUnauthenticated))
	assert.Equal(t, 500, apperr.Status(err))
	users.AssertExpectations(t)
}

func TestLogin_LastLoginFailureDoesNotBlock(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	jane := models.User{ID: "user-1", Email: "jane@x.com", PasswordHash: string(hash), Role: models.RoleUser}

	users := new(mockUserRepository)
	users.On("GetByEmail", mock.Anything, "jane@x.com").Return(jane, nil)
	users.On("TouchLastLogin", mock.Anything, "user-1", mock.Anything).Return(errors.New("database is locked"))
	env := newTestEnv(t, AccountPolicy{})
	accounts := NewAccountService(users, env.tokens, env.activity, AccountPolicy{BcryptCost: bcrypt.MinCost})

	res, err := accounts.Login(context.Background(), LoginInput{Email: "jane@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Nil(t, res.User.LastLoginAt)
	users.AssertExpectations(t)
}

func TestProfileAndLogout(t *testing.T) {
	env := newTestEnv(t, AccountPolicy{})
	jane := env.signup(t, "Jane", "jane@x.com")
	ctx := context.Background()

	profile, err := env.accounts.Profile(ctx, jane)
	require.NoError(t, err)
	assert.Equal(t, jane.Email, profile.Email)
	assert.Empty(t, profile.PasswordHash)
	env.accounts.Logout(ctx, jane)

	assert.Equal(t, 1, env.countActions(t, models.ActionGetProfile))
	assert.Equal(t, 1, env.countActions(t, models.ActionLogout))
}

func TestActivityAndSummary(t *testing.T) {
	env := newTestEnv(t, AccountPolicy{})
	jane := env.signup(t, "Jane", "jane@x.com")
	ctx := context.Background()

	for range 2 {
		_, err := env.accounts.Profile(ctx, jane)
		require.NoError(t, err)
	}

	entries, err := env.accounts.Activity(ctx, jane, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.ActionGetProfile, entries[0].Action)
	assert.Equal(t, models.ActionSignup, entries[2].Action)

	summary, err := env.accounts.ActivitySummary(ctx, jane, 30)
	require.NoError(t, err)
	require.NotEmpty(t, summary)
	assert.Equal(t, models.ActionGetProfile, summary[0].Action)
	assert.Equal(t, 2, summary[0].Count)
}
