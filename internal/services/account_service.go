package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/ender-catalog-be/internal/apperr"
	"github.com/isdelr/ender-catalog-be/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid credentials"

// AccountServiceProvider defines the interface for account services.
type AccountServiceProvider interface {
	Signup(ctx context.Context, in SignupInput) (models.User, error)
	Login(ctx context.Context, in LoginInput) (LoginResult, error)
	Logout(ctx context.Context, user models.User)
	Profile(ctx context.Context, user models.User) (models.User, error)
	Activity(ctx context.Context, user models.User, limit int) ([]models.ActivityLogEntry, error)
	ActivitySummary(ctx context.Context, user models.User, days int) ([]models.ActionCount, error)
}

// SignupInput is the registration payload.
type SignupInput struct {
	FirstName string   `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string   `json:"lastName" validate:"required,min=1,max=50"`
	Email     string   `json:"email" validate:"required,email,max=254"`
	Password  string   `json:"password" validate:"required,min=6,max=72"`
	Role      string   `json:"role" validate:"omitempty,oneof=user admin"`
	Age       *int     `json:"age" validate:"omitempty,min=13,max=120"`
	Gender    string   `json:"gender" validate:"omitempty,oneof=male female other"`
	About     string   `json:"about" validate:"max=500"`
	Skills    []string `json:"skills" validate:"max=10,dive,min=1,max=30"`
	PhotoURL  string   `json:"photoUrl" validate:"omitempty,url"`
}

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is a successful login: the public profile and a freshly minted token.
type LoginResult struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

// AccountPolicy holds the tunables of account creation.
type AccountPolicy struct {
	BcryptCost              int
	AllowRoleSelfAssignment bool
}

// AccountService provides business logic for signup, login and the profile endpoints.
type AccountService struct {
	users    UserRepository
	tokens   TokenIssuer
	activity ActivityServiceProvider
	policy   AccountPolicy
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAccountService creates a new AccountService.
func NewAccountService(users UserRepository, tokens TokenIssuer, activity ActivityServiceProvider, policy AccountPolicy) *AccountService {
	if policy.BcryptCost == 0 {
		policy.BcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{
		users:    users,
		tokens:   tokens,
		activity: activity,
		policy:   policy,
		now:      time.Now,
	}
}

// Signup validates and stores a new user and returns its public profile.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (models.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	in.Role = strings.TrimSpace(in.Role)
	in.About = strings.TrimSpace(in.About)

	if err := validateInput(in); err != nil {
		return models.User{}, err
	}
	// bcrypt limits the input in bytes, the validator counts characters.
	if len(in.Password) > 72 {
		return models.User{}, apperr.Validation("password", "password must be at most 72 bytes long")
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if in.Role == models.RoleAdmin && !s.policy.AllowRoleSelfAssignment {
		return models.User{}, apperr.Validation("role", "role cannot be self-assigned")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.policy.BcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := models.User{
		ID:           uuid.New().String(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Role:         in.Role,
		Age:          in.Age,
		Gender:       in.Gender,
		About:        in.About,
		PhotoURL:     in.PhotoURL,
		Skills:       in.Skills,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.PhotoURL == "" {
		user.PhotoURL = models.DefaultPhotoURL
	}
	if user.Skills == nil {
		user.Skills = []string{}
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, err
	}

	s.activity.Record(ctx, ActivityInput{
		UserID:       user.ID,
		Action:       models.ActionSignup,
		ResourceType: models.ResourceUser,
		ResourceID:   user.ID,
		Meta:         map[string]any{"email": user.Email, "role": user.Role},
	})
	return user.Public(), nil
}

// Login verifies credentials and mints a token. Unknown emails and wrong passwords produce
// the same error so the response does not reveal which accounts exist.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return LoginResult{}, err
		}
		// Spend the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(in.Password))
		s.recordFailedLogin(ctx, in.Email)
		return LoginResult{}, apperr.New(apperr.ErrUnauthenticated, invalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		s.recordFailedLogin(ctx, in.Email)
		return LoginResult{}, apperr.New(apperr.ErrUnauthenticated, invalidCredentials)
	}

	token, expiresAt, err := s.tokens.Mint(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to mint token: %w", err)
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		log.Warn().Err(err).Str("userId", user.ID).Msg("Failed to stamp last login")
	} else {
		user.LastLoginAt = &now
	}

	s.activity.Record(ctx, ActivityInput{
		UserID:       user.ID,
		Action:       models.ActionLogin,
		ResourceType: models.ResourceUser,
		ResourceID:   user.ID,
	})
	return LoginResult{User: user.Public(), Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AccountService) recordFailedLogin(ctx context.Context, email string) {
	s.activity.Record(ctx, ActivityInput{
		Action: models.ActionLoginFailed,
		Meta:   map[string]any{"email": email},
	})
}

// dummy returns a hash at the configured cost that no password matches.
func (s *AccountService) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), s.policy.BcryptCost)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prepare login timing hash")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// Logout records the logout. Tokens are stateless, so clearing the cookie is the caller's job.
func (s *AccountService) Logout(ctx context.Context, user models.User) {
	s.activity.Record(ctx, ActivityInput{
		UserID:       user.ID,
		Action:       models.ActionLogout,
		ResourceType: models.ResourceUser,
		ResourceID:   user.ID,
	})
}

// Profile re-reads the authenticated user's record and returns its public view.
func (s *AccountService) Profile(ctx context.Context, user models.User) (models.User, error) {
	current, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.User{}, apperr.New(apperr.ErrNotFound, "User not found")
		}
		return models.User{}, err
	}
	s.activity.Record(ctx, ActivityInput{
		UserID:       user.ID,
		Action:       models.ActionGetProfile,
		ResourceType: models.ResourceUser,
		ResourceID:   user.ID,
	})
	return current.Public(), nil
}

// Activity returns the user's most recent activity, newest first.
func (s *AccountService) Activity(ctx context.Context, user models.User, limit int) ([]models.ActivityLogEntry, error) {
	entries, err := s.activity.Recent(ctx, user.ID, limit)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, ActivityInput{
		UserID: user.ID,
		Action: models.ActionGetActivity,
		Meta:   map[string]any{"limit": limit},
	})
	return entries, nil
}

// ActivitySummary counts the user's actions over the last days days.
func (s *AccountService) ActivitySummary(ctx context.Context, user models.User, days int) ([]models.ActionCount, error) {
	since := s.now().UTC().AddDate(0, 0, -days)
	summary, err := s.activity.Summary(ctx, user.ID, since)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, ActivityInput{
		UserID: user.ID,
		Action: models.ActionGetActivity,
		Meta:   map[string]any{"days": days},
	})
	return summary, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
