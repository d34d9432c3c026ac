package store

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/ender-catalog-be/internal/apperr"
	"github.com/isdelr/ender-catalog-be/internal/models"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, first_name, last_name, email, password_hash, role, age, gender, about, photo_url, skills_json, created_at, updated_at, last_login_at`

// UserStore persists user accounts. Email uniqueness is enforced by the table constraint.
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user. A duplicate email, compared case-insensitively, yields
// apperr.ErrConflict.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	user.PrepareForSave()
	const query = `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role, age, gender, about,
		                   photo_url, skills_json, created_at, updated_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Role,
		user.Age, user.Gender, user.About, user.PhotoURL, user.SkillsJSON,
		user.CreatedAt, user.UpdatedAt, user.LastLoginAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.ErrConflict, "User with that email already exists")
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a single user by their ID, including the password hash.
func (s *UserStore) GetByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if err != nil {
		if isNoRows(err) {
			return models.User{}, fmt.Errorf("user with ID %s: %w", id, apperr.ErrNotFound)
		}
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	user.PrepareForAPI()
	return user, nil
}

// GetByEmail retrieves a single user by email, ignoring case.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	if err != nil {
		if isNoRows(err) {
			return models.User{}, fmt.Errorf("user with email %s: %w", email, apperr.ErrNotFound)
		}
		return models.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	user.PrepareForAPI()
	return user, nil
}

// GetByIDs batch-loads the users with the given IDs. Unknown IDs are skipped.
func (s *UserStore) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT "+userColumns+" FROM users WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build user batch query: %w", err)
	}

	var users []models.User
	if err := s.db.SelectContext(ctx, &users, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to batch load users: %w", err)
	}
	for i := range users {
		users[i].PrepareForAPI()
	}
	return users, nil
}

// TouchLastLogin stamps the user's last successful login.
func (s *UserStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET last_login_at = ? WHERE id = ?", at, id)
	if err != nil {
		return fmt.Errorf("failed to stamp last login: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user with ID %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
