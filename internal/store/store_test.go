package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/ender-catalog-be/internal/database"
	"github.com/isdelr/ender-catalog-be/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestUser(email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New().String(),
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        email,
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhashnotarealhashnot",
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newTestProduct(ownerID, name string, createdAt time.Time) *models.Product {
	return &models.Product{
		ID:          uuid.New().String(),
		Name:        name,
		Description: "d",
		Price:       9.99,
		Category:    "tools",
		OwnerID:     ownerID,
		IsActive:    true,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}
