package services

import (
	"context"
	"time"

	"github.com/isdelr/ender-catalog-be/internal/models"
)

// UserRepository is the credential store the account and product services depend on.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// ProductRepository is the resource store behind the product service.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// ActivityRepository is the append-only activity table.
type ActivityRepository interface {
	Insert(ctx context.Context, entry *models.ActivityLogEntry) error
	RecentByUser(ctx context.Context, userID string, limit int) ([]models.ActivityLogEntry, error)
	ByUserSince(ctx context.Context, userID string, since time.Time) ([]models.ActivityLogEntry, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ActivityPublisher forwards recorded entries to an external sink.
type ActivityPublisher interface {
	Publish(ctx context.Context, entry models.ActivityLogEntry) error
}

// TokenIssuer mints credentials for authenticated users.
type TokenIssuer interface {
	Mint(userID, role string) (string, time.Time, error)
}

// Recorder records activity without ever failing the caller.
type Recorder interface {
	Record(ctx context.Context, in ActivityInput)
}
