package store

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/ender-catalog-be/internal/models"
	"github.com/jmoiron/sqlx"
)

const activityColumns = `id, user_id, action, resource_type, resource_id, meta_json, ip_address, user_agent, created_at`

// ActivityStore is the append-only table behind the activity recorder.
type ActivityStore struct {
	db *sqlx.DB
}

// NewActivityStore creates a new ActivityStore.
func NewActivityStore(db *sqlx.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Insert appends one entry.
func (s *ActivityStore) Insert(ctx context.Context, entry *models.ActivityLogEntry) error {
	if err := entry.PrepareForSave(); err != nil {
		return fmt.Errorf("failed to encode activity metadata: %w", err)
	}
	const query = `
		INSERT INTO activity_logs (id, user_id, action, resource_type, resource_id, meta_json, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID,
		entry.MetaJSON, entry.IPAddress, entry.UserAgent, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}

// RecentByUser retrieves the most recent entries recorded for a user.
func (s *ActivityStore) RecentByUser(ctx context.Context, userID string, limit int) ([]models.ActivityLogEntry, error) {
	entries := []models.ActivityLogEntry{}
	err := s.db.SelectContext(ctx, &entries,
		"SELECT "+activityColumns+" FROM activity_logs WHERE user_id = ? ORDER BY created_at DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	for i := range entries {
		entries[i].PrepareForAPI()
	}
	return entries, nil
}

// ByUserSince retrieves every entry recorded for a user at or after since.
func (s *ActivityStore) ByUserSince(ctx context.Context, userID string, since time.Time) ([]models.ActivityLogEntry, error) {
	entries := []models.ActivityLogEntry{}
	err := s.db.SelectContext(ctx, &entries,
		"SELECT "+activityColumns+" FROM activity_logs WHERE user_id = ? AND created_at >= ? ORDER BY created_at DESC",
		userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query activity window: %w", err)
	}
	for i := range entries {
		entries[i].PrepareForAPI()
	}
	return entries, nil
}

// PurgeBefore deletes entries older than cutoff and returns how many were removed.
func (s *ActivityStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM activity_logs WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge activity: %w", err)
	}
	return res.RowsAffected()
}
