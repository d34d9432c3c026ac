package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/ender-catalog-be/internal/models"
	"github.com/rs/zerolog/log"
)

const defaultRecordTimeout = 5 * time.Second

// ActivityServiceProvider defines the interface for activity services.
type ActivityServiceProvider interface {
	Recorder
	Recent(ctx context.Context, userID string, limit int) ([]models.ActivityLogEntry, error)
	Summary(ctx context.Context, userID string, since time.Time) ([]models.ActionCount, error)
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// ActivityInput describes one action to record. An empty UserID records an anonymous entry.
type ActivityInput struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Meta         map[string]any
}

// RequestMeta is the client information attached to activity entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta returns a context carrying the client information of the current request.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the client information stored by WithRequestMeta.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// ActivityService records and reads the activity trail.
type ActivityService struct {
	store     ActivityRepository
	publisher ActivityPublisher
	timeout   time.Duration
	now       func() time.Time
}

// NewActivityService creates a new ActivityService. publisher may be nil.
func NewActivityService(store ActivityRepository, publisher ActivityPublisher) *ActivityService {
	return &ActivityService{
		store:     store,
		publisher: publisher,
		timeout:   defaultRecordTimeout,
		now:       time.Now,
	}
}

// Record writes one entry. Failures are logged and never reach the caller, and the write
// is not cut short when the request context is cancelled.
func (s *ActivityService) Record(ctx context.Context, in ActivityInput) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("action", in.Action).Msg("Recovered while recording activity")
		}
	}()

	reqMeta := RequestMetaFromContext(ctx)
	entry := models.ActivityLogEntry{
		ID:        uuid.New().String(),
		Action:    in.Action,
		Meta:      in.Meta,
		IPAddress: reqMeta.IPAddress,
		UserAgent: reqMeta.UserAgent,
		CreatedAt: s.now().UTC(),
	}
	if in.UserID != "" {
		entry.UserID = &in.UserID
	}
	if in.ResourceType != "" {
		entry.ResourceType = &in.ResourceType
	}
	if in.ResourceID != "" {
		entry.ResourceID = &in.ResourceID
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.store.Insert(ctx, &entry); err != nil {
		log.Error().Err(err).Str("action", in.Action).Str("userId", in.UserID).Msg("Failed to record activity")
		return
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, entry); err != nil {
			log.Warn().Err(err).Str("action", in.Action).Str("entryId", entry.ID).Msg("Failed to publish activity")
		}
	}
}

// Recent returns the newest entries recorded for a user.
func (s *ActivityService) Recent(ctx context.Context, userID string, limit int) ([]models.ActivityLogEntry, error) {
	entries, err := s.store.RecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read recent activity: %w", err)
	}
	return entries, nil
}

// Summary counts a user's entries per action since the given time. The busiest actions
// come first.
func (s *ActivityService) Summary(ctx context.Context, userID string, since time.Time) ([]models.ActionCount, error) {
	entries, err := s.store.ByUserSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity summary: %w", err)
	}

	byAction := make(map[string]*models.ActionCount)
	for _, e := range entries {
		c, ok := byAction[e.Action]
		if !ok {
			c = &models.ActionCount{Action: e.Action}
			byAction[e.Action] = c
		}
		c.Count++
		if e.CreatedAt.After(c.LastActivity) {
			c.LastActivity = e.CreatedAt
		}
	}

	summary := make([]models.ActionCount, 0, len(byAction))
	for _, c := range byAction {
		summary = append(summary, *c)
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Count != summary[j].Count {
			return summary[i].Count > summary[j].Count
		}
		return summary[i].Action < summary[j].Action
	})
	return summary, nil
}

// Purge deletes entries recorded before cutoff.
func (s *ActivityService) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge activity: %w", err)
	}
	return n, nil
}
