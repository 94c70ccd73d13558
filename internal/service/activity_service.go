package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/events"
	"github.com/dcurran1637/Certificate-management/internal/expiry"
	"github.com/dcurran1637/Certificate-management/internal/models"
	"github.com/dcurran1637/Certificate-management/internal/policy"
	"github.com/dcurran1637/Certificate-management/internal/repository"
)

const (
	defaultActivityPageSize = 20
	maxActivityPageSize     = 100
)

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]any
}

// ActivityRecorder defines behaviour for recording activity logs.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityEntry, error)
}

// ActivityService exposes methods to query and persist activity logs.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, caller *policy.Identity, query dto.ActivityLogQuery) (dto.ActivityLogPage, error)
}

type activityService struct {
	repo      repository.ActivityLogRepository
	publisher events.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewActivityService constructs the activity log service. Persisted entries
// are also handed to publisher.
func NewActivityService(repo repository.ActivityLogRepository, publisher events.Publisher, logger zerolog.Logger) ActivityService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &activityService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With().Str("component", "activity_service").Logger(),
		now:       time.Now,
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityEntry, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return dto.ActivityEntry{}, fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return dto.ActivityEntry{}, fmt.Errorf("entity type is required")
	}

	model := models.ActivityLog{
		ActorID:    entry.ActorID,
		ActorRole:  normalizeRole(entry.ActorRole),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   sanitizeMetadata(entry.Metadata),
		CreatedAt:  s.now().UTC(),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist activity log")
		return dto.ActivityEntry{}, err
	}

	event := events.Event{
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		ActorID:    model.ActorID,
		ActorRole:  model.ActorRole,
		Metadata:   map[string]any(model.Metadata),
		OccurredAt: model.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("action", model.Action).Msg("failed to publish activity event")
	}

	return toActivityEntry(model), nil
}

func (s *activityService) List(ctx context.Context, caller *policy.Identity, query dto.ActivityLogQuery) (dto.ActivityLogPage, error) {
	if err := policy.Authorize(ctx, caller, policy.AdminOnly, nil); err != nil {
		return dto.ActivityLogPage{}, err
	}

	pageSize := query.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultActivityPageSize
	case pageSize > maxActivityPageSize:
		pageSize = maxActivityPageSize
	}
	page := maxInt(query.Page, 1)

	filter := repository.ActivityLogFilter{
		Page:       page,
		PageSize:   pageSize,
		Action:     strings.ToLower(strings.TrimSpace(query.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(query.EntityType)),
	}
	if query.ActorID > 0 {
		filter.ActorID = &query.ActorID
	}
	if query.EntityID > 0 {
		filter.EntityID = &query.EntityID
	}
	since, err := expiry.ParseOptionalDate(query.Since)
	if err != nil {
		return dto.ActivityLogPage{}, validationError("since: %s", err.Error())
	}
	filter.Since = since

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityLogPage{}, err
	}

	items := make([]dto.ActivityEntry, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toActivityEntry(entry))
	}

	pagination := dto.PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}
	if pagination.TotalPages == 0 {
		pagination.TotalPages = 1
	}

	return dto.ActivityLogPage{Items: items, Pagination: pagination}, nil
}

func toActivityEntry(model models.ActivityLog) dto.ActivityEntry {
	return dto.ActivityEntry{
		ID:         model.ID,
		ActorID:    model.ActorID,
		ActorRole:  model.ActorRole,
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		Metadata:   map[string]any(model.Metadata),
		CreatedAt:  model.CreatedAt,
	}
}

func sanitizeMetadata(metadata map[string]any) datatypes.JSONMap {
	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") || strings.Contains(lower, "password") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
