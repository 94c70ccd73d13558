package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dcurran1637/Certificate-management/internal/models"
)

// ActivityLogFilter narrows audit log queries. Zero values match everything.
type ActivityLogFilter struct {
	Page       int
	PageSize   int
	ActorID    *uint
	Action     string
	EntityType string
	EntityID   *uint
	Since      *time.Time
}

// ActivityLogRepository persists the audit trail of mutations.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns one page of matching entries, newest first, and the number of
// matching entries across all pages.
func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	matching := r.db.WithContext(ctx).Model(&models.ActivityLog{}).Scopes(filter.matches)

	var total int64
	if err := matching.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ActivityLog
	err := matching.
		Scopes(filter.page).
		Order("created_at DESC").
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (f ActivityLogFilter) matches(db *gorm.DB) *gorm.DB {
	if f.ActorID != nil {
		db = db.Where("actor_id = ?", *f.ActorID)
	}
	if f.Action != "" {
		db = db.Where("action = ?", f.Action)
	}
	if f.EntityType != "" {
		db = db.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		db = db.Where("entity_id = ?", *f.EntityID)
	}
	if f.Since != nil {
		db = db.Where("created_at >= ?", *f.Since)
	}
	return db
}

// page applies the limit and offset. A non-positive page size returns every row.
func (f ActivityLogFilter) page(db *gorm.DB) *gorm.DB {
	if f.PageSize <= 0 {
		return db
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return db.Offset((page - 1) * f.PageSize).Limit(f.PageSize)
}
