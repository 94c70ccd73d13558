package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/dcurran1637/Certificate-management/internal/models"
)

// CourseRepository persists the internal course catalogue.
type CourseRepository interface {
	ListActive(ctx context.Context) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course, categoryName, providerName string) error
	Update(ctx context.Context, course *models.Course, categoryName, providerName string) error
	CountActive(ctx context.Context) (int64, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) ListActive(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Provider").
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Provider").
		First(&course, id).Error
	if err != nil {
		return models.Course{}, err
	}
	return course, nil
}

// Create upserts the named category and provider and inserts the course in a
// single transaction. A blank provider name leaves the course without one.
func (r *courseRepository) Create(ctx context.Context, course *models.Course, categoryName, providerName string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueCourseName(tx, course.Name, 0); err != nil {
			return err
		}
		if err := attachCatalogue(tx, course, categoryName, providerName); err != nil {
			return err
		}
		return tx.Omit("Category", "Provider").Create(course).Error
	})
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course, categoryName, providerName string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueCourseName(tx, course.Name, course.ID); err != nil {
			return err
		}
		if err := attachCatalogue(tx, course, categoryName, providerName); err != nil {
			return err
		}

		return tx.Model(&models.Course{}).Where("id = ?", course.ID).Updates(map[string]any{
			"name":          course.Name,
			"description":   course.Description,
			"type":          course.Type,
			"category_id":   course.CategoryID,
			"provider_id":   course.ProviderID,
			"validity_days": course.ValidityDays,
			"is_active":     course.IsActive,
		}).Error
	})
}

func (r *courseRepository) CountActive(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Where("is_active = ?", true).Count(&total).Error
	return total, err
}

func (r *courseRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&total).Error
	return total > 0, err
}

func ensureUniqueCourseName(tx *gorm.DB, name string, exceptID uint) error {
	query := tx.Model(&models.Course{}).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}
	if total > 0 {
		return gorm.ErrDuplicatedKey
	}
	return nil
}

func attachCatalogue(tx *gorm.DB, course *models.Course, categoryName, providerName string) error {
	course.CategoryID = nil
	course.Category = nil
	if name := strings.TrimSpace(categoryName); name != "" {
		category := models.Category{}
		if err := firstOrCreateByName(tx, &category, name); err != nil {
			return err
		}
		course.CategoryID = &category.ID
		course.Category = &category
	}

	course.ProviderID = nil
	course.Provider = nil
	if name := strings.TrimSpace(providerName); name != "" {
		provider := models.Provider{}
		if err := firstOrCreateByName(tx, &provider, name); err != nil {
			return err
		}
		course.ProviderID = &provider.ID
		course.Provider = &provider
	}
	return nil
}

func firstOrCreateByName(tx *gorm.DB, dest any, name string) error {
	err := tx.Where("name = ?", name).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		switch value := dest.(type) {
		case *models.Category:
			value.Name = name
		case *models.Provider:
			value.Name = name
		}
		return tx.Create(dest).Error
	}
	return err
}
