package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/dcurran1637/Certificate-management/internal/models"
)

// RecordFilter narrows training record queries.
type RecordFilter struct {
	PersonID  *uint
	CourseID  *uint
	Search    string
	HasExpiry bool
}

// TrainingRecordRepository persists internal training records and their attachments.
type TrainingRecordRepository interface {
	List(ctx context.Context, filter RecordFilter) ([]models.TrainingRecord, error)
	GetByID(ctx context.Context, id uint) (models.TrainingRecord, error)
	CreateForPerson(ctx context.Context, email, displayName string, record *models.TrainingRecord, attachment *models.Attachment) error
	Update(ctx context.Context, record *models.TrainingRecord, attachment *models.Attachment) ([]models.Attachment, error)
	Delete(ctx context.Context, id uint) (models.TrainingRecord, error)
}

type trainingRecordRepository struct {
	db *gorm.DB
}

// NewTrainingRecordRepository instantiates a GORM-backed record repository.
func NewTrainingRecordRepository(db *gorm.DB) TrainingRecordRepository {
	return &trainingRecordRepository{db: db}
}

func (r *trainingRecordRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Person").
		Preload("Course").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("id DESC")
		})
}

func (r *trainingRecordRepository) List(ctx context.Context, filter RecordFilter) ([]models.TrainingRecord, error) {
	query := r.preloaded(ctx).Model(&models.TrainingRecord{})

	if filter.PersonID != nil {
		query = query.Where("training_records.person_id = ?", *filter.PersonID)
	}
	if filter.CourseID != nil {
		query = query.Where("training_records.course_id = ?", *filter.CourseID)
	}
	if filter.HasExpiry {
		query = query.Where("training_records.expiry_date IS NOT NULL")
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.
			Joins("JOIN people ON people.id = training_records.person_id").
			Joins("JOIN courses ON courses.id = training_records.course_id").
			Where("LOWER(people.display_name) LIKE ? OR LOWER(people.email) LIKE ? OR LOWER(courses.name) LIKE ?", pattern, pattern, pattern)
	}

	var records []models.TrainingRecord
	if err := query.Order("training_records.completion_date DESC").Order("training_records.id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *trainingRecordRepository) GetByID(ctx context.Context, id uint) (models.TrainingRecord, error) {
	var record models.TrainingRecord
	if err := r.preloaded(ctx).First(&record, id).Error; err != nil {
		return models.TrainingRecord{}, err
	}
	return record, nil
}

// CreateForPerson upserts the person by email, then inserts the record and
// its optional attachment in one transaction.
func (r *trainingRecordRepository) CreateForPerson(ctx context.Context, email, displayName string, record *models.TrainingRecord, attachment *models.Attachment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Course{}, record.CourseID).Error; err != nil {
			return err
		}

		person, err := upsertPerson(tx, email, displayName, true)
		if err != nil {
			return err
		}
		record.PersonID = person.ID
		record.Person = person

		if err := tx.Omit("Person", "Course", "Attachments").Create(record).Error; err != nil {
			return err
		}

		if attachment != nil {
			attachment.TrainingRecordID = record.ID
			if err := tx.Create(attachment).Error; err != nil {
				return err
			}
			record.Attachments = []models.Attachment{*attachment}
		}
		return nil
	})
}

// Update saves the record's editable fields; the expiry date is never
// rewritten. A non-nil attachment replaces the existing ones, which are
// returned so their files can be removed.
func (r *trainingRecordRepository) Update(ctx context.Context, record *models.TrainingRecord, attachment *models.Attachment) ([]models.Attachment, error) {
	var replaced []models.Attachment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Course{}, record.CourseID).Error; err != nil {
			return err
		}

		err := tx.Model(&models.TrainingRecord{}).Where("id = ?", record.ID).Updates(map[string]any{
			"course_id":       record.CourseID,
			"completion_date": record.CompletionDate,
			"notes":           record.Notes,
			"assessor":        record.Assessor,
		}).Error
		if err != nil {
			return err
		}

		if attachment == nil {
			return nil
		}

		if err := tx.Where("training_record_id = ?", record.ID).Find(&replaced).Error; err != nil {
			return err
		}
		if len(replaced) > 0 {
			if err := tx.Where("training_record_id = ?", record.ID).Delete(&models.Attachment{}).Error; err != nil {
				return err
			}
		}

		attachment.TrainingRecordID = record.ID
		return tx.Create(attachment).Error
	})
	if err != nil {
		return nil, err
	}
	return replaced, nil
}

// Delete removes the record and its attachments, returning what was deleted.
func (r *trainingRecordRepository) Delete(ctx context.Context, id uint) (models.TrainingRecord, error) {
	var record models.TrainingRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Attachments").First(&record, id).Error; err != nil {
			return err
		}
		if err := tx.Where("training_record_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.TrainingRecord{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return models.TrainingRecord{}, err
	}
	return record, nil
}
