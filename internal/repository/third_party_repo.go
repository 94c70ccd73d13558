package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/dcurran1637/Certificate-management/internal/models"
)

// CertificationFilter narrows third-party certification queries.
type CertificationFilter struct {
	PersonID  *uint
	Search    string
	HasExpiry bool
}

// ThirdPartyRepository persists certifications gained outside the catalogue.
type ThirdPartyRepository interface {
	List(ctx context.Context, filter CertificationFilter) ([]models.ThirdPartyCertification, error)
	GetByID(ctx context.Context, id uint) (models.ThirdPartyCertification, error)
	OwnerOf(ctx context.Context, id uint) (uint, error)
	Create(ctx context.Context, cert *models.ThirdPartyCertification) error
	Update(ctx context.Context, cert *models.ThirdPartyCertification) error
	Delete(ctx context.Context, id uint) (models.ThirdPartyCertification, error)
}

type thirdPartyRepository struct {
	db *gorm.DB
}

// NewThirdPartyRepository instantiates a GORM-backed certification repository.
func NewThirdPartyRepository(db *gorm.DB) ThirdPartyRepository {
	return &thirdPartyRepository{db: db}
}

func (r *thirdPartyRepository) List(ctx context.Context, filter CertificationFilter) ([]models.ThirdPartyCertification, error) {
	query := r.db.WithContext(ctx).Preload("Person").Model(&models.ThirdPartyCertification{})

	if filter.PersonID != nil {
		query = query.Where("third_party_certifications.person_id = ?", *filter.PersonID)
	}
	if filter.HasExpiry {
		query = query.Where("third_party_certifications.expiry_date IS NOT NULL")
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.
			Joins("JOIN people ON people.id = third_party_certifications.person_id").
			Where("LOWER(people.display_name) LIKE ? OR LOWER(people.email) LIKE ? OR LOWER(third_party_certifications.title) LIKE ? OR LOWER(third_party_certifications.provider) LIKE ?",
				pattern, pattern, pattern, pattern)
	}

	var certs []models.ThirdPartyCertification
	err := query.
		Order("third_party_certifications.completion_date DESC").
		Order("third_party_certifications.id DESC").
		Find(&certs).Error
	if err != nil {
		return nil, err
	}
	return certs, nil
}

func (r *thirdPartyRepository) GetByID(ctx context.Context, id uint) (models.ThirdPartyCertification, error) {
	var cert models.ThirdPartyCertification
	if err := r.db.WithContext(ctx).Preload("Person").First(&cert, id).Error; err != nil {
		return models.ThirdPartyCertification{}, err
	}
	return cert, nil
}

func (r *thirdPartyRepository) OwnerOf(ctx context.Context, id uint) (uint, error) {
	var cert models.ThirdPartyCertification
	if err := r.db.WithContext(ctx).Select("id", "person_id").First(&cert, id).Error; err != nil {
		return 0, err
	}
	return cert.PersonID, nil
}

func (r *thirdPartyRepository) Create(ctx context.Context, cert *models.ThirdPartyCertification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var person models.Person
		if err := tx.First(&person, cert.PersonID).Error; err != nil {
			return err
		}
		if err := tx.Omit("Person").Create(cert).Error; err != nil {
			return err
		}
		cert.Person = person
		return nil
	})
}

// Update saves the editable fields. It returns gorm.ErrRecordNotFound when the
// certification no longer exists.
func (r *thirdPartyRepository) Update(ctx context.Context, cert *models.ThirdPartyCertification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ThirdPartyCertification{}).Where("id = ?", cert.ID).Updates(certificationColumns(cert))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		// MySQL reports zero affected rows when nothing changed.
		var remaining int64
		if err := tx.Model(&models.ThirdPartyCertification{}).Where("id = ?", cert.ID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func certificationColumns(cert *models.ThirdPartyCertification) map[string]any {
	return map[string]any{
		"title":           cert.Title,
		"provider":        cert.Provider,
		"completion_date": cert.CompletionDate,
		"expiry_date":     cert.ExpiryDate,
		"notes":           cert.Notes,
		"file_name":       cert.FileName,
		"file_path":       cert.FilePath,
		"storage_key":     cert.StorageKey,
		"mime_type":       cert.MimeType,
	}
}

func (r *thirdPartyRepository) Delete(ctx context.Context, id uint) (models.ThirdPartyCertification, error) {
	var cert models.ThirdPartyCertification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cert, id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ThirdPartyCertification{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return models.ThirdPartyCertification{}, err
	}
	return cert, nil
}
