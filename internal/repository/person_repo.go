package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/dcurran1637/Certificate-management/internal/models"
)

// PersonRepository reads and upserts people.
type PersonRepository interface {
	GetByID(ctx context.Context, id uint) (models.Person, error)
	GetByEmail(ctx context.Context, email string) (models.Person, error)
	ListActive(ctx context.Context) ([]models.Person, error)
	CountActive(ctx context.Context) (int64, error)
	Upsert(ctx context.Context, email, displayName string) (models.Person, error)
}

type personRepository struct {
	db *gorm.DB
}

// NewPersonRepository instantiates a GORM-backed person repository.
func NewPersonRepository(db *gorm.DB) PersonRepository {
	return &personRepository{db: db}
}

// NormalizeEmail case-folds an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *personRepository) GetByID(ctx context.Context, id uint) (models.Person, error) {
	var person models.Person
	if err := r.db.WithContext(ctx).First(&person, id).Error; err != nil {
		return models.Person{}, err
	}
	return person, nil
}

func (r *personRepository) GetByEmail(ctx context.Context, email string) (models.Person, error) {
	var person models.Person
	err := r.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&person).Error
	if err != nil {
		return models.Person{}, err
	}
	return person, nil
}

func (r *personRepository) ListActive(ctx context.Context) ([]models.Person, error) {
	var people []models.Person
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_name ASC").
		Order("id ASC").
		Find(&people).Error
	if err != nil {
		return nil, err
	}
	return people, nil
}

func (r *personRepository) CountActive(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Person{}).Where("is_active = ?", true).Count(&total).Error
	return total, err
}

func (r *personRepository) Upsert(ctx context.Context, email, displayName string) (models.Person, error) {
	var person models.Person
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var upsertErr error
		person, upsertErr = upsertPerson(tx, email, displayName, true)
		return upsertErr
	})
	return person, err
}

// upsertPerson finds the person with the given email or creates it. When
// rename is set an existing person takes the supplied display name.
func upsertPerson(tx *gorm.DB, email, displayName string, rename bool) (models.Person, error) {
	email = NormalizeEmail(email)
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email
	}

	var person models.Person
	err := tx.Where("email = ?", email).First(&person).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		person = models.Person{Email: email, DisplayName: displayName, IsActive: true}
		if err := tx.Create(&person).Error; err != nil {
			return models.Person{}, err
		}
		return person, nil
	case err != nil:
		return models.Person{}, err
	}

	if rename && person.DisplayName != displayName {
		if err := tx.Model(&person).Update("display_name", displayName).Error; err != nil {
			return models.Person{}, err
		}
		person.DisplayName = displayName
	}
	return person, nil
}
