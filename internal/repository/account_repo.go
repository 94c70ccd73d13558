package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dcurran1637/Certificate-management/internal/models"
)

// AccountRepository persists login accounts and their link to people.
type AccountRepository interface {
	Register(ctx context.Context, user *models.User, displayName string) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id uint) (models.User, error)
	SyncPerson(ctx context.Context, user *models.User, displayName string) (models.Person, error)
	UpdateRoleByPerson(ctx context.Context, personID uint, role string) (models.User, error)
	RolesByPerson(ctx context.Context, personIDs []uint) (map[uint]string, error)
	EnsureAdmin(ctx context.Context, user *models.User, displayName string) (bool, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository instantiates a GORM-backed account repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Register creates the account and its person in one transaction. It returns
// gorm.ErrDuplicatedKey when the email already has an account.
func (r *accountRepository) Register(ctx context.Context, user *models.User, displayName string) error {
	user.Email = NormalizeEmail(user.Email)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return gorm.ErrDuplicatedKey
		}

		person, err := upsertPerson(tx, user.Email, displayName, false)
		if err != nil {
			return err
		}

		user.PersonID = &person.ID
		return tx.Create(user).Error
	})
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// SyncPerson makes sure the account is linked to the person that shares its
// email, creating the person when needed.
func (r *accountRepository) SyncPerson(ctx context.Context, user *models.User, displayName string) (models.Person, error) {
	var person models.Person
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		person, err = upsertPerson(tx, user.Email, displayName, false)
		if err != nil {
			return err
		}

		if user.PersonID == nil || *user.PersonID != person.ID {
			if err := tx.Model(user).Update("person_id", person.ID).Error; err != nil {
				return err
			}
			user.PersonID = &person.ID
		}
		return nil
	})
	return person, err
}

func (r *accountRepository) UpdateRoleByPerson(ctx context.Context, personID uint, role string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("person_id = ?", personID).First(&user).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Update("role", role).Error; err != nil {
			return err
		}
		user.Role = role
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *accountRepository) RolesByPerson(ctx context.Context, personIDs []uint) (map[uint]string, error) {
	roles := make(map[uint]string, len(personIDs))
	if len(personIDs) == 0 {
		return roles, nil
	}

	var users []models.User
	err := r.db.WithContext(ctx).
		Select("person_id", "role").
		Where("person_id IN ?", personIDs).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	for _, user := range users {
		if user.PersonID != nil {
			roles[*user.PersonID] = user.Role
		}
	}
	return roles, nil
}

// EnsureAdmin creates the account when no account uses its email and
// reports whether it did.
func (r *accountRepository) EnsureAdmin(ctx context.Context, user *models.User, displayName string) (bool, error) {
	err := r.Register(ctx, user, displayName)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
