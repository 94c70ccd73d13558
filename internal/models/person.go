package models

import "time"

// Person is a member of staff whose training is tracked. People are keyed by
// their case-folded email address.
type Person struct {
	ID          uint      `gorm:"primaryKey" json:"person_id"`
	DisplayName string    `gorm:"size:255;not null" json:"display_name"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	User        *User     `gorm:"foreignKey:PersonID" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User is a login account. Each account links to at most one person.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"user_id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"size:100" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:user" json:"role"`
	PersonID     *uint     `gorm:"uniqueIndex" json:"person_id"`
	Person       *Person   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
