package models

import "time"

// Category groups courses for display.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"category_id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

// Provider is the organisation delivering a course.
type Provider struct {
	ID   uint   `gorm:"primaryKey" json:"provider_id"`
	Name string `gorm:"size:150;uniqueIndex;not null" json:"name"`
}

// Course is an internally tracked training course. A nil ValidityDays means
// completions never expire.
type Course struct {
	ID           uint      `gorm:"primaryKey" json:"course_id"`
	Name         string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Type         string    `gorm:"size:100;not null" json:"type"`
	CategoryID   *uint     `json:"category_id"`
	Category     *Category `json:"category,omitempty"`
	ProviderID   *uint     `json:"provider_id"`
	Provider     *Provider `json:"provider,omitempty"`
	ValidityDays *int      `json:"validity_days"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
