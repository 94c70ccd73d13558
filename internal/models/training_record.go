package models

import "time"

// TrainingRecord is one completion of an internal course by a person.
// ExpiryDate is derived from the course validity when the record is written
// and is not recomputed when the course changes.
type TrainingRecord struct {
	ID             uint         `gorm:"primaryKey" json:"record_id"`
	PersonID       uint         `gorm:"not null;index" json:"person_id"`
	Person         Person       `json:"-"`
	CourseID       uint         `gorm:"not null;index" json:"course_id"`
	Course         Course       `json:"-"`
	CompletionDate time.Time    `gorm:"type:date;not null" json:"completion_date"`
	ExpiryDate     *time.Time   `gorm:"type:date;index" json:"expiry_date"`
	Notes          string       `gorm:"type:text" json:"notes"`
	Assessor       string       `gorm:"size:255" json:"assessor"`
	Attachments    []Attachment `gorm:"constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Attachment is an evidence file stored for a training record.
type Attachment struct {
	ID               uint      `gorm:"primaryKey" json:"attachment_id"`
	TrainingRecordID uint      `gorm:"not null;index" json:"record_id"`
	FileName         string    `gorm:"size:255;not null" json:"file_name"`
	FilePath         string    `gorm:"size:1024;not null" json:"file_path"`
	StorageKey       string    `gorm:"size:512;not null" json:"-"`
	MimeType         string    `gorm:"size:128" json:"mime_type"`
	SizeBytes        int64     `json:"size_bytes"`
	CreatedAt        time.Time `json:"created_at"`
}

// ThirdPartyCertification is a qualification gained outside the internal
// course catalogue. Its expiry date is supplied by the user.
type ThirdPartyCertification struct {
	ID             uint       `gorm:"primaryKey" json:"cert_id"`
	PersonID       uint       `gorm:"not null;index" json:"person_id"`
	Person         Person     `json:"-"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Provider       string     `gorm:"size:255;not null" json:"provider"`
	CompletionDate time.Time  `gorm:"type:date;not null" json:"completion_date"`
	ExpiryDate     *time.Time `gorm:"type:date;index" json:"expiry_date"`
	Notes          string     `gorm:"type:text" json:"notes"`
	FileName       string     `gorm:"size:255" json:"file_name,omitempty"`
	FilePath       string     `gorm:"size:1024" json:"file_path,omitempty"`
	StorageKey     string     `gorm:"size:512" json:"-"`
	MimeType       string     `gorm:"size:128" json:"mime_type,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
