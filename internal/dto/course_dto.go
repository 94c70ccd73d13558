package dto

import "github.com/dcurran1637/Certificate-management/internal/expiry"

// CourseCreateRequest is the payload of POST /api/courses.
type CourseCreateRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Description  string `json:"description" validate:"max=4000"`
	Type         string `json:"type" validate:"max=100"`
	CategoryName string `json:"categoryName" validate:"max=100"`
	ProviderName string `json:"providerName" validate:"max=150"`
	ValidityDays *int   `json:"validityDays" validate:"omitempty,min=0,max=36500"`
}

// CourseUpdateRequest is the payload of PUT /api/courses/:id. Omitted fields
// keep their current value; an empty providerName clears the provider.
type CourseUpdateRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string `json:"description" validate:"omitempty,max=4000"`
	Type          *string `json:"type" validate:"omitempty,max=100"`
	CategoryName  *string `json:"categoryName" validate:"omitempty,max=100"`
	ProviderName  *string `json:"providerName" validate:"omitempty,max=150"`
	ValidityDays  *int    `json:"validityDays" validate:"omitempty,min=0,max=36500"`
	ClearValidity bool    `json:"clearValidity"`
	IsActive      *bool   `json:"isActive"`
}

// CourseResponse is a catalogue entry.
type CourseResponse struct {
	ID           uint   `json:"course_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	Category     string `json:"category"`
	Provider     string `json:"provider"`
	ValidityDays *int   `json:"validity_days"`
	IsActive     bool   `json:"is_active"`
}

// CourseRecordItem is one completion listed on the course detail page.
type CourseRecordItem struct {
	RecordID  uint          `json:"training_record_id"`
	PersonID  uint          `json:"person_id"`
	Person    string        `json:"person"`
	Completed string        `json:"completed"`
	Expires   *string       `json:"expires"`
	Status    expiry.Status `json:"status"`
}

// CourseDetailResponse is a course with every completion of it.
type CourseDetailResponse struct {
	Course  CourseResponse     `json:"course"`
	Records []CourseRecordItem `json:"records"`
	Counts  expiry.Counts      `json:"counts"`
}

// SeedResult reports what the seed endpoint inserted.
type SeedResult struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}
