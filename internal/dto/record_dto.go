package dto

import "github.com/dcurran1637/Certificate-management/internal/expiry"

// Source distinguishes internal records from third-party certifications in
// merged listings.
type Source string

const (
	SourceInternal   Source = "internal"
	SourceThirdParty Source = "third_party"
)

// RecordCreateRequest is the multipart form of POST /api/records.
type RecordCreateRequest struct {
	Name           string `form:"name" validate:"required,max=255"`
	Email          string `form:"email" validate:"required,email,max=255"`
	CourseID       uint   `form:"course_id" validate:"required"`
	CompletionDate string `form:"completion_date" validate:"required"`
	Notes          string `form:"notes" validate:"max=4000"`
	Assessor       string `form:"assessor" validate:"max=255"`
}

// RecordUpdateRequest is the multipart form of PUT /api/records/:id.
type RecordUpdateRequest struct {
	CourseID       uint   `form:"course_id" validate:"required"`
	CompletionDate string `form:"completion_date" validate:"required"`
	Notes          string `form:"notes" validate:"max=4000"`
	Assessor       string `form:"assessor" validate:"max=255"`
}

// AttachmentResponse describes a stored evidence file.
type AttachmentResponse struct {
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	MimeType string `json:"mime_type"`
}

// RecordResponse is a single training record.
type RecordResponse struct {
	ID             uint                `json:"training_record_id"`
	PersonID       uint                `json:"person_id"`
	CourseID       uint                `json:"course_id"`
	Course         string              `json:"course"`
	CompletionDate string              `json:"completion_date"`
	ExpiryDate     *string             `json:"expiry_date"`
	Notes          string              `json:"notes"`
	Assessor       string              `json:"assessor"`
	Status         expiry.Status       `json:"status"`
	Attachment     *AttachmentResponse `json:"attachment,omitempty"`
}

// RecordListItem is one row of the merged records listing.
type RecordListItem struct {
	ID        uint          `json:"id"`
	Source    Source        `json:"source"`
	PersonID  uint          `json:"person_id"`
	Employee  string        `json:"employee"`
	Email     string        `json:"email"`
	Course    string        `json:"course"`
	Completed string        `json:"completed"`
	Expires   *string       `json:"expires"`
	Assessor  string        `json:"assessor"`
	Status    expiry.Status `json:"status"`
}

// ExpiringItem is one upcoming expiry.
type ExpiringItem struct {
	ID         uint          `json:"id"`
	Source     Source        `json:"source"`
	PersonID   uint          `json:"person_id"`
	Employee   string        `json:"employee"`
	Email      string        `json:"email"`
	Course     string        `json:"course"`
	ExpiryDate string        `json:"expiry_date"`
	Status     expiry.Status `json:"status"`
}
