package dto

import "github.com/dcurran1637/Certificate-management/internal/expiry"

// ThirdPartyCreateRequest is the multipart form of POST /api/thirdparty.
type ThirdPartyCreateRequest struct {
	PersonID       uint   `form:"person_id" validate:"required"`
	Title          string `form:"title" validate:"required,max=255"`
	Provider       string `form:"provider" validate:"required,max=255"`
	CompletionDate string `form:"completion_date" validate:"required"`
	ExpiryDate     string `form:"expiry_date"`
	Notes          string `form:"notes" validate:"max=4000"`
}

// ThirdPartyUpdateRequest is the multipart form of PUT /api/thirdparty/:id.
type ThirdPartyUpdateRequest struct {
	Title          string `form:"title" validate:"required,max=255"`
	Provider       string `form:"provider" validate:"required,max=255"`
	CompletionDate string `form:"completion_date" validate:"required"`
	ExpiryDate     string `form:"expiry_date"`
	Notes          string `form:"notes" validate:"max=4000"`
}

// ThirdPartyResponse is a third-party certification.
type ThirdPartyResponse struct {
	ID             uint          `json:"cert_id"`
	PersonID       uint          `json:"person_id"`
	Title          string        `json:"title"`
	Provider       string        `json:"provider"`
	CompletionDate string        `json:"completion_date"`
	ExpiryDate     *string       `json:"expiry_date"`
	Notes          string        `json:"notes"`
	FilePath       string        `json:"file_path,omitempty"`
	MimeType       string        `json:"mime_type,omitempty"`
	Status         expiry.Status `json:"status"`
}
