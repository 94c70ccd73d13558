package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Every domain error unwraps to one of these so handlers can map
// them to a status code with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("validation failed")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrUnauthorized     = errors.New("unauthorized")
)

type domainError struct {
	kind    error
	message string
}

func (e *domainError) Error() string { return e.message }

func (e *domainError) Unwrap() error { return e.kind }

func newDomainError(kind error, message string) error {
	return &domainError{kind: kind, message: message}
}

func validationError(format string, args ...any) error {
	return newDomainError(ErrValidation, fmt.Sprintf(format, args...))
}

var (
	ErrPersonNotFound        = newDomainError(ErrNotFound, "person not found")
	ErrCourseNotFound        = newDomainError(ErrNotFound, "course not found")
	ErrRecordNotFound        = newDomainError(ErrNotFound, "training record not found")
	ErrCertificationNotFound = newDomainError(ErrNotFound, "certification not found")
	ErrAccountNotFound       = newDomainError(ErrNotFound, "no account is linked to this person")

	ErrEmailTaken      = newDomainError(ErrConflict, "an account with this email already exists")
	ErrCourseNameTaken = newDomainError(ErrConflict, "a course with this name already exists")

	ErrInvalidCredentials = newDomainError(ErrUnauthorized, "invalid email or password")

	ErrNoExpiry = newDomainError(ErrValidation, "certificate has no expiry date")

	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = newDomainError(ErrPayloadTooLarge, "file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = newDomainError(ErrUnsupportedMedia, "file type not allowed")
)

// notFoundAs replaces gorm.ErrRecordNotFound with target and leaves other
// errors untouched.
func notFoundAs(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
