package service

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/expiry"
	"github.com/dcurran1637/Certificate-management/internal/models"
	"github.com/dcurran1637/Certificate-management/internal/policy"
	"github.com/dcurran1637/Certificate-management/internal/repository"
)

// ThirdPartyService manages certifications gained outside the catalogue.
type ThirdPartyService interface {
	List(ctx context.Context, caller *policy.Identity, personID uint) ([]dto.ThirdPartyResponse, error)
	Create(ctx context.Context, caller *policy.Identity, req dto.ThirdPartyCreateRequest, file *multipart.FileHeader) (dto.ThirdPartyResponse, error)
	Update(ctx context.Context, caller *policy.Identity, id uint, req dto.ThirdPartyUpdateRequest, file *multipart.FileHeader) (dto.ThirdPartyResponse, error)
	Delete(ctx context.Context, caller *policy.Identity, id uint) error
}

type thirdPartyService struct {
	certs       repository.ThirdPartyRepository
	attachments AttachmentService
	validator   *validator.Validate
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewThirdPartyService constructs the third-party certification service.
func NewThirdPartyService(certs repository.ThirdPartyRepository, attachments AttachmentService, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) ThirdPartyService {
	return &thirdPartyService{
		certs:       certs,
		attachments: attachments,
		validator:   validate,
		activity:    activity,
		logger:      logger.With().Str("component", "third_party_service").Logger(),
		now:         time.Now,
	}
}

func (s *thirdPartyService) List(ctx context.Context, caller *policy.Identity, personID uint) ([]dto.ThirdPartyResponse, error) {
	if err := policy.Authorize(ctx, caller, policy.ReadOwnOrPrivileged, policy.Owner(personID)); err != nil {
		return nil, err
	}
	if personID == 0 {
		return nil, validationError("person_id is required")
	}

	certs, err := s.certs.List(ctx, repository.CertificationFilter{PersonID: &personID})
	if err != nil {
		return nil, err
	}

	now := s.now()
	responses := make([]dto.ThirdPartyResponse, 0, len(certs))
	for _, cert := range certs {
		responses = append(responses, toThirdPartyResponse(cert, now))
	}
	return responses, nil
}

func (s *thirdPartyService) Create(ctx context.Context, caller *policy.Identity, req dto.ThirdPartyCreateRequest, file *multipart.FileHeader) (dto.ThirdPartyResponse, error) {
	if err := policy.Authorize(ctx, caller, policy.ReadOwnOrPrivileged, policy.Owner(req.PersonID)); err != nil {
		return dto.ThirdPartyResponse{}, err
	}

	req.Title = cleanText(req.Title)
	req.Provider = cleanText(req.Provider)
	req.Notes = cleanText(req.Notes)
	if err := s.validator.Struct(req); err != nil {
		return dto.ThirdPartyResponse{}, err
	}

	completion, expiresOn, err := parseCertificationDates(req.CompletionDate, req.ExpiryDate)
	if err != nil {
		return dto.ThirdPartyResponse{}, err
	}

	stored, err := s.attachments.Store(ctx, file)
	if err != nil {
		return dto.ThirdPartyResponse{}, err
	}

	cert := models.ThirdPartyCertification{
		PersonID:       req.PersonID,
		Title:          req.Title,
		Provider:       req.Provider,
		CompletionDate: completion,
		ExpiryDate:     expiresOn,
		Notes:          req.Notes,
	}
	applyStoredFile(&cert, stored)

	if err := s.certs.Create(ctx, &cert); err != nil {
		if stored != nil {
			s.attachments.Remove(ctx, stored.Key)
		}
		s.logger.Error().Err(err).Uint("person_id", req.PersonID).Msg("failed to create certification")
		return dto.ThirdPartyResponse{}, notFoundAs(err, ErrPersonNotFound)
	}

	audit(ctx, s.activity, s.logger, caller, "thirdparty.create", "third_party_certification", cert.ID, map[string]any{
		"person_id": cert.PersonID,
		"title":     cert.Title,
	})
	return toThirdPartyResponse(cert, s.now()), nil
}

func (s *thirdPartyService) Update(ctx context.Context, caller *policy.Identity, id uint, req dto.ThirdPartyUpdateRequest, file *multipart.FileHeader) (dto.ThirdPartyResponse, error) {
	if err := policy.Authorize(ctx, caller, policy.Write, nil); err != nil {
		return dto.ThirdPartyResponse{}, err
	}

	req.Title = cleanText(req.Title)
	req.Provider = cleanText(req.Provider)
	req.Notes = cleanText(req.Notes)
	if err := s.validator.Struct(req); err != nil {
		return dto.ThirdPartyResponse{}, err
	}

	completion, expiresOn, err := parseCertificationDates(req.CompletionDate, req.ExpiryDate)
	if err != nil {
		return dto.ThirdPartyResponse{}, err
	}

	cert, err := s.certs.GetByID(ctx, id)
	if err != nil {
		return dto.ThirdPartyResponse{}, notFoundAs(err, ErrCertificationNotFound)
	}

	stored, err := s.attachments.Store(ctx, file)
	if err != nil {
		return dto.ThirdPartyResponse{}, err
	}

	previousKey := cert.StorageKey
	cert.Title = req.Title
	cert.Provider = req.Provider
	cert.CompletionDate = completion
	cert.ExpiryDate = expiresOn
	cert.Notes = req.Notes
	applyStoredFile(&cert, stored)

	if err := s.certs.Update(ctx, &cert); err != nil {
		if stored != nil {
			s.attachments.Remove(ctx, stored.Key)
		}
		s.logger.Error().Err(err).Uint("cert_id", id).Msg("failed to update certification")
		return dto.ThirdPartyResponse{}, notFoundAs(err, ErrCertificationNotFound)
	}
	if stored != nil && previousKey != "" {
		s.attachments.Remove(ctx, previousKey)
	}

	audit(ctx, s.activity, s.logger, caller, "thirdparty.update", "third_party_certification", cert.ID, map[string]any{
		"person_id":     cert.PersonID,
		"file_replaced": stored != nil,
	})
	return toThirdPartyResponse(cert, s.now()), nil
}

func (s *thirdPartyService) Delete(ctx context.Context, caller *policy.Identity, id uint) error {
	if err := policy.Authorize(ctx, caller, policy.Write, nil); err != nil {
		return err
	}

	cert, err := s.certs.Delete(ctx, id)
	if err != nil {
		return notFoundAs(err, ErrCertificationNotFound)
	}
	s.attachments.Remove(ctx, cert.StorageKey)

	audit(ctx, s.activity, s.logger, caller, "thirdparty.delete", "third_party_certification", id, map[string]any{
		"person_id": cert.PersonID,
	})
	return nil
}

func parseCertificationDates(completionValue, expiryValue string) (time.Time, *time.Time, error) {
	completion, err := parseCompletion(completionValue)
	if err != nil {
		return time.Time{}, nil, err
	}
	expiresOn, err := expiry.ParseOptionalDate(expiryValue)
	if err != nil {
		return time.Time{}, nil, validationError("expiry_date: %s", err.Error())
	}
	if expiresOn != nil && expiresOn.Before(completion) {
		return time.Time{}, nil, validationError("expiry_date must not be before completion_date")
	}
	return completion, expiresOn, nil
}

func applyStoredFile(cert *models.ThirdPartyCertification, stored *StoredFile) {
	if stored == nil {
		return
	}
	cert.FileName = stored.FileName
	cert.FilePath = stored.URL
	cert.StorageKey = stored.Key
	cert.MimeType = stored.MimeType
}

func toThirdPartyResponse(cert models.ThirdPartyCertification, now time.Time) dto.ThirdPartyResponse {
	return dto.ThirdPartyResponse{
		ID:             cert.ID,
		PersonID:       cert.PersonID,
		Title:          cert.Title,
		Provider:       cert.Provider,
		CompletionDate: formatDay(cert.CompletionDate),
		ExpiryDate:     optionalDate(cert.ExpiryDate),
		Notes:          cert.Notes,
		FilePath:       cert.FilePath,
		MimeType:       cert.MimeType,
		Status:         expiry.Classify(cert.ExpiryDate, now),
	}
}
