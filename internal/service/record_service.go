package service

import (
	"context"
	"errors"
	"mime/multipart"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/expiry"
	"github.com/dcurran1637/Certificate-management/internal/models"
	"github.com/dcurran1637/Certificate-management/internal/policy"
	"github.com/dcurran1637/Certificate-management/internal/repository"
)

// RecordService manages internal training records.
type RecordService interface {
	List(ctx context.Context, caller *policy.Identity, search, status string) ([]dto.RecordListItem, error)
	Get(ctx context.Context, caller *policy.Identity, id uint) (dto.RecordResponse, error)
	Create(ctx context.Context, caller *policy.Identity, req dto.RecordCreateRequest, file *multipart.FileHeader) (dto.RecordResponse, error)
	Update(ctx context.Context, caller *policy.Identity, id uint, req dto.RecordUpdateRequest, file *multipart.FileHeader) (dto.RecordResponse, error)
	Delete(ctx context.Context, caller *policy.Identity, id uint) error
	Expiring(ctx context.Context, caller *policy.Identity) ([]dto.ExpiringItem, error)
}

type recordService struct {
	records     repository.TrainingRecordRepository
	courses     repository.CourseRepository
	people      repository.PersonRepository
	thirdParty  repository.ThirdPartyRepository
	attachments AttachmentService
	validator   *validator.Validate
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewRecordService constructs the training record service.
func NewRecordService(
	records repository.TrainingRecordRepository,
	courses repository.CourseRepository,
	people repository.PersonRepository,
	thirdParty repository.ThirdPartyRepository,
	attachments AttachmentService,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) RecordService {
	return &recordService{
		records:     records,
		courses:     courses,
		people:      people,
		thirdParty:  thirdParty,
		attachments: attachments,
		validator:   validate,
		activity:    activity,
		logger:      logger.With().Str("component", "record_service").Logger(),
		now:         time.Now,
	}
}

func (s *recordService) List(ctx context.Context, caller *policy.Identity, search, status string) ([]dto.RecordListItem, error) {
	if err := policy.Authorize(ctx, caller, policy.ReadAny, nil); err != nil {
		return nil, err
	}

	wanted, err := expiry.ParseStatus(status)
	if err != nil {
		return nil, validationError("%s", err.Error())
	}

	scope := policy.Scope(caller)
	records, err := s.records.List(ctx, repository.RecordFilter{PersonID: scope, Search: search})
	if err != nil {
		return nil, err
	}
	certs, err := s.thirdParty.List(ctx, repository.CertificationFilter{PersonID: scope, Search: search})
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]dto.RecordListItem, 0, len(records)+len(certs))
	for _, record := range records {
		item := dto.RecordListItem{
			ID:        record.ID,
			Source:    dto.SourceInternal,
			PersonID:  record.PersonID,
			Employee:  record.Person.DisplayName,
			Email:     record.Person.Email,
			Course:    record.Course.Name,
			Completed: formatDay(record.CompletionDate),
			Expires:   optionalDate(record.ExpiryDate),
			Assessor:  record.Assessor,
			Status:    expiry.Classify(record.ExpiryDate, now),
		}
		if wanted == "" || item.Status == wanted {
			items = append(items, item)
		}
	}
	for _, cert := range certs {
		item := dto.RecordListItem{
			ID:        cert.ID,
			Source:    dto.SourceThirdParty,
			PersonID:  cert.PersonID,
			Employee:  cert.Person.DisplayName,
			Email:     cert.Person.Email,
			Course:    cert.Title,
			Completed: formatDay(cert.CompletionDate),
			Expires:   optionalDate(cert.ExpiryDate),
			Assessor:  cert.Provider,
			Status:    expiry.Classify(cert.ExpiryDate, now),
		}
		if wanted == "" || item.Status == wanted {
			items = append(items, item)
		}
	}

	// YYYY-MM-DD strings sort chronologically.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Completed != items[j].Completed {
			return items[i].Completed > items[j].Completed
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

func (s *recordService) Get(ctx context.Context, caller *policy.Identity, id uint) (dto.RecordResponse, error) {
	if err := policy.Authorize(ctx, caller, policy.Write, nil); err != nil {
		return dto.RecordResponse{}, err
	}

	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return dto.RecordResponse{}, notFoundAs(err, ErrRecordNotFound)
	}
	return toRecordResponse(record, s.now()), nil
}

func (s *recordService) Create(ctx context.Context, caller *policy.Identity, req dto.RecordCreateRequest, file *multipart.FileHeader) (dto.RecordResponse, error) {
	req.Email = repository.NormalizeEmail(req.Email)

	// The owner of a new record is whoever holds the submitted email. Staff
	// may only submit for themselves; privileged callers may record training
	// for anyone, creating the person when needed.
	owner := func(ctx context.Context) (uint, error) {
		if req.Email == "" {
			return 0, nil
		}
		person, err := s.people.GetByEmail(ctx, req.Email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return person.ID, nil
	}
	if err := policy.Authorize(ctx, caller, policy.ReadOwnOrPrivileged, owner); err != nil {
		return dto.RecordResponse{}, err
	}

	req.Name = cleanText(req.Name)
	req.Notes = cleanText(req.Notes)
	req.Assessor = cleanText(req.Assessor)
	if err := s.validator.Struct(req); err != nil {
		return dto.RecordResponse{}, err
	}

	completion, err := parseCompletion(req.CompletionDate)
	if err != nil {
		return dto.RecordResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		return dto.RecordResponse{}, notFoundAs(err, ErrCourseNotFound)
	}

	stored, err := s.attachments.Store(ctx, file)
	if err != nil {
		return dto.RecordResponse{}, err
	}

	record := models.TrainingRecord{
		CourseID:       course.ID,
		CompletionDate: completion,
		ExpiryDate:     expiry.DeriveExpiry(completion, course.ValidityDays),
		Notes:          req.Notes,
		Assessor:       req.Assessor,
	}
	if err := s.records.CreateForPerson(ctx, req.Email, req.Name, &record, attachmentModel(stored)); err != nil {
		s.discard(ctx, stored)
		s.logger.Error().Err(err).Uint("course_id", req.CourseID).Msg("failed to create training record")
		return dto.RecordResponse{}, notFoundAs(err, ErrCourseNotFound)
	}
	record.Course = course

	audit(ctx, s.activity, s.logger, caller, "record.create", "training_record", record.ID, map[string]any{
		"person_id": record.PersonID,
		"course_id": record.CourseID,
	})
	return toRecordResponse(record, s.now()), nil
}

func (s *recordService) Update(ctx context.Context, caller *policy.Identity, id uint, req dto.RecordUpdateRequest, file *multipart.FileHeader) (dto.RecordResponse, error) {
	if err := policy.Authorize(ctx, caller, policy.Write, nil); err != nil {
		return dto.RecordResponse{}, err
	}

	req.Notes = cleanText(req.Notes)
	req.Assessor = cleanText(req.Assessor)
	if err := s.validator.Struct(req); err != nil {
		return dto.RecordResponse{}, err
	}

	completion, err := parseCompletion(req.CompletionDate)
	if err != nil {
		return dto.RecordResponse{}, err
	}

	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return dto.RecordResponse{}, notFoundAs(err, ErrRecordNotFound)
	}
	if record.ExpiryDate != nil && expiry.DateOf(completion).After(expiry.DateOf(*record.ExpiryDate)) {
		return dto.RecordResponse{}, validationError("completion_date must not be after the expiry date %s", expiry.FormatDate(record.ExpiryDate))
	}

	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		return dto.RecordResponse{}, notFoundAs(err, ErrCourseNotFound)
	}

	stored, err := s.attachments.Store(ctx, file)
	if err != nil {
		return dto.RecordResponse{}, err
	}

	record.CourseID = course.ID
	record.Course = course
	record.CompletionDate = completion
	record.Notes = req.Notes
	record.Assessor = req.Assessor

	attachment := attachmentModel(stored)
	replaced, err := s.records.Update(ctx, &record, attachment)
	if err != nil {
		s.discard(ctx, stored)
		s.logger.Error().Err(err).Uint("record_id", id).Msg("failed to update training record")
		return dto.RecordResponse{}, notFoundAs(err, ErrCourseNotFound)
	}
	if attachment != nil {
		record.Attachments = []models.Attachment{*attachment}
		s.attachments.Remove(ctx, attachmentKeys(replaced)...)
	}

	audit(ctx, s.activity, s.logger, caller, "record.update", "training_record", record.ID, map[string]any{
		"course_id":           record.CourseID,
		"attachment_replaced": attachment != nil,
	})
	return toRecordResponse(record, s.now()), nil
}

func (s *recordService) Delete(ctx context.Context, caller *policy.Identity, id uint) error {
	if err := policy.Authorize(ctx, caller, policy.Write, nil); err != nil {
		return err
	}

	record, err := s.records.Delete(ctx, id)
	if err != nil {
		return notFoundAs(err, ErrRecordNotFound)
	}
	s.attachments.Remove(ctx, attachmentKeys(record.Attachments)...)

	audit(ctx, s.activity, s.logger, caller, "record.delete", "training_record", id, map[string]any{
		"person_id": record.PersonID,
		"course_id": record.CourseID,
	})
	return nil
}

func (s *recordService) Expiring(ctx context.Context, caller *policy.Identity) ([]dto.ExpiringItem, error) {
	if err := policy.Authorize(ctx, caller, policy.ReadAny, nil); err != nil {
		return nil, err
	}

	scope := policy.Scope(caller)
	records, err := s.records.List(ctx, repository.RecordFilter{PersonID: scope, HasExpiry: true})
	if err != nil {
		return nil, err
	}
	certs, err := s.thirdParty.List(ctx, repository.CertificationFilter{PersonID: scope, HasExpiry: true})
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]dto.ExpiringItem, 0)
	for _, record := range records {
		if expiry.Classify(record.ExpiryDate, now) != expiry.StatusExpiringSoon {
			continue
		}
		items = append(items, dto.ExpiringItem{
			ID:         record.ID,
			Source:     dto.SourceInternal,
			PersonID:   record.PersonID,
			Employee:   record.Person.DisplayName,
			Email:      record.Person.Email,
			Course:     record.Course.Name,
			ExpiryDate: expiry.FormatDate(record.ExpiryDate),
			Status:     expiry.StatusExpiringSoon,
		})
	}
	for _, cert := range certs {
		if expiry.Classify(cert.ExpiryDate, now) != expiry.StatusExpiringSoon {
			continue
		}
		items = append(items, dto.ExpiringItem{
			ID:         cert.ID,
			Source:     dto.SourceThirdParty,
			PersonID:   cert.PersonID,
			Employee:   cert.Person.DisplayName,
			Email:      cert.Person.Email,
			Course:     cert.Title,
			ExpiryDate: expiry.FormatDate(cert.ExpiryDate),
			Status:     expiry.StatusExpiringSoon,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ExpiryDate != items[j].ExpiryDate {
			return items[i].ExpiryDate < items[j].ExpiryDate
		}
		return strings.ToLower(items[i].Employee) < strings.ToLower(items[j].Employee)
	})
	return items, nil
}

// discard removes a file stored for a write that did not commit.
func (s *recordService) discard(ctx context.Context, stored *StoredFile) {
	if stored != nil {
		s.attachments.Remove(ctx, stored.Key)
	}
}

func attachmentModel(stored *StoredFile) *models.Attachment {
	if stored == nil {
		return nil
	}
	return &models.Attachment{
		FileName:   stored.FileName,
		FilePath:   stored.URL,
		StorageKey: stored.Key,
		MimeType:   stored.MimeType,
		SizeBytes:  stored.Size,
	}
}

func attachmentKeys(attachments []models.Attachment) []string {
	keys := make([]string, 0, len(attachments))
	for _, attachment := range attachments {
		keys = append(keys, attachment.StorageKey)
	}
	return keys
}

// latestAttachment returns the newest attachment. Repositories preload
// attachments newest first.
func latestAttachment(attachments []models.Attachment) *models.Attachment {
	if len(attachments) == 0 {
		return nil
	}
	latest := attachments[0]
	for _, attachment := range attachments[1:] {
		if attachment.ID > latest.ID {
			latest = attachment
		}
	}
	return &latest
}

func toRecordResponse(record models.TrainingRecord, now time.Time) dto.RecordResponse {
	response := dto.RecordResponse{
		ID:             record.ID,
		PersonID:       record.PersonID,
		CourseID:       record.CourseID,
		Course:         record.Course.Name,
		CompletionDate: formatDay(record.CompletionDate),
		ExpiryDate:     optionalDate(record.ExpiryDate),
		Notes:          record.Notes,
		Assessor:       record.Assessor,
		Status:         expiry.Classify(record.ExpiryDate, now),
	}
	if latest := latestAttachment(record.Attachments); latest != nil {
		response.Attachment = &dto.AttachmentResponse{
			FileName: latest.FileName,
			FilePath: latest.FilePath,
			MimeType: latest.MimeType,
		}
	}
	return response
}
