package service

import (
	"context"
	"errors"
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

const (
	defaultCourseType     = "Individual Training"
	defaultCourseCategory = "Other"
)

// CourseService manages the internal course catalogue.
type CourseService interface {
	List(ctx context.Context, caller *policy.Identity) ([]dto.CourseResponse, error)
	Create(ctx context.Context, caller *policy.Identity, req dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, caller *policy.Identity, id uint, req dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Details(ctx context.Context, caller *policy.Identity, id uint) (dto.CourseDetailResponse, error)
}

type courseService struct {
	courses   repository.CourseRepository
	records   repository.TrainingRecordRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCourseService constructs the course service.
func NewCourseService(courses repository.CourseRepository, records repository.TrainingRecordRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courses,
		records:   records,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "course_service").Logger(),
		now:       time.Now,
	}
}

func (s *courseService) List(ctx context.Context, caller *policy.Identity) ([]dto.CourseResponse, error) {
	if err := policy.Authorize(ctx, caller, policy.ReadAny, nil); err != nil {
		return nil, err
	}

	courses, err := s.courses.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, toCourseResponse(course))
	}
	return responses, nil
}

func (s *courseService) Create(ctx context.Context, caller *policy.Identity, req dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := policy.Authorize(ctx, caller, policy.Write, nil); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.create(ctx, req)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	audit(ctx, s.activity, s.logger, caller, "course.create", "course", course.ID, map[string]any{"name": course.Name})
	return toCourseResponse(course), nil
}

// create validates and inserts a course without an authorization check. The
// seed service reuses it.
func (s *courseService) create(ctx context.Context, req dto.CourseCreateRequest) (models.Course, error) {
	req.Name = cleanText(req.Name)
	req.Description = cleanText(req.Description)
	req.Type = cleanText(req.Type)
	req.CategoryName = cleanText(req.CategoryName)
	req.ProviderName = cleanText(req.ProviderName)
	if err := s.validator.Struct(req); err != nil {
		return models.Course{}, err
	}

	if req.Type == "" {
		req.Type = defaultCourseType
	}
	if req.CategoryName == "" {
		req.CategoryName = defaultCourseCategory
	}

	course := models.Course{
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		ValidityDays: req.ValidityDays,
		IsActive:     true,
	}
	if err := s.courses.Create(ctx, &course, req.CategoryName, req.ProviderName); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Course{}, ErrCourseNameTaken
		}
		s.logger.Error().Err(err).Str("name", req.Name).Msg("failed to create course")
		return models.Course{}, err
	}
	return course, nil
}

func (s *courseService) Update(ctx context.Context, caller *policy.Identity, id uint, req dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := policy.Authorize(ctx, caller, policy.Write, nil); err != nil {
		return dto.CourseResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, notFoundAs(err, ErrCourseNotFound)
	}

	categoryName := ""
	if course.Category != nil {
		categoryName = course.Category.Name
	}
	providerName := ""
	if course.Provider != nil {
		providerName = course.Provider.Name
	}

	if req.Name != nil {
		name := cleanText(*req.Name)
		if name == "" {
			return dto.CourseResponse{}, validationError("name must not be empty")
		}
		course.Name = name
	}
	if req.Description != nil {
		course.Description = cleanText(*req.Description)
	}
	if req.Type != nil {
		if value := cleanText(*req.Type); value != "" {
			course.Type = value
		}
	}
	if req.CategoryName != nil {
		categoryName = cleanText(*req.CategoryName)
		if categoryName == "" {
			categoryName = defaultCourseCategory
		}
	}
	if req.ProviderName != nil {
		providerName = cleanText(*req.ProviderName)
	}
	switch {
	case req.ClearValidity:
		course.ValidityDays = nil
	case req.ValidityDays != nil:
		days := *req.ValidityDays
		course.ValidityDays = &days
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}

	if err := s.courses.Update(ctx, &course, categoryName, providerName); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CourseResponse{}, ErrCourseNameTaken
		}
		s.logger.Error().Err(err).Uint("course_id", id).Msg("failed to update course")
		return dto.CourseResponse{}, err
	}

	audit(ctx, s.activity, s.logger, caller, "course.update", "course", course.ID, map[string]any{"name": course.Name})
	return toCourseResponse(course), nil
}

func (s *courseService) Details(ctx context.Context, caller *policy.Identity, id uint) (dto.CourseDetailResponse, error) {
	if err := policy.Authorize(ctx, caller, policy.ReadAny, nil); err != nil {
		return dto.CourseDetailResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return dto.CourseDetailResponse{}, notFoundAs(err, ErrCourseNotFound)
	}

	courseID := course.ID
	records, err := s.records.List(ctx, repository.RecordFilter{
		CourseID: &courseID,
		PersonID: policy.Scope(caller),
	})
	if err != nil {
		return dto.CourseDetailResponse{}, err
	}

	now := s.now()
	response := dto.CourseDetailResponse{
		Course:  toCourseResponse(course),
		Records: make([]dto.CourseRecordItem, 0, len(records)),
	}
	for _, record := range records {
		status := expiry.Classify(record.ExpiryDate, now)
		response.Counts.Add(status)
		response.Records = append(response.Records, dto.CourseRecordItem{
			RecordID:  record.ID,
			PersonID:  record.PersonID,
			Person:    record.Person.DisplayName,
			Completed: formatDay(record.CompletionDate),
			Expires:   optionalDate(record.ExpiryDate),
			Status:    status,
		})
	}
	return response, nil
}

func toCourseResponse(course models.Course) dto.CourseResponse {
	response := dto.CourseResponse{
		ID:           course.ID,
		Name:         course.Name,
		Description:  course.Description,
		Type:         course.Type,
		ValidityDays: course.ValidityDays,
		IsActive:     course.IsActive,
	}
	if course.Category != nil {
		response.Category = course.Category.Name
	}
	if course.Provider != nil {
		response.Provider = course.Provider.Name
	}
	return response
}
