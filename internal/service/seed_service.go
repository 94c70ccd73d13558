package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService loads an initial course catalogue.
type SeedService interface {
	SeedCourses(ctx context.Context, token string, items []dto.CourseCreateRequest) (dto.SeedResult, error)
}

type seedService struct {
	courses *courseService
	enabled bool
	token   string
	logger  zerolog.Logger
}

// NewSeedService constructs a seeding service. Seeded courses go through the
// same validation as courses created over the API.
func NewSeedService(courses repository.CourseRepository, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	logger = logger.With().Str("component", "seed_service").Logger()
	return &seedService{
		courses: &courseService{courses: courses, validator: validate, logger: logger},
		enabled: enabled,
		token:   token,
		logger:  logger,
	}
}

func intPtr(v int) *int { return &v }

// defaultCatalogue is seeded when the request carries no courses.
func defaultCatalogue() []dto.CourseCreateRequest {
	return []dto.CourseCreateRequest{
		{Name: "Fire Safety Awareness", Type: defaultCourseType, CategoryName: "Health & Safety", ValidityDays: intPtr(365)},
		{Name: "First Aid at Work", Type: defaultCourseType, CategoryName: "Health & Safety", ValidityDays: intPtr(1095)},
		{Name: "Manual Handling", Type: defaultCourseType, CategoryName: "Health & Safety", ValidityDays: intPtr(365)},
		{Name: "Data Protection Essentials", Type: "E-Learning", CategoryName: "Compliance", ValidityDays: intPtr(730)},
		{Name: "Company Induction", Type: defaultCourseType, CategoryName: defaultCourseCategory},
	}
}

func (s *seedService) SeedCourses(ctx context.Context, token string, items []dto.CourseCreateRequest) (dto.SeedResult, error) {
	if !s.enabled {
		return dto.SeedResult{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.SeedResult{}, ErrSeedUnauthorized
	}
	if len(items) == 0 {
		items = defaultCatalogue()
	}

	result := dto.SeedResult{Created: []string{}, Skipped: []string{}}
	for _, item := range items {
		exists, err := s.courses.courses.ExistsByName(ctx, item.Name)
		if err != nil {
			return dto.SeedResult{}, err
		}
		if exists {
			result.Skipped = append(result.Skipped, item.Name)
			continue
		}

		course, err := s.courses.create(ctx, item)
		if errors.Is(err, ErrCourseNameTaken) {
			result.Skipped = append(result.Skipped, item.Name)
			continue
		}
		if err != nil {
			return dto.SeedResult{}, err
		}
		result.Created = append(result.Created, course.Name)
	}

	s.logger.Info().Int("created", len(result.Created)).Int("skipped", len(result.Skipped)).Msg("courses seeded")
	return result, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
