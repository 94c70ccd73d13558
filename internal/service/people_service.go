package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/expiry"
	"github.com/dcurran1637/Certificate-management/internal/policy"
	"github.com/dcurran1637/Certificate-management/internal/repository"
)

// PeopleService serves per-person views of training.
type PeopleService interface {
	List(ctx context.Context, caller *policy.Identity) ([]dto.PersonRollup, error)
	Summary(ctx context.Context, caller *policy.Identity, personID uint) (dto.PersonSummary, error)
	MyTraining(ctx context.Context, caller *policy.Identity, personID uint) (dto.MyTrainingResponse, error)
	UpdateRole(ctx context.Context, caller *policy.Identity, personID uint, req dto.RoleUpdateRequest) (dto.RoleUpdateResponse, error)
}

type peopleService struct {
	people     repository.PersonRepository
	accounts   repository.AccountRepository
	records    repository.TrainingRecordRepository
	thirdParty repository.ThirdPartyRepository
	validator  *validator.Validate
	activity   ActivityRecorder
	logger     zerolog.Logger
	now        func() time.Time
}

// NewPeopleService constructs the people service.
func NewPeopleService(
	people repository.PersonRepository,
	accounts repository.AccountRepository,
	records repository.TrainingRecordRepository,
	thirdParty repository.ThirdPartyRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) PeopleService {
	return &peopleService{
		people:     people,
		accounts:   accounts,
		records:    records,
		thirdParty: thirdParty,
		validator:  validate,
		activity:   activity,
		logger:     logger.With().Str("component", "people_service").Logger(),
		now:        time.Now,
	}
}

func (s *peopleService) List(ctx context.Context, caller *policy.Identity) ([]dto.PersonRollup, error) {
	if err := policy.Authorize(ctx, caller, policy.Write, nil); err != nil {
		return nil, err
	}

	people, err := s.people.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.records.List(ctx, repository.RecordFilter{})
	if err != nil {
		return nil, err
	}
	certs, err := s.thirdParty.List(ctx, repository.CertificationFilter{})
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(people))
	for _, person := range people {
		ids = append(ids, person.ID)
	}
	roles, err := s.accounts.RolesByPerson(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	counts := make(map[uint]*expiry.Counts, len(people))
	for _, id := range ids {
		counts[id] = &expiry.Counts{}
	}
	for _, record := range records {
		if c, ok := counts[record.PersonID]; ok {
			c.Add(expiry.Classify(record.ExpiryDate, now))
		}
	}
	for _, cert := range certs {
		if c, ok := counts[cert.PersonID]; ok {
			c.Add(expiry.Classify(cert.ExpiryDate, now))
		}
	}

	rollups := make([]dto.PersonRollup, 0, len(people))
	for _, person := range people {
		c := counts[person.ID]
		rollups = append(rollups, dto.PersonRollup{
			PersonID:      person.ID,
			Name:          person.DisplayName,
			Email:         person.Email,
			Role:          roles[person.ID],
			TotalTraining: c.Total,
			Current:       c.Current,
			ExpiringSoon:  c.ExpiringSoon,
			Expired:       c.Expired,
		})
	}
	return rollups, nil
}

func (s *peopleService) Summary(ctx context.Context, caller *policy.Identity, personID uint) (dto.PersonSummary, error) {
	if err := policy.Authorize(ctx, caller, policy.ReadOwnOrPrivileged, policy.Owner(personID)); err != nil {
		return dto.PersonSummary{}, err
	}

	person, err := s.people.GetByID(ctx, personID)
	if err != nil {
		return dto.PersonSummary{}, notFoundAs(err, ErrPersonNotFound)
	}
	roles, err := s.accounts.RolesByPerson(ctx, []uint{person.ID})
	if err != nil {
		return dto.PersonSummary{}, err
	}

	records, err := s.records.List(ctx, repository.RecordFilter{PersonID: &person.ID})
	if err != nil {
		return dto.PersonSummary{}, err
	}
	certs, err := s.thirdParty.List(ctx, repository.CertificationFilter{PersonID: &person.ID})
	if err != nil {
		return dto.PersonSummary{}, err
	}

	now := s.now()
	summary := dto.PersonSummary{
		Person: dto.PersonProfile{
			PersonID: person.ID,
			Name:     person.DisplayName,
			Email:    person.Email,
			Role:     roles[person.ID],
		},
		Training:   make([]dto.SummaryTrainingItem, 0, len(records)),
		ThirdParty: make([]dto.ThirdPartyResponse, 0, len(certs)),
	}

	for _, record := range records {
		status := expiry.Classify(record.ExpiryDate, now)
		summary.Counts.Add(status)
		item := dto.SummaryTrainingItem{
			RecordID:  record.ID,
			CourseID:  record.CourseID,
			Course:    record.Course.Name,
			Completed: formatDay(record.CompletionDate),
			Expires:   optionalDate(record.ExpiryDate),
			Assessor:  record.Assessor,
			Notes:     record.Notes,
			Status:    status,
		}
		if latest := latestAttachment(record.Attachments); latest != nil {
			path, mime := latest.FilePath, latest.MimeType
			item.FilePath = &path
			item.MimeType = &mime
		}
		summary.Training = append(summary.Training, item)
	}
	for _, cert := range certs {
		response := toThirdPartyResponse(cert, now)
		summary.Counts.Add(response.Status)
		summary.ThirdParty = append(summary.ThirdParty, response)
	}
	return summary, nil
}

func (s *peopleService) MyTraining(ctx context.Context, caller *policy.Identity, personID uint) (dto.MyTrainingResponse, error) {
	if caller != nil && personID == 0 {
		personID = caller.PersonID
	}
	if err := policy.RequireSelf(caller, personID); err != nil {
		return dto.MyTrainingResponse{}, err
	}

	records, err := s.records.List(ctx, repository.RecordFilter{PersonID: &personID})
	if err != nil {
		return dto.MyTrainingResponse{}, err
	}
	certs, err := s.thirdParty.List(ctx, repository.CertificationFilter{PersonID: &personID})
	if err != nil {
		return dto.MyTrainingResponse{}, err
	}

	now := s.now()
	response := dto.MyTrainingResponse{List: make([]dto.MyTrainingItem, 0, len(records)+len(certs))}
	for _, record := range records {
		item := dto.MyTrainingItem{
			ID:        record.ID,
			Source:    dto.SourceInternal,
			Course:    record.Course.Name,
			Completed: formatDay(record.CompletionDate),
			Expires:   optionalDate(record.ExpiryDate),
			Assessor:  record.Assessor,
			Status:    expiry.Classify(record.ExpiryDate, now),
		}
		response.Counts.Add(item.Status)
		response.List = append(response.List, item)
	}
	for _, cert := range certs {
		item := dto.MyTrainingItem{
			ID:        cert.ID,
			Source:    dto.SourceThirdParty,
			Course:    cert.Title,
			Completed: formatDay(cert.CompletionDate),
			Expires:   optionalDate(cert.ExpiryDate),
			Assessor:  cert.Provider,
			Status:    expiry.Classify(cert.ExpiryDate, now),
		}
		response.Counts.Add(item.Status)
		response.List = append(response.List, item)
	}

	sort.SliceStable(response.List, func(i, j int) bool {
		return response.List[i].Completed > response.List[j].Completed
	})
	return response, nil
}

func (s *peopleService) UpdateRole(ctx context.Context, caller *policy.Identity, personID uint, req dto.RoleUpdateRequest) (dto.RoleUpdateResponse, error) {
	if err := policy.Authorize(ctx, caller, policy.AdminOnly, nil); err != nil {
		return dto.RoleUpdateResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.RoleUpdateResponse{}, err
	}

	role, err := policy.ParseRole(req.Role)
	if err != nil {
		return dto.RoleUpdateResponse{}, validationError("role must be one of admin, manager or user")
	}

	user, err := s.accounts.UpdateRoleByPerson(ctx, personID, string(role))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RoleUpdateResponse{}, ErrAccountNotFound
		}
		return dto.RoleUpdateResponse{}, err
	}

	s.logger.Info().Uint("person_id", personID).Str("role", user.Role).Msg("role updated")
	audit(ctx, s.activity, s.logger, caller, "person.role_update", "person", personID, map[string]any{"role": user.Role})
	return dto.RoleUpdateResponse{PersonID: personID, Role: user.Role}, nil
}
