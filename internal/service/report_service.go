package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/expiry"
	"github.com/dcurran1637/Certificate-management/internal/observability"
	"github.com/dcurran1637/Certificate-management/internal/policy"
	"github.com/dcurran1637/Certificate-management/internal/repository"
)

// ReportService aggregates training status across the organisation.
type ReportService interface {
	Stats(ctx context.Context, caller *policy.Identity) (dto.StatsResponse, error)
	Report(ctx context.Context, caller *policy.Identity, query dto.ReportQuery) ([]dto.ReportRow, error)
	ExportCSV(ctx context.Context, caller *policy.Identity, query dto.ReportQuery) ([]byte, error)
}

type reportService struct {
	people     repository.PersonRepository
	courses    repository.CourseRepository
	records    repository.TrainingRecordRepository
	thirdParty repository.ThirdPartyRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewReportService constructs the report service. A nil cache disables stats
// caching.
func NewReportService(
	people repository.PersonRepository,
	courses repository.CourseRepository,
	records repository.TrainingRecordRepository,
	thirdParty repository.ThirdPartyRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		people:     people,
		courses:    courses,
		records:    records,
		thirdParty: thirdParty,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger.With().Str("component", "report_service").Logger(),
		tracer:     otel.Tracer("github.com/dcurran1637/Certificate-management/internal/service/report"),
		now:        time.Now,
	}
}

func (s *reportService) Stats(ctx context.Context, caller *policy.Identity) (dto.StatsResponse, error) {
	if err := policy.Authorize(ctx, caller, policy.ReadAny, nil); err != nil {
		return dto.StatsResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "report.stats")
	defer span.End()

	now := s.now()
	// Statuses shift at midnight, so the day is part of the key.
	cacheKey := fmt.Sprintf("stats:summary:%s", expiry.DateOf(now).Format(expiry.DateLayout))

	if s.cache != nil && s.cacheTTL > 0 {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			var response dto.StatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.StatsCacheLookups().WithLabelValues("hit").Inc()
				span.SetAttributes(attribute.Bool("stats.cache_hit", true))
				return response, nil
			}
		case err != redis.Nil:
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
		}
		observability.StatsCacheLookups().WithLabelValues("miss").Inc()
	}

	totalStaff, err := s.people.CountActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count people failed")
		return dto.StatsResponse{}, err
	}
	activeCourses, err := s.courses.CountActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count courses failed")
		return dto.StatsResponse{}, err
	}

	statuses, err := s.statuses(ctx, repository.RecordFilter{}, repository.CertificationFilter{}, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load records failed")
		return dto.StatsResponse{}, err
	}

	var counts expiry.Counts
	current := 0
	for _, status := range statuses {
		counts.Add(status)
		if expiry.FilterValid.Matches(status) {
			current++
		}
	}

	response := dto.StatsResponse{
		TotalStaff:    totalStaff,
		ActiveCourses: activeCourses,
		ExpiringSoon:  counts.ExpiringSoon,
		CurrentCerts:  current,
		Expired:       counts.Expired,
		Counts:        counts,
	}
	span.SetAttributes(attribute.Int("stats.records", counts.Total))

	if s.cache != nil && s.cacheTTL > 0 {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store stats cache")
			}
		}
	}
	return response, nil
}

func (s *reportService) statuses(ctx context.Context, recordFilter repository.RecordFilter, certFilter repository.CertificationFilter, now time.Time) ([]expiry.Status, error) {
	records, err := s.records.List(ctx, recordFilter)
	if err != nil {
		return nil, err
	}
	certs, err := s.thirdParty.List(ctx, certFilter)
	if err != nil {
		return nil, err
	}

	statuses := make([]expiry.Status, 0, len(records)+len(certs))
	for _, record := range records {
		statuses = append(statuses, expiry.Classify(record.ExpiryDate, now))
	}
	for _, cert := range certs {
		statuses = append(statuses, expiry.Classify(cert.ExpiryDate, now))
	}
	return statuses, nil
}

func (s *reportService) Report(ctx context.Context, caller *policy.Identity, query dto.ReportQuery) ([]dto.ReportRow, error) {
	if err := policy.Authorize(ctx, caller, policy.Write, nil); err != nil {
		return nil, err
	}

	filter, err := expiry.ParseFilter(query.Type)
	if err != nil {
		return nil, validationError("%s", err.Error())
	}

	ctx, span := s.tracer.Start(ctx, "report.rows")
	defer span.End()
	span.SetAttributes(attribute.String("report.type", string(filter)))

	var personID *uint
	if query.PersonID > 0 {
		id := query.PersonID
		personID = &id
		span.SetAttributes(attribute.Int("report.person_id", int(id)))
	}

	records, err := s.records.List(ctx, repository.RecordFilter{PersonID: personID})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load records failed")
		return nil, err
	}
	certs, err := s.thirdParty.List(ctx, repository.CertificationFilter{PersonID: personID})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load certifications failed")
		return nil, err
	}

	now := s.now()
	rows := make([]dto.ReportRow, 0, len(records)+len(certs))
	for _, record := range records {
		status := expiry.Classify(record.ExpiryDate, now)
		if !filter.Matches(status) {
			continue
		}
		rows = append(rows, dto.ReportRow{
			Source:    dto.SourceInternal,
			RecordID:  record.ID,
			PersonID:  record.PersonID,
			StaffName: record.Person.DisplayName,
			Email:     record.Person.Email,
			Course:    record.Course.Name,
			Completed: formatDay(record.CompletionDate),
			Expires:   optionalDate(record.ExpiryDate),
			Assessor:  record.Assessor,
			Status:    status,
		})
	}
	for _, cert := range certs {
		status := expiry.Classify(cert.ExpiryDate, now)
		if !filter.Matches(status) {
			continue
		}
		rows = append(rows, dto.ReportRow{
			Source:    dto.SourceThirdParty,
			RecordID:  cert.ID,
			PersonID:  cert.PersonID,
			StaffName: cert.Person.DisplayName,
			Email:     cert.Person.Email,
			Course:    cert.Title,
			Completed: formatDay(cert.CompletionDate),
			Expires:   optionalDate(cert.ExpiryDate),
			Assessor:  cert.Provider,
			Status:    status,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		left, right := strings.ToLower(rows[i].StaffName), strings.ToLower(rows[j].StaffName)
		if left != right {
			return left < right
		}
		left, right = strings.ToLower(rows[i].Course), strings.ToLower(rows[j].Course)
		if left != right {
			return left < right
		}
		return rows[i].RecordID < rows[j].RecordID
	})

	span.SetAttributes(attribute.Int("report.rows", len(rows)))
	return rows, nil
}

var reportHeader = []string{"Staff Name", "Email", "Course", "Completed", "Expires", "Assessor", "Status"}

func (s *reportService) ExportCSV(ctx context.Context, caller *policy.Identity, query dto.ReportQuery) ([]byte, error) {
	rows, err := s.Report(ctx, caller, query)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(reportHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		expires := ""
		if row.Expires != nil {
			expires = *row.Expires
		}
		record := []string{row.StaffName, row.Email, row.Course, row.Completed, expires, row.Assessor, statusLabel(row.Status)}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func statusLabel(status expiry.Status) string {
	switch status {
	case expiry.StatusExpired:
		return "Expired"
	case expiry.StatusExpiringSoon:
		return "Expiring Soon"
	default:
		return "Current"
	}
}
