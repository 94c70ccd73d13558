package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/feedtoken"
	"github.com/dcurran1637/Certificate-management/internal/ical"
	"github.com/dcurran1637/Certificate-management/internal/observability"
	"github.com/dcurran1637/Certificate-management/internal/policy"
	"github.com/dcurran1637/Certificate-management/internal/repository"
)

const (
	uidDomain   = "training-system"
	alarmBefore = 14 * 24 * time.Hour
)

// FeedKind selects how a person's calendar is published. The kind is part of
// every event UID so a subscription and a downloaded export never collide in
// the same client.
type FeedKind string

const (
	FeedSubscription FeedKind = "person"
	FeedExport       FeedKind = "export"
)

// CalendarDocument is a rendered iCalendar file.
type CalendarDocument struct {
	FileName string
	Body     []byte
}

// CalendarService renders certificate expiries as iCalendar documents.
type CalendarService interface {
	PersonFeed(ctx context.Context, caller *policy.Identity, personID uint, kind FeedKind) (CalendarDocument, error)
	Certification(ctx context.Context, caller *policy.Identity, certID uint) (CalendarDocument, error)
	FeedLink(ctx context.Context, caller *policy.Identity, personID uint, baseURL string) (dto.CalendarLinkResponse, error)
}

type calendarService struct {
	people     repository.PersonRepository
	records    repository.TrainingRecordRepository
	thirdParty repository.ThirdPartyRepository
	tokens     *feedtoken.Signer
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewCalendarService constructs the calendar service.
func NewCalendarService(people repository.PersonRepository, records repository.TrainingRecordRepository, thirdParty repository.ThirdPartyRepository, tokens *feedtoken.Signer, logger zerolog.Logger) CalendarService {
	return &calendarService{
		people:     people,
		records:    records,
		thirdParty: thirdParty,
		tokens:     tokens,
		logger:     logger.With().Str("component", "calendar_service").Logger(),
		tracer:     otel.Tracer("github.com/dcurran1637/Certificate-management/internal/service/calendar"),
		now:        time.Now,
	}
}

func (s *calendarService) PersonFeed(ctx context.Context, caller *policy.Identity, personID uint, kind FeedKind) (CalendarDocument, error) {
	if err := policy.Authorize(ctx, caller, policy.ReadOwnOrPrivileged, policy.Owner(personID)); err != nil {
		return CalendarDocument{}, err
	}
	if kind != FeedExport {
		kind = FeedSubscription
	}

	ctx, span := s.tracer.Start(ctx, "calendar.person_feed")
	defer span.End()
	span.SetAttributes(
		attribute.Int("calendar.person_id", int(personID)),
		attribute.String("calendar.kind", string(kind)),
	)

	person, err := s.people.GetByID(ctx, personID)
	if err != nil {
		return CalendarDocument{}, notFoundAs(err, ErrPersonNotFound)
	}

	records, err := s.records.List(ctx, repository.RecordFilter{PersonID: &person.ID, HasExpiry: true})
	if err != nil {
		return CalendarDocument{}, err
	}
	certs, err := s.thirdParty.List(ctx, repository.CertificationFilter{PersonID: &person.ID, HasExpiry: true})
	if err != nil {
		return CalendarDocument{}, err
	}

	events := make([]ical.Event, 0, len(records)+len(certs))
	for _, record := range records {
		events = append(events, ical.Event{
			UID:         fmt.Sprintf("%s-%d-internal-%d@%s", kind, person.ID, record.ID, uidDomain),
			Summary:     "Certificate expiry - " + record.Course.Name,
			Date:        *record.ExpiryDate,
			AlarmBefore: alarmBefore,
		})
	}
	for _, cert := range certs {
		events = append(events, ical.Event{
			UID:         fmt.Sprintf("%s-%d-third-%d@%s", kind, person.ID, cert.ID, uidDomain),
			Summary:     "Certificate expiry - " + cert.Title,
			Date:        *cert.ExpiryDate,
			AlarmBefore: alarmBefore,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	calendar := ical.Calendar{
		Name:   "Certificate expiries - " + person.DisplayName,
		Events: events,
	}
	span.SetAttributes(attribute.Int("calendar.events", len(events)))
	observability.CalendarExports().WithLabelValues(string(kind)).Inc()

	document := CalendarDocument{Body: calendar.Render(s.now())}
	if kind == FeedExport {
		document.FileName = fmt.Sprintf("cert-expiries-%d.ics", person.ID)
	}
	return document, nil
}

func (s *calendarService) Certification(ctx context.Context, caller *policy.Identity, certID uint) (CalendarDocument, error) {
	owner := func(ctx context.Context) (uint, error) {
		personID, err := s.thirdParty.OwnerOf(ctx, certID)
		return personID, notFoundAs(err, ErrCertificationNotFound)
	}
	if err := policy.Authorize(ctx, caller, policy.ReadOwnOrPrivileged, owner); err != nil {
		return CalendarDocument{}, err
	}

	ctx, span := s.tracer.Start(ctx, "calendar.certification")
	defer span.End()
	span.SetAttributes(attribute.Int("calendar.cert_id", int(certID)))

	cert, err := s.thirdParty.GetByID(ctx, certID)
	if err != nil {
		return CalendarDocument{}, notFoundAs(err, ErrCertificationNotFound)
	}
	if cert.ExpiryDate == nil {
		return CalendarDocument{}, ErrNoExpiry
	}

	calendar := ical.Calendar{
		Events: []ical.Event{{
			UID:         fmt.Sprintf("thirdparty-%d@%s", cert.ID, uidDomain),
			Summary:     "Certificate expiry - " + cert.Title,
			Description: fmt.Sprintf("%s (%s) certificate expires", cert.Person.DisplayName, cert.Person.Email),
			Date:        *cert.ExpiryDate,
			AlarmBefore: alarmBefore,
		}},
	}
	observability.CalendarExports().WithLabelValues("thirdparty").Inc()

	return CalendarDocument{
		FileName: fmt.Sprintf("thirdparty-%d.ics", cert.ID),
		Body:     calendar.Render(s.now()),
	}, nil
}

func (s *calendarService) FeedLink(ctx context.Context, caller *policy.Identity, personID uint, baseURL string) (dto.CalendarLinkResponse, error) {
	if err := policy.Authorize(ctx, caller, policy.ReadOwnOrPrivileged, policy.Owner(personID)); err != nil {
		return dto.CalendarLinkResponse{}, err
	}

	if _, err := s.people.GetByID(ctx, personID); err != nil {
		return dto.CalendarLinkResponse{}, notFoundAs(err, ErrPersonNotFound)
	}

	token, expiresAt, err := s.tokens.Issue(personID)
	if err != nil {
		return dto.CalendarLinkResponse{}, err
	}

	response := dto.CalendarLinkResponse{
		URL:   fmt.Sprintf("%s/api/person/%d/calendar.ics?token=%s", strings.TrimRight(baseURL, "/"), personID, token),
		Token: token,
	}
	if !expiresAt.IsZero() {
		response.ExpiresAt = expiresAt.UTC().Format(time.RFC3339)
	}
	return response, nil
}
