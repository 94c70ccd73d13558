package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/models"
	"github.com/dcurran1637/Certificate-management/internal/policy"
	"github.com/dcurran1637/Certificate-management/internal/repository"
	"github.com/dcurran1637/Certificate-management/internal/storage"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func testLogger() zerolog.Logger { return zerolog.Nop() }

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func dayPtr(value string) *time.Time {
	parsed := day(value)
	return &parsed
}

var pdfBytes = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type recordingActivity struct {
	mu      sync.Mutex
	entries []ActivityEntry
}

func (r *recordingActivity) Record(_ context.Context, entry ActivityEntry) (dto.ActivityEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return dto.ActivityEntry{Action: entry.Action, EntityType: entry.EntityType}, nil
}

func (r *recordingActivity) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

type testEnv struct {
	db          *gorm.DB
	people      repository.PersonRepository
	accounts    repository.AccountRepository
	courses     repository.CourseRepository
	records     repository.TrainingRecordRepository
	thirdParty  repository.ThirdPartyRepository
	fs          afero.Fs
	attachments AttachmentService
	activity    *recordingActivity
	validate    *validator.Validate
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	fs := afero.NewMemMapFs()
	store, err := storage.NewLocal(fs, "uploads", "/uploads")
	require.NoError(t, err)

	return &testEnv{
		db:          db,
		people:      repository.NewPersonRepository(db),
		accounts:    repository.NewAccountRepository(db),
		courses:     repository.NewCourseRepository(db),
		records:     repository.NewTrainingRecordRepository(db),
		thirdParty:  repository.NewThirdPartyRepository(db),
		fs:          fs,
		attachments: NewAttachmentService(store, 1024*1024, testLogger()),
		activity:    &recordingActivity{},
		validate:    validator.New(),
	}
}

func (e *testEnv) uploadedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := afero.ReadDir(e.fs, "uploads")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func (e *testEnv) seedPerson(t *testing.T, email, name string) models.Person {
	t.Helper()
	person, err := e.people.Upsert(context.Background(), email, name)
	require.NoError(t, err)
	return person
}

func (e *testEnv) seedAccount(t *testing.T, email string, role policy.Role) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", Role: string(role)}
	require.NoError(t, e.accounts.Register(context.Background(), &user, email))
	return user
}

func (e *testEnv) seedCourse(t *testing.T, name string, validityDays *int) models.Course {
	t.Helper()
	course := models.Course{Name: name, Type: defaultCourseType, ValidityDays: validityDays, IsActive: true}
	require.NoError(t, e.courses.Create(context.Background(), &course, defaultCourseCategory, ""))
	return course
}

func (e *testEnv) seedRecord(t *testing.T, person models.Person, course models.Course, completion string, expires *time.Time) models.TrainingRecord {
	t.Helper()
	record := models.TrainingRecord{CourseID: course.ID, CompletionDate: day(completion), ExpiryDate: expires}
	require.NoError(t, e.records.CreateForPerson(context.Background(), person.Email, person.DisplayName, &record, nil))
	return record
}

func (e *testEnv) seedCert(t *testing.T, person models.Person, title, completion string, expires *time.Time) models.ThirdPartyCertification {
	t.Helper()
	cert := models.ThirdPartyCertification{
		PersonID:       person.ID,
		Title:          title,
		Provider:       "External Body",
		CompletionDate: day(completion),
		ExpiryDate:     expires,
	}
	require.NoError(t, e.thirdParty.Create(context.Background(), &cert))
	return cert
}

func adminIdentity() *policy.Identity {
	return &policy.Identity{UserID: 1, PersonID: 1000, Role: policy.RoleAdmin, Email: "admin@example.com"}
}

func managerIdentity() *policy.Identity {
	return &policy.Identity{UserID: 2, PersonID: 1001, Role: policy.RoleManager, Email: "manager@example.com"}
}

func staffIdentity(person models.Person) *policy.Identity {
	return &policy.Identity{UserID: 100 + person.ID, PersonID: person.ID, Role: policy.RoleUser, Email: person.Email}
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}
