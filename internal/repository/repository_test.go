package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dcurran1637/Certificate-management/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func intPtr(v int) *int { return &v }

func TestPersonUpsertCaseFoldsEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewPersonRepository(db)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, "  Jane.Doe@Example.COM ", "Jane")
	require.NoError(t, err)
	require.Equal(t, "jane.doe@example.com", first.Email)
	require.True(t, first.IsActive)

	second, err := repo.Upsert(ctx, "jane.doe@example.com", "Jane Doe")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Jane Doe", second.DisplayName)

	found, err := repo.GetByEmail(ctx, "JANE.DOE@example.com")
	require.NoError(t, err)
	require.Equal(t, first.ID, found.ID)

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	_, err = repo.GetByID(ctx, 999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAccountRegisterLinksPersonAndRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	user := models.User{Email: "Sam@Example.com", Username: "sam", PasswordHash: "hash", Role: "user"}
	require.NoError(t, repo.Register(ctx, &user, "sam"))
	require.NotNil(t, user.PersonID)
	require.Equal(t, "sam@example.com", user.Email)

	var person models.Person
	require.NoError(t, db.First(&person, *user.PersonID).Error)
	require.Equal(t, "sam", person.DisplayName)

	dup := models.User{Email: "sam@example.com", PasswordHash: "hash", Role: "user"}
	require.ErrorIs(t, repo.Register(ctx, &dup, ""), gorm.ErrDuplicatedKey)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.Equal(t, int64(1), users)
}

func TestAccountSyncPersonCreatesMissingPerson(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	user := models.User{Email: "legacy@example.com", PasswordHash: "hash", Role: "manager"}
	require.NoError(t, db.Create(&user).Error)
	require.Nil(t, user.PersonID)

	person, err := repo.SyncPerson(ctx, &user, "legacy")
	require.NoError(t, err)
	require.NotNil(t, user.PersonID)
	require.Equal(t, person.ID, *user.PersonID)

	reloaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, person.ID, *reloaded.PersonID)

	again, err := repo.SyncPerson(ctx, &reloaded, "legacy")
	require.NoError(t, err)
	require.Equal(t, person.ID, again.ID)
}

func TestAccountRolesAndRoleUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	user := models.User{Email: "ann@example.com", PasswordHash: "hash", Role: "user"}
	require.NoError(t, repo.Register(ctx, &user, "Ann"))

	updated, err := repo.UpdateRoleByPerson(ctx, *user.PersonID, "manager")
	require.NoError(t, err)
	require.Equal(t, "manager", updated.Role)

	roles, err := repo.RolesByPerson(ctx, []uint{*user.PersonID, 404})
	require.NoError(t, err)
	require.Equal(t, map[uint]string{*user.PersonID: "manager"}, roles)

	_, err = repo.UpdateRoleByPerson(ctx, 404, "admin")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	created, err := repo.EnsureAdmin(ctx, &models.User{Email: "ann@example.com", PasswordHash: "x", Role: "admin"}, "Admin")
	require.NoError(t, err)
	require.False(t, created)
}

func TestCourseCreateUpsertsCatalogue(t *testing.T) {
	db := newTestDB(t)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	first := models.Course{Name: "Fire Safety", Type: "Individual Training", ValidityDays: intPtr(365), IsActive: true}
	require.NoError(t, repo.Create(ctx, &first, "Health & Safety", "Acme Training"))
	second := models.Course{Name: "Manual Handling", Type: "Individual Training", IsActive: true}
	require.NoError(t, repo.Create(ctx, &second, "Health & Safety", ""))

	require.Equal(t, *first.CategoryID, *second.CategoryID)
	require.Nil(t, second.ProviderID)

	var categories int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	require.Equal(t, int64(1), categories)

	dup := models.Course{Name: "fire safety", Type: "Individual Training", IsActive: true}
	require.ErrorIs(t, repo.Create(ctx, &dup, "Other", ""), gorm.ErrDuplicatedKey)

	courses, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, "Fire Safety", courses[0].Name)
	require.Equal(t, "Acme Training", courses[0].Provider.Name)
	require.Equal(t, "Health & Safety", courses[1].Category.Name)

	exists, err := repo.ExistsByName(ctx, "MANUAL HANDLING")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestCourseUpdateKeepsNamesUnique(t *testing.T) {
	db := newTestDB(t)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	a := models.Course{Name: "A", Type: "Individual Training", IsActive: true}
	b := models.Course{Name: "B", Type: "Individual Training", IsActive: true}
	require.NoError(t, repo.Create(ctx, &a, "Other", ""))
	require.NoError(t, repo.Create(ctx, &b, "Other", ""))

	b.Name = "A"
	require.ErrorIs(t, repo.Update(ctx, &b, "Other", ""), gorm.ErrDuplicatedKey)

	b.Name = "B2"
	b.ValidityDays = intPtr(30)
	b.IsActive = false
	require.NoError(t, repo.Update(ctx, &b, "Compliance", "Vendor"))

	reloaded, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, "B2", reloaded.Name)
	require.Equal(t, 30, *reloaded.ValidityDays)
	require.Equal(t, "Compliance", reloaded.Category.Name)
	require.Equal(t, "Vendor", reloaded.Provider.Name)
	require.False(t, reloaded.IsActive)

	active, err := repo.CountActive(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), active)
}

func seedCourse(t *testing.T, db *gorm.DB, name string, validity *int) models.Course {
	t.Helper()
	course := models.Course{Name: name, Type: "Individual Training", ValidityDays: validity, IsActive: true}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func TestTrainingRecordCreateForPersonUpsertsPerson(t *testing.T) {
	db := newTestDB(t)
	repo := NewTrainingRecordRepository(db)
	ctx := context.Background()
	course := seedCourse(t, db, "First Aid", intPtr(365))

	expiry := day("2026-01-01")
	record := models.TrainingRecord{CourseID: course.ID, CompletionDate: day("2025-01-01"), ExpiryDate: &expiry, Assessor: "Bob"}
	attachment := models.Attachment{FileName: "cert.pdf", FilePath: "/uploads/a.pdf", StorageKey: "a.pdf", MimeType: "application/pdf"}
	require.NoError(t, repo.CreateForPerson(ctx, "New.Starter@example.com", "New Starter", &record, &attachment))

	require.NotZero(t, record.PersonID)
	require.Equal(t, "new.starter@example.com", record.Person.Email)
	require.Len(t, record.Attachments, 1)

	loaded, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, "First Aid", loaded.Course.Name)
	require.Equal(t, "2026-01-01", loaded.ExpiryDate.Format("2006-01-02"))
	require.Len(t, loaded.Attachments, 1)

	missingCourse := models.TrainingRecord{CourseID: 999, CompletionDate: day("2025-01-01")}
	require.ErrorIs(t, repo.CreateForPerson(ctx, "x@example.com", "X", &missingCourse, nil), gorm.ErrRecordNotFound)

	var people int64
	require.NoError(t, db.Model(&models.Person{}).Count(&people).Error)
	require.Equal(t, int64(1), people, "failed transaction must not leave a person behind")
}

func TestTrainingRecordListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewTrainingRecordRepository(db)
	ctx := context.Background()
	fire := seedCourse(t, db, "Fire Safety", intPtr(365))
	gdpr := seedCourse(t, db, "GDPR Basics", nil)

	expiry := day("2026-02-01")
	r1 := models.TrainingRecord{CourseID: fire.ID, CompletionDate: day("2025-02-01"), ExpiryDate: &expiry}
	r2 := models.TrainingRecord{CourseID: gdpr.ID, CompletionDate: day("2025-03-01")}
	require.NoError(t, repo.CreateForPerson(ctx, "alice@example.com", "Alice", &r1, nil))
	require.NoError(t, repo.CreateForPerson(ctx, "bob@example.com", "Bob", &r2, nil))

	all, err := repo.List(ctx, RecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, r2.ID, all[0].ID, "newest completion first")

	byName, err := repo.List(ctx, RecordFilter{Search: "ALICE"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, "Alice", byName[0].Person.DisplayName)

	byCourse, err := repo.List(ctx, RecordFilter{Search: "gdpr"})
	require.NoError(t, err)
	require.Len(t, byCourse, 1)

	expiring, err := repo.List(ctx, RecordFilter{HasExpiry: true})
	require.NoError(t, err)
	require.Len(t, expiring, 1)

	personID := r2.PersonID
	mine, err := repo.List(ctx, RecordFilter{PersonID: &personID, CourseID: &gdpr.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestTrainingRecordUpdateReplacesAttachment(t *testing.T) {
	db := newTestDB(t)
	repo := NewTrainingRecordRepository(db)
	ctx := context.Background()
	course := seedCourse(t, db, "Working at Height", intPtr(730))

	record := models.TrainingRecord{CourseID: course.ID, CompletionDate: day("2025-01-01")}
	old := models.Attachment{FileName: "old.pdf", FilePath: "/uploads/old.pdf", StorageKey: "old.pdf"}
	require.NoError(t, repo.CreateForPerson(ctx, "carl@example.com", "Carl", &record, &old))

	record.Notes = "refreshed"
	replacement := models.Attachment{FileName: "new.pdf", FilePath: "/uploads/new.pdf", StorageKey: "new.pdf"}
	replaced, err := repo.Update(ctx, &record, &replacement)
	require.NoError(t, err)
	require.Len(t, replaced, 1)
	require.Equal(t, "old.pdf", replaced[0].StorageKey)

	loaded, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, "refreshed", loaded.Notes)
	require.Len(t, loaded.Attachments, 1)
	require.Equal(t, "new.pdf", loaded.Attachments[0].StorageKey)

	replaced, err = repo.Update(ctx, &record, nil)
	require.NoError(t, err)
	require.Empty(t, replaced)
}

func TestTrainingRecordDeleteReturnsAttachments(t *testing.T) {
	db := newTestDB(t)
	repo := NewTrainingRecordRepository(db)
	ctx := context.Background()
	course := seedCourse(t, db, "COSHH", nil)

	record := models.TrainingRecord{CourseID: course.ID, CompletionDate: day("2025-01-01")}
	attachment := models.Attachment{FileName: "c.pdf", FilePath: "/uploads/c.pdf", StorageKey: "c.pdf"}
	require.NoError(t, repo.CreateForPerson(ctx, "dee@example.com", "Dee", &record, &attachment))

	deleted, err := repo.Delete(ctx, record.ID)
	require.NoError(t, err)
	require.Len(t, deleted.Attachments, 1)

	var attachments int64
	require.NoError(t, db.Model(&models.Attachment{}).Count(&attachments).Error)
	require.Zero(t, attachments)

	_, err = repo.Delete(ctx, record.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestThirdPartyRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewThirdPartyRepository(db)
	ctx := context.Background()

	person, err := NewPersonRepository(db).Upsert(ctx, "erin@example.com", "Erin")
	require.NoError(t, err)

	expiry := day("2025-06-30")
	cert := models.ThirdPartyCertification{PersonID: person.ID, Title: "Forklift Licence", Provider: "RTITB", CompletionDate: day("2024-06-30"), ExpiryDate: &expiry}
	require.NoError(t, repo.Create(ctx, &cert))
	require.Equal(t, "Erin", cert.Person.DisplayName)

	orphan := models.ThirdPartyCertification{PersonID: 404, Title: "X", Provider: "Y", CompletionDate: day("2024-01-01")}
	require.ErrorIs(t, repo.Create(ctx, &orphan), gorm.ErrRecordNotFound)

	owner, err := repo.OwnerOf(ctx, cert.ID)
	require.NoError(t, err)
	require.Equal(t, person.ID, owner)

	_, err = repo.OwnerOf(ctx, 404)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.List(ctx, CertificationFilter{Search: "rtitb"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	cert.ExpiryDate = nil
	cert.Title = "Forklift Licence (Counterbalance)"
	require.NoError(t, repo.Update(ctx, &cert))
	loaded, err := repo.GetByID(ctx, cert.ID)
	require.NoError(t, err)
	require.Nil(t, loaded.ExpiryDate)
	require.Equal(t, "Forklift Licence (Counterbalance)", loaded.Title)

	// saving unchanged values is still a success
	require.NoError(t, repo.Update(ctx, &cert))

	withExpiry, err := repo.List(ctx, CertificationFilter{HasExpiry: true})
	require.NoError(t, err)
	require.Empty(t, withExpiry)

	deleted, err := repo.Delete(ctx, cert.ID)
	require.NoError(t, err)
	require.Equal(t, cert.ID, deleted.ID)
	_, err = repo.GetByID(ctx, cert.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	cert.Title = "Renamed after delete"
	require.ErrorIs(t, repo.Update(ctx, &cert), gorm.ErrRecordNotFound)
}

func TestActivityLogRepositoryFiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	entityID := uint(7)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.ActivityLog{
			ActorID:    1,
			ActorRole:  "admin",
			Action:     "record.created",
			EntityType: "training_record",
			EntityID:   &entityID,
			Metadata:   datatypes.JSONMap{"index": i},
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: 2, ActorRole: "manager", Action: "course.created", EntityType: "course"}))

	entries, total, err := repo.List(ctx, ActivityLogFilter{Action: "record.created", Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, entries, 2)

	actor := uint(2)
	entries, total, err = repo.List(ctx, ActivityLogFilter{ActorID: &actor})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "course.created", entries[0].Action)

	entries, _, err = repo.List(ctx, ActivityLogFilter{EntityID: &entityID, EntityType: "training_record"})
	require.NoError(t, err)
	require.Len(t, entries, 3)
}
