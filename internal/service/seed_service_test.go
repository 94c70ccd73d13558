package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcurran1637/Certificate-management/internal/dto"
)

func TestSeedCoursesGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	disabled := NewSeedService(env.courses, env.validate, false, "token", testLogger())
	_, err := disabled.SeedCourses(ctx, "token", nil)
	require.ErrorIs(t, err, ErrSeedDisabled)

	svc := NewSeedService(env.courses, env.validate, true, "token", testLogger())
	_, err = svc.SeedCourses(ctx, "wrong", nil)
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	noToken := NewSeedService(env.courses, env.validate, true, "", testLogger())
	_, err = noToken.SeedCourses(ctx, "", nil)
	require.ErrorIs(t, err, ErrSeedUnauthorized)
}

func TestSeedCoursesDefaultCatalogueIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewSeedService(env.courses, env.validate, true, "token", testLogger())

	first, err := svc.SeedCourses(ctx, " token ", nil)
	require.NoError(t, err)
	require.Len(t, first.Created, len(defaultCatalogue()))
	require.Empty(t, first.Skipped)

	courses, err := env.courses.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, courses, len(defaultCatalogue()))

	second, err := svc.SeedCourses(ctx, "token", nil)
	require.NoError(t, err)
	require.Empty(t, second.Created)
	require.Len(t, second.Skipped, len(defaultCatalogue()))
}

func TestSeedCoursesCustomItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedCourse(t, "Asbestos Awareness", intPtr(365))
	svc := NewSeedService(env.courses, env.validate, true, "token", testLogger())

	result, err := svc.SeedCourses(ctx, "token", []dto.CourseCreateRequest{
		{Name: "Asbestos Awareness"},
		{Name: "Working at Height", ValidityDays: intPtr(1095)},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Working at Height"}, result.Created)
	require.Equal(t, []string{"Asbestos Awareness"}, result.Skipped)

	_, err = svc.SeedCourses(ctx, "token", []dto.CourseCreateRequest{{Name: ""}})
	require.Error(t, err)
}
