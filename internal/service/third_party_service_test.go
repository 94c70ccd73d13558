package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/expiry"
	"github.com/dcurran1637/Certificate-management/internal/policy"
)

func newThirdPartyService(env *testEnv) *thirdPartyService {
	svc := NewThirdPartyService(env.thirdParty, env.attachments, env.validate, env.activity, testLogger()).(*thirdPartyService)
	svc.now = clock
	return svc
}

func TestThirdPartyCreateForSelf(t *testing.T) {
	env := newTestEnv(t)
	svc := newThirdPartyService(env)
	ctx := context.Background()
	me := env.seedPerson(t, "me@example.com", "Me")

	created, err := svc.Create(ctx, staffIdentity(me), dto.ThirdPartyCreateRequest{
		PersonID:       me.ID,
		Title:          "IPAF Licence",
		Provider:       "IPAF",
		CompletionDate: "2024-01-15",
		ExpiryDate:     "2024-08-01",
	}, fileHeader(t, "ipaf.pdf", pdfBytes))
	require.NoError(t, err)
	require.Equal(t, me.ID, created.PersonID)
	require.Equal(t, "2024-08-01", *created.ExpiryDate)
	require.Equal(t, expiry.StatusExpiringSoon, created.Status)
	require.Equal(t, "application/pdf", created.MimeType)
	require.Len(t, env.uploadedFiles(t), 1)

	listed, err := svc.List(ctx, staffIdentity(me), me.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "IPAF Licence", listed[0].Title)
}

func TestThirdPartyAccessRules(t *testing.T) {
	env := newTestEnv(t)
	svc := newThirdPartyService(env)
	ctx := context.Background()
	me := env.seedPerson(t, "me@example.com", "Me")
	other := env.seedPerson(t, "other@example.com", "Other")

	_, err := svc.Create(ctx, staffIdentity(me), dto.ThirdPartyCreateRequest{
		PersonID: other.ID, Title: "X", Provider: "Y", CompletionDate: "2024-01-01",
	}, nil)
	require.ErrorIs(t, err, policy.ErrForbidden)

	_, err = svc.List(ctx, staffIdentity(me), other.ID)
	require.ErrorIs(t, err, policy.ErrForbidden)

	_, err = svc.List(ctx, managerIdentity(), 0)
	require.ErrorIs(t, err, ErrValidation)

	cert := env.seedCert(t, me, "CSCS", "2024-01-01", nil)
	_, err = svc.Update(ctx, staffIdentity(me), cert.ID, dto.ThirdPartyUpdateRequest{
		Title: "CSCS", Provider: "CITB", CompletionDate: "2024-01-01",
	}, nil)
	require.ErrorIs(t, err, policy.ErrForbidden)
	require.ErrorIs(t, svc.Delete(ctx, staffIdentity(me), cert.ID), policy.ErrForbidden)
}

func TestThirdPartyCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newThirdPartyService(env)
	ctx := context.Background()
	me := env.seedPerson(t, "me@example.com", "Me")

	_, err := svc.Create(ctx, adminIdentity(), dto.ThirdPartyCreateRequest{
		PersonID: me.ID, Title: "X", Provider: "Y", CompletionDate: "2024-05-01", ExpiryDate: "2024-04-01",
	}, nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, adminIdentity(), dto.ThirdPartyCreateRequest{
		PersonID: me.ID, Title: "X", Provider: "Y", CompletionDate: "2024-05-01", ExpiryDate: "soon",
	}, nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, adminIdentity(), dto.ThirdPartyCreateRequest{
		PersonID: 999, Title: "X", Provider: "Y", CompletionDate: "2024-05-01",
	}, fileHeader(t, "x.pdf", pdfBytes))
	require.ErrorIs(t, err, ErrPersonNotFound)
	require.Empty(t, env.uploadedFiles(t))
}

func TestThirdPartyUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	svc := newThirdPartyService(env)
	ctx := context.Background()
	me := env.seedPerson(t, "me@example.com", "Me")

	created, err := svc.Create(ctx, adminIdentity(), dto.ThirdPartyCreateRequest{
		PersonID: me.ID, Title: "SMSTS", Provider: "CITB", CompletionDate: "2019-03-01", ExpiryDate: "2024-03-01",
	}, fileHeader(t, "old.pdf", pdfBytes))
	require.NoError(t, err)
	require.Equal(t, expiry.StatusExpired, created.Status)
	oldFiles := env.uploadedFiles(t)

	updated, err := svc.Update(ctx, managerIdentity(), created.ID, dto.ThirdPartyUpdateRequest{
		Title: "SMSTS Refresher", Provider: "CITB", CompletionDate: "2024-03-01", ExpiryDate: "2029-03-01",
	}, fileHeader(t, "new.pdf", pdfBytes))
	require.NoError(t, err)
	require.Equal(t, "SMSTS Refresher", updated.Title)
	require.Equal(t, expiry.StatusCurrent, updated.Status)

	files := env.uploadedFiles(t)
	require.Len(t, files, 1)
	require.NotEqual(t, oldFiles[0], files[0])

	keepsFile, err := svc.Update(ctx, managerIdentity(), created.ID, dto.ThirdPartyUpdateRequest{
		Title: "SMSTS Refresher", Provider: "CITB", CompletionDate: "2024-03-01",
	}, nil)
	require.NoError(t, err)
	require.Nil(t, keepsFile.ExpiryDate)
	require.Equal(t, updated.FilePath, keepsFile.FilePath)

	require.NoError(t, svc.Delete(ctx, adminIdentity(), created.ID))
	require.Empty(t, env.uploadedFiles(t))
	require.ErrorIs(t, svc.Delete(ctx, adminIdentity(), created.ID), ErrCertificationNotFound)

	_, err = svc.Update(ctx, adminIdentity(), created.ID, dto.ThirdPartyUpdateRequest{
		Title: "X", Provider: "Y", CompletionDate: "2024-01-01",
	}, nil)
	require.ErrorIs(t, err, ErrCertificationNotFound)

	require.Equal(t, []string{"thirdparty.create", "thirdparty.update", "thirdparty.update", "thirdparty.delete"}, env.activity.actions())
}
