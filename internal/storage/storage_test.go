package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/dcurran1637/Certificate-management/pkg/cloudinary"
)

func TestLocalSaveAndDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := NewLocal(fs, "uploads", "uploads/")
	require.NoError(t, err)

	obj, err := store.Save(context.Background(), "cert-1.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, "cert-1.pdf", obj.Key)
	require.Equal(t, "/uploads/cert-1.pdf", obj.URL)

	content, err := afero.ReadFile(fs, "uploads/cert-1.pdf")
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(content))

	_, err = store.Save(context.Background(), "cert-1.pdf", strings.NewReader("again"))
	require.Error(t, err)

	require.NoError(t, store.Delete(context.Background(), obj.Key))
	exists, err := afero.Exists(fs, "uploads/cert-1.pdf")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, store.Delete(context.Background(), obj.Key))
}

func TestLocalRejectsTraversal(t *testing.T) {
	store, err := NewLocal(afero.NewMemMapFs(), "uploads", "/uploads")
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "../escape.pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrInvalidKey)
	require.ErrorIs(t, store.Delete(context.Background(), ".."), ErrInvalidKey)
}

func TestLocalSaveHonoursCancelledContext(t *testing.T) {
	store, err := NewLocal(afero.NewMemMapFs(), "uploads", "/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Save(ctx, "a.pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, context.Canceled)
}

type fakeAssets struct {
	uploaded  []byte
	destroyed []string
	err       error
}

func (f *fakeAssets) Upload(_ context.Context, name string, reader io.Reader) (cloudinary.Asset, error) {
	if f.err != nil {
		return cloudinary.Asset{}, f.err
	}
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, reader)
	f.uploaded = buf.Bytes()
	return cloudinary.Asset{PublicID: "training/" + name, ResourceType: "image", SecureURL: "https://res.example.com/" + name}, nil
}

func (f *fakeAssets) Destroy(_ context.Context, publicID, resourceType string) error {
	f.destroyed = append(f.destroyed, resourceType+"|"+publicID)
	return f.err
}

func TestCloudinaryStoreKeys(t *testing.T) {
	assets := &fakeAssets{}
	store := NewCloudinary(assets)

	obj, err := store.Save(context.Background(), "cert.pdf", strings.NewReader("data"))
	require.NoError(t, err)
	require.Equal(t, "image:training/cert.pdf", obj.Key)
	require.Equal(t, "https://res.example.com/cert.pdf", obj.URL)
	require.Equal(t, []byte("data"), assets.uploaded)

	require.NoError(t, store.Delete(context.Background(), obj.Key))
	require.Equal(t, []string{"image|training/cert.pdf"}, assets.destroyed)

	require.ErrorIs(t, store.Delete(context.Background(), "no-separator"), ErrInvalidKey)
}

func TestCloudinaryStorePropagatesErrors(t *testing.T) {
	store := NewCloudinary(&fakeAssets{err: errors.New("quota exceeded")})
	_, err := store.Save(context.Background(), "cert.pdf", strings.NewReader("data"))
	require.ErrorContains(t, err, "quota exceeded")
}
