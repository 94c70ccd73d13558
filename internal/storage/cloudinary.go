package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dcurran1637/Certificate-management/pkg/cloudinary"
)

type assetStore interface {
	Upload(ctx context.Context, name string, reader io.Reader) (cloudinary.Asset, error)
	Destroy(ctx context.Context, publicID, resourceType string) error
}

// Cloudinary stores files as Cloudinary assets. Keys have the form
// resource_type:public_id.
type Cloudinary struct {
	assets assetStore
}

// NewCloudinary wraps a Cloudinary service.
func NewCloudinary(assets assetStore) *Cloudinary {
	return &Cloudinary{assets: assets}
}

func (c *Cloudinary) Save(ctx context.Context, name string, reader io.Reader) (Object, error) {
	asset, err := c.assets.Upload(ctx, name, reader)
	if err != nil {
		return Object{}, err
	}
	return Object{Key: asset.ResourceType + ":" + asset.PublicID, URL: asset.SecureURL}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	resourceType, publicID, ok := strings.Cut(key, ":")
	if !ok || publicID == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return c.assets.Destroy(ctx, publicID, resourceType)
}
