package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Asset is an uploaded file.
type Asset struct {
	PublicID     string
	ResourceType string
	SecureURL    string
}

// Service uploads and destroys certificate evidence files.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload sends the file to Cloudinary.
func (s *Service) Upload(ctx context.Context, name string, reader io.Reader) (Asset, error) {
	params := uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     PublicID(name),
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return Asset{}, fmt.Errorf("upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return Asset{}, fmt.Errorf("upload asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("certificate file uploaded")

	return Asset{
		PublicID:     result.PublicID,
		ResourceType: result.ResourceType,
		SecureURL:    result.SecureURL,
	}, nil
}

// Destroy removes an uploaded asset.
func (s *Service) Destroy(ctx context.Context, publicID, resourceType string) error {
	result, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("destroy asset: %w", err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("destroy asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", publicID).Str("result", result.Result).Msg("certificate file removed")
	return nil
}

// PublicID derives a unique, URL-safe public id from a file name.
func PublicID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "certificate"
	}

	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
}
