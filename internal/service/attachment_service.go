package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dcurran1637/Certificate-management/internal/observability"
	"github.com/dcurran1637/Certificate-management/internal/storage"
)

// StoredFile describes an attachment that has been written to storage.
type StoredFile struct {
	FileName string
	Key      string
	URL      string
	MimeType string
	Size     int64
}

// AttachmentService validates evidence files and writes them to storage.
type AttachmentService interface {
	// Store returns nil, nil when no file was uploaded.
	Store(ctx context.Context, file *multipart.FileHeader) (*StoredFile, error)
	// Remove deletes stored files, logging failures.
	Remove(ctx context.Context, keys ...string)
}

type attachmentService struct {
	store   storage.FileStore
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
	now     func() time.Time
}

// NewAttachmentService constructs an attachment service that accepts files up
// to maxBytes.
func NewAttachmentService(store storage.FileStore, maxBytes int64, logger zerolog.Logger) AttachmentService {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &attachmentService{
		store:   store,
		logger:  logger.With().Str("component", "attachment_service").Logger(),
		maxSize: maxBytes,
		tracer:  otel.Tracer("github.com/dcurran1637/Certificate-management/internal/service/attachment"),
		now:     time.Now,
	}
}

func (s *attachmentService) Store(ctx context.Context, file *multipart.FileHeader) (*StoredFile, error) {
	if file == nil {
		return nil, nil
	}

	ctx, span := s.tracer.Start(ctx, "attachment.store")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("upload.max_bytes", s.maxSize),
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	start := s.now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return nil, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return nil, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, err
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return nil, ErrUploadTooLarge
	}

	detected := normalizeMime(mimetype.Detect(buf.Bytes()).String())
	span.SetAttributes(attribute.String("upload.detected_mime", detected))
	if !isAllowedType(detected) {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.RecordError(ErrUploadTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return nil, ErrUploadTypeNotAllowed
	}

	displayName := sanitizeFileName(file.Filename, s.now())
	storedName := fmt.Sprintf("%d_%s_%s", s.now().Unix(), uuid.NewString()[:8], displayName)
	span.SetAttributes(
		attribute.String("upload.sanitized_name", storedName),
		attribute.Int64("upload.size_bytes", int64(buf.Len())),
	)

	object, err := s.store.Save(ctx, storedName, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return nil, err
	}

	observability.UploadRequests().WithLabelValues(detected).Inc()
	span.SetStatus(codes.Ok, "stored")

	return &StoredFile{
		FileName: displayName,
		Key:      object.Key,
		URL:      object.URL,
		MimeType: detected,
		Size:     int64(buf.Len()),
	}, nil
}

func (s *attachmentService) Remove(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("failed to delete attachment file")
		}
	}
}

func sanitizeFileName(name string, now time.Time) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' || r == '.' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-.")
	if base == "" {
		base = fmt.Sprintf("certificate-%d", now.Unix())
	}
	if ext == "" || ext == "." {
		ext = ".bin"
	}
	return base + ext
}

func normalizeMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if idx := strings.Index(lower, ";"); idx >= 0 {
		lower = strings.TrimSpace(lower[:idx])
	}
	return lower
}

var allowedMimeTypes = map[string]struct{}{
	"application/pdf":    {},
	"image/png":          {},
	"image/jpeg":         {},
	"image/gif":          {},
	"image/webp":         {},
	"image/heic":         {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

func isAllowedType(m string) bool {
	_, ok := allowedMimeTypes[m]
	return ok
}
