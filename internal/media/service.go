package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/mayagift/giftbloom-backend/pkg/config"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
)

var allowedImageTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

type objectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// Service handles hosted image uploads with type and size limits enforced
// before any bytes reach the object store.
type Service struct {
	store objectStore
	cfg   config.MediaConfig
}

// UploadResult identifies the stored object.
type UploadResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// NewService builds the media service on the provided object store.
func NewService(store objectStore, cfg config.MediaConfig) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	return &Service{store: store, cfg: cfg}, nil
}

// UploadImage validates and stores an image under the given key prefix.
func (s *Service) UploadImage(ctx context.Context, prefix, contentType string, body io.Reader) (*UploadResult, error) {
	ext, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported image type")
	}
	if body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image body is required")
	}

	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	if maxBytes > 0 {
		body = io.LimitReader(body, maxBytes+1)
	}

	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "uploads"
	}
	key := fmt.Sprintf("%s/%s.%s", prefix, uuid.NewString(), ext)

	url, err := s.store.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}
	return &UploadResult{Key: key, URL: url}, nil
}

// Delete removes a stored object. Missing objects are not an error.
func (s *Service) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "object key is required")
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image")
	}
	return nil
}

// Upload satisfies the narrow store interface used by the catalog service.
func (s *Service) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	return s.store.Upload(ctx, key, contentType, body)
}
