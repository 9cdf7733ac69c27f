package media

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/mayagift/giftbloom-backend/pkg/config"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
)

type stubStore struct {
	lastKey         string
	lastContentType string
	deleted         []string
}

func (s *stubStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	s.lastKey = key
	s.lastContentType = contentType
	_, _ = io.Copy(io.Discard, body)
	return "https://img.example.com/" + key, nil
}

func (s *stubStore) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func TestUploadImage(t *testing.T) {
	store := &stubStore{}
	svc, err := NewService(store, config.MediaConfig{MaxUploadMB: 10})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	result, err := svc.UploadImage(context.Background(), "carts/custom", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(result.Key, "carts/custom/") || !strings.HasSuffix(result.Key, ".png") {
		t.Fatalf("unexpected key %q", result.Key)
	}
	if result.URL != "https://img.example.com/"+result.Key {
		t.Fatalf("unexpected url %q", result.URL)
	}
	if store.lastContentType != "image/png" {
		t.Fatalf("unexpected content type %q", store.lastContentType)
	}
}

func TestUploadImageRejectsUnsupportedType(t *testing.T) {
	svc, err := NewService(&stubStore{}, config.MediaConfig{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.UploadImage(context.Background(), "gifts", "application/pdf", strings.NewReader("%PDF"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteRequiresKey(t *testing.T) {
	store := &stubStore{}
	svc, err := NewService(store, config.MediaConfig{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	if err := svc.Delete(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank key")
	}
	if err := svc.Delete(context.Background(), "gifts/a.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "gifts/a.png" {
		t.Fatalf("unexpected deletes %v", store.deleted)
	}
}
