package gifts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/pkg/db"
	"github.com/mayagift/giftbloom-backend/pkg/db/models"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/logger"
	"github.com/mayagift/giftbloom-backend/pkg/pagination"
)

type stubImageStore struct {
	uploaded  map[string]string
	deleted   []string
	deleteErr error
}

func newStubImageStore() *stubImageStore {
	return &stubImageStore{uploaded: map[string]string{}}
}

func (s *stubImageStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	s.uploaded[key] = contentType
	return "https://img.example.com/" + key, nil
}

func (s *stubImageStore) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return s.deleteErr
}

func newTestService(t *testing.T) (Service, *Repository, *stubImageStore) {
	t.Helper()
	dsn := "file:gifts_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Category{}, &models.Gift{}, &models.GiftImage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := NewRepository(conn)
	images := newStubImageStore()
	svc, err := NewService(ServiceParams{
		DB:         db.NewFromConn(conn),
		Repository: repo,
		ImageStore: images,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo, images
}

func seedCategory(t *testing.T, svc Service, name string) *CategoryDTO {
	t.Helper()
	category, err := svc.CreateCategory(context.Background(), CreateCategoryInput{Name: name})
	if err != nil {
		t.Fatalf("seed category %s: %v", name, err)
	}
	return category
}

func TestCreateAndGetGift(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	category := seedCategory(t, svc, "Flowers")

	created, err := svc.CreateGift(ctx, CreateGiftInput{
		Name:         "Rose Bouquet",
		CategoryID:   category.ID,
		Price:        decimal.RequireFromString("1500"),
		Stock:        10,
		AllowMessage: true,
		AllowAddOns:  true,
		AddOnLabels:  []string{"chocolates", "card"},
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("create gift: %v", err)
	}

	got, err := svc.GetGift(ctx, created.ID)
	if err != nil {
		t.Fatalf("get gift: %v", err)
	}
	if got.Name != "Rose Bouquet" {
		t.Fatalf("unexpected name %q", got.Name)
	}
	if !got.Price.Equal(decimal.RequireFromString("1500")) {
		t.Fatalf("unexpected price %s", got.Price)
	}
	if got.CategoryName != "Flowers" {
		t.Fatalf("expected category name preloaded, got %q", got.CategoryName)
	}
	if len(got.AddOnLabels) != 2 {
		t.Fatalf("expected 2 addon labels, got %d", len(got.AddOnLabels))
	}
}

func TestCreateGiftValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	category := seedCategory(t, svc, "Flowers")

	cases := []struct {
		name  string
		input CreateGiftInput
	}{
		{"empty name", CreateGiftInput{CategoryID: category.ID, Price: decimal.NewFromInt(10)}},
		{"negative price", CreateGiftInput{Name: "X", CategoryID: category.ID, Price: decimal.NewFromInt(-1)}},
		{"negative stock", CreateGiftInput{Name: "X", CategoryID: category.ID, Price: decimal.NewFromInt(1), Stock: -1}},
		{"addons without labels", CreateGiftInput{Name: "X", CategoryID: category.ID, Price: decimal.NewFromInt(1), AllowAddOns: true}},
		{"unknown category", CreateGiftInput{Name: "X", CategoryID: uuid.New(), Price: decimal.NewFromInt(1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateGift(ctx, tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestListGiftsFiltersAndPages(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	flowers := seedCategory(t, svc, "Flowers")
	hampers := seedCategory(t, svc, "Hampers")

	for i, seed := range []struct {
		name     string
		category uuid.UUID
		active   bool
	}{
		{"Rose Bouquet", flowers.ID, true},
		{"Tulip Bundle", flowers.ID, true},
		{"Chocolate Hamper", hampers.ID, true},
		{"Retired Wreath", flowers.ID, false},
	} {
		_, err := svc.CreateGift(ctx, CreateGiftInput{
			Name:       seed.name,
			CategoryID: seed.category,
			Price:      decimal.NewFromInt(int64(100 * (i + 1))),
			Stock:      5,
			IsActive:   seed.active,
		})
		if err != nil {
			t.Fatalf("seed gift %s: %v", seed.name, err)
		}
	}

	result, err := svc.ListGifts(ctx, ListGiftsInput{CategoryID: &flowers.ID})
	if err != nil {
		t.Fatalf("list gifts: %v", err)
	}
	if len(result.Gifts) != 2 {
		t.Fatalf("expected 2 active flower gifts, got %d", len(result.Gifts))
	}

	adminResult, err := svc.ListGifts(ctx, ListGiftsInput{CategoryID: &flowers.ID, IncludeInactive: true})
	if err != nil {
		t.Fatalf("admin list gifts: %v", err)
	}
	if len(adminResult.Gifts) != 3 {
		t.Fatalf("expected 3 flower gifts for admin, got %d", len(adminResult.Gifts))
	}

	paged, err := svc.ListGifts(ctx, ListGiftsInput{Pagination: pagination.Params{Limit: 2}})
	if err != nil {
		t.Fatalf("paged list: %v", err)
	}
	if len(paged.Gifts) != 2 || paged.NextCursor == "" {
		t.Fatalf("expected first page of 2 with cursor, got %d (%q)", len(paged.Gifts), paged.NextCursor)
	}

	second, err := svc.ListGifts(ctx, ListGiftsInput{Pagination: pagination.Params{Limit: 2, Cursor: paged.NextCursor}})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Gifts) != 1 {
		t.Fatalf("expected 1 gift on second page, got %d", len(second.Gifts))
	}
	if second.Gifts[0].ID == paged.Gifts[0].ID || second.Gifts[0].ID == paged.Gifts[1].ID {
		t.Fatalf("second page repeated a gift")
	}

	searched, err := svc.ListGifts(ctx, ListGiftsInput{Query: "bouquet"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(searched.Gifts) != 1 || searched.Gifts[0].Name != "Rose Bouquet" {
		t.Fatalf("unexpected search result: %+v", searched.Gifts)
	}
}

func TestUpdateGiftPartial(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	category := seedCategory(t, svc, "Flowers")

	created, err := svc.CreateGift(ctx, CreateGiftInput{
		Name:       "Rose Bouquet",
		CategoryID: category.ID,
		Price:      decimal.NewFromInt(1500),
		Stock:      10,
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("create gift: %v", err)
	}

	newPrice := decimal.NewFromInt(1800)
	inactive := false
	updated, err := svc.UpdateGift(ctx, created.ID, UpdateGiftInput{
		Price:    &newPrice,
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("update gift: %v", err)
	}
	if !updated.Price.Equal(newPrice) {
		t.Fatalf("expected price updated, got %s", updated.Price)
	}
	if updated.IsActive {
		t.Fatal("expected gift deactivated")
	}
	if updated.Name != "Rose Bouquet" {
		t.Fatalf("name should be untouched, got %q", updated.Name)
	}
	if updated.Stock != 10 {
		t.Fatalf("stock should be untouched, got %d", updated.Stock)
	}
}

func TestDeleteCategoryBlockedWhileInUse(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	category := seedCategory(t, svc, "Flowers")

	if _, err := svc.CreateGift(ctx, CreateGiftInput{
		Name:       "Rose Bouquet",
		CategoryID: category.ID,
		Price:      decimal.NewFromInt(1500),
		IsActive:   true,
	}); err != nil {
		t.Fatalf("seed gift: %v", err)
	}

	err := svc.DeleteCategory(ctx, category.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict while category in use, got %v", err)
	}

	empty := seedCategory(t, svc, "Empty")
	if err := svc.DeleteCategory(ctx, empty.ID); err != nil {
		t.Fatalf("delete empty category: %v", err)
	}
}

func TestAttachAndRemoveGiftImage(t *testing.T) {
	svc, repo, images := newTestService(t)
	ctx := context.Background()
	category := seedCategory(t, svc, "Flowers")

	created, err := svc.CreateGift(ctx, CreateGiftInput{
		Name:       "Rose Bouquet",
		CategoryID: category.ID,
		Price:      decimal.NewFromInt(1500),
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("create gift: %v", err)
	}

	withImage, err := svc.AttachGiftImage(ctx, created.ID, AttachImageInput{
		ContentType: "image/png",
		Body:        strings.NewReader("png-bytes"),
		IsPrimary:   true,
	})
	if err != nil {
		t.Fatalf("attach image: %v", err)
	}
	if len(withImage.Images) != 1 || !withImage.Images[0].IsPrimary {
		t.Fatalf("expected one primary image, got %+v", withImage.Images)
	}
	if len(images.uploaded) != 1 {
		t.Fatalf("expected an upload, got %d", len(images.uploaded))
	}

	second, err := svc.AttachGiftImage(ctx, created.ID, AttachImageInput{
		ContentType: "image/jpeg",
		Body:        strings.NewReader("jpg-bytes"),
		IsPrimary:   true,
	})
	if err != nil {
		t.Fatalf("attach second image: %v", err)
	}
	primaries := 0
	for _, img := range second.Images {
		if img.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		t.Fatalf("expected exactly one primary image, got %d", primaries)
	}

	if err := svc.RemoveGiftImage(ctx, created.ID, second.Images[0].ID); err != nil {
		t.Fatalf("remove image: %v", err)
	}
	if len(images.deleted) != 1 {
		t.Fatalf("expected host delete, got %d", len(images.deleted))
	}

	if _, err := repo.FindImage(ctx, created.ID, second.Images[0].ID); err == nil {
		t.Fatal("expected image row removed")
	}
}

func TestDeleteGiftLogsImageCleanupFailures(t *testing.T) {
	dsn := "file:gifts_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Category{}, &models.Gift{}, &models.GiftImage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var logs bytes.Buffer
	images := newStubImageStore()
	svc, err := NewService(ServiceParams{
		DB:         db.NewFromConn(conn),
		Repository: NewRepository(conn),
		ImageStore: images,
		Logger:     logger.New(logger.Options{ServiceName: "gifts-test", Output: &logs}),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	ctx := context.Background()
	category := seedCategory(t, svc, "Flowers")
	created, err := svc.CreateGift(ctx, CreateGiftInput{
		Name:       "Rose Bouquet",
		CategoryID: category.ID,
		Price:      decimal.NewFromInt(1500),
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("create gift: %v", err)
	}
	for _, body := range []string{"png-one", "png-two"} {
		if _, err := svc.AttachGiftImage(ctx, created.ID, AttachImageInput{
			ContentType: "image/png",
			Body:        strings.NewReader(body),
		}); err != nil {
			t.Fatalf("attach image: %v", err)
		}
	}

	images.deleteErr = errors.New("bucket unavailable")
	if err := svc.DeleteGift(ctx, created.ID); err != nil {
		t.Fatalf("delete gift: %v", err)
	}

	// Both objects were attempted and the failures surfaced in the log.
	if len(images.deleted) != 2 {
		t.Fatalf("expected 2 delete attempts, got %d", len(images.deleted))
	}
	logged := logs.String()
	if !strings.Contains(logged, "gifts.image_cleanup_failed") || !strings.Contains(logged, "bucket unavailable") {
		t.Fatalf("cleanup failure not logged: %s", logged)
	}
	if _, err := svc.GetGift(ctx, created.ID); pkgerrors.As(err) == nil {
		t.Fatal("expected gift removed despite cleanup failure")
	}
}
