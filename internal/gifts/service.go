package gifts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/pkg/db"
	"github.com/mayagift/giftbloom-backend/pkg/db/models"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/logger"
	"github.com/mayagift/giftbloom-backend/pkg/pagination"
)

// Service exposes catalog browsing plus admin management of gifts and
// categories.
type Service interface {
	ListGifts(ctx context.Context, input ListGiftsInput) (*GiftListResult, error)
	GetGift(ctx context.Context, id uuid.UUID) (*GiftDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)

	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateGift(ctx context.Context, input CreateGiftInput) (*GiftDTO, error)
	UpdateGift(ctx context.Context, id uuid.UUID, input UpdateGiftInput) (*GiftDTO, error)
	DeleteGift(ctx context.Context, id uuid.UUID) error

	AttachGiftImage(ctx context.Context, giftID uuid.UUID, input AttachImageInput) (*GiftDTO, error)
	RemoveGiftImage(ctx context.Context, giftID, imageID uuid.UUID) error
}

// ListGiftsInput filters and pages the public catalog.
type ListGiftsInput struct {
	CategoryID      *uuid.UUID
	Query           string
	IncludeInactive bool
	Pagination      pagination.Params
}

// CreateCategoryInput holds the validated payload to create a category.
type CreateCategoryInput struct {
	Name        string
	Description *string
	ImageKey    *string
}

// UpdateCategoryInput holds optional mutation values for a category.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
	ImageKey    *string
}

// CreateGiftInput holds the validated payload to create a gift listing.
type CreateGiftInput struct {
	Name         string
	Description  *string
	CategoryID   uuid.UUID
	Price        decimal.Decimal
	Stock        int
	AllowMessage bool
	AllowAddOns  bool
	AllowImage   bool
	AddOnLabels  []string
	IsActive     bool
}

// UpdateGiftInput holds optional mutation values for a gift.
type UpdateGiftInput struct {
	Name         *string
	Description  *string
	CategoryID   *uuid.UUID
	Price        *decimal.Decimal
	Stock        *int
	AllowMessage *bool
	AllowAddOns  *bool
	AllowImage   *bool
	AddOnLabels  *[]string
	IsActive     *bool
}

// AttachImageInput carries the raw upload for a gift image.
type AttachImageInput struct {
	ContentType string
	Body        io.Reader
	IsPrimary   bool
}

type imageStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	db     *db.Client
	repo   *Repository
	images imageStore
	logg   *logger.Logger
}

// ServiceParams bundles the dependencies for the catalog service.
// ImageStore and Logger may be nil.
type ServiceParams struct {
	DB         *db.Client
	Repository *Repository
	ImageStore imageStore
	Logger     *logger.Logger
}

// NewService constructs the catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &service{
		db:     params.DB,
		repo:   params.Repository,
		images: params.ImageStore,
		logg:   params.Logger,
	}, nil
}

// cleanupImage removes a stored object after the database said no. Orphans at
// the image host are harmless, so failures are logged, not escalated.
func (s *service) cleanupImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil && s.logg != nil {
		logCtx := s.logg.WithField(ctx, "storage_key", key)
		s.logg.Error(logCtx, "gifts.image_cleanup_failed", err)
	}
}

func (s *service) ListGifts(ctx context.Context, input ListGiftsInput) (*GiftListResult, error) {
	rows, nextCursor, err := s.repo.ListGifts(ctx, listQuery{
		Pagination: input.Pagination,
		Filters: ListFilters{
			CategoryID:      input.CategoryID,
			Query:           input.Query,
			IncludeInactive: input.IncludeInactive,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list gifts")
	}

	out := make([]GiftDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *giftFromModel(&rows[i]))
	}
	return &GiftListResult{Gifts: out, NextCursor: nextCursor}, nil
}

func (s *service) GetGift(ctx context.Context, id uuid.UUID) (*GiftDTO, error) {
	gift, err := s.repo.FindGiftByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gift")
	}
	return giftFromModel(gift), nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *categoryFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	category, err := s.repo.CreateCategory(ctx, &models.Category{
		Name:        name,
		Description: input.Description,
		ImageKey:    input.ImageKey,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return categoryFromModel(category), nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be empty")
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = input.Description
	}
	if input.ImageKey != nil {
		category.ImageKey = input.ImageKey
	}

	updated, err := s.repo.UpdateCategory(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
	}
	return categoryFromModel(updated), nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindCategoryByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
		}

		count, err := repo.CountGiftsInCategory(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count gifts in category")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "category still has gifts")
		}

		if err := repo.DeleteCategory(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
		}
		return nil
	})
}

func (s *service) CreateGift(ctx context.Context, input CreateGiftInput) (*GiftDTO, error) {
	if err := validateGiftInput(input.Name, input.Price, input.Stock, input.AllowAddOns, input.AddOnLabels); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindCategoryByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}

	gift, err := s.repo.CreateGift(ctx, &models.Gift{
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		CategoryID:   input.CategoryID,
		Price:        input.Price,
		Stock:        input.Stock,
		AllowMessage: input.AllowMessage,
		AllowAddOns:  input.AllowAddOns,
		AllowImage:   input.AllowImage,
		AddOnLabels:  input.AddOnLabels,
		IsActive:     input.IsActive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create gift")
	}
	return s.GetGift(ctx, gift.ID)
}

func (s *service) UpdateGift(ctx context.Context, id uuid.UUID, input UpdateGiftInput) (*GiftDTO, error) {
	gift, err := s.repo.FindGiftByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gift")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "gift name cannot be empty")
		}
		gift.Name = name
	}
	if input.Description != nil {
		gift.Description = input.Description
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
		}
		gift.CategoryID = *input.CategoryID
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		gift.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		gift.Stock = *input.Stock
	}
	if input.AllowMessage != nil {
		gift.AllowMessage = *input.AllowMessage
	}
	if input.AllowAddOns != nil {
		gift.AllowAddOns = *input.AllowAddOns
	}
	if input.AllowImage != nil {
		gift.AllowImage = *input.AllowImage
	}
	if input.AddOnLabels != nil {
		gift.AddOnLabels = *input.AddOnLabels
	}
	if input.IsActive != nil {
		gift.IsActive = *input.IsActive
	}
	if gift.AllowAddOns && len(gift.AddOnLabels) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "addon labels required when addons are allowed")
	}

	// Save without the preloaded associations.
	gift.Images = nil
	gift.Category = nil
	if _, err := s.repo.UpdateGift(ctx, gift); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update gift")
	}
	return s.GetGift(ctx, id)
}

func (s *service) DeleteGift(ctx context.Context, id uuid.UUID) error {
	gift, err := s.repo.FindGiftByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gift")
	}

	if err := s.repo.DeleteGift(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete gift")
	}

	if s.images != nil {
		var cleanup error
		for _, img := range gift.Images {
			if err := s.images.Delete(ctx, img.StorageKey); err != nil {
				cleanup = multierr.Append(cleanup, fmt.Errorf("%s: %w", img.StorageKey, err))
			}
		}
		if cleanup != nil && s.logg != nil {
			logCtx := s.logg.WithField(ctx, "gift_id", id.String())
			s.logg.Error(logCtx, "gifts.image_cleanup_failed", cleanup)
		}
	}
	return nil
}

func (s *service) AttachGiftImage(ctx context.Context, giftID uuid.UUID, input AttachImageInput) (*GiftDTO, error) {
	if s.images == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image storage is not configured")
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image body is required")
	}

	if _, err := s.repo.FindGiftByID(ctx, giftID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gift")
	}

	key := fmt.Sprintf("gifts/%s/%s", giftID, uuid.NewString())
	url, err := s.images.Upload(ctx, key, input.ContentType, input.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload gift image")
	}

	if input.IsPrimary {
		if err := s.repo.ClearPrimaryImage(ctx, giftID); err != nil {
			s.cleanupImage(ctx, key)
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear primary image")
		}
	}

	if _, err := s.repo.AttachImage(ctx, &models.GiftImage{
		GiftID:     giftID,
		StorageKey: key,
		URL:        url,
		IsPrimary:  input.IsPrimary,
	}); err != nil {
		s.cleanupImage(ctx, key)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attach gift image")
	}

	return s.GetGift(ctx, giftID)
}

func (s *service) RemoveGiftImage(ctx context.Context, giftID, imageID uuid.UUID) error {
	image, err := s.repo.FindImage(ctx, giftID, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load image")
	}

	if err := s.repo.DetachImage(ctx, imageID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "detach image")
	}

	if s.images != nil {
		s.cleanupImage(ctx, image.StorageKey)
	}
	return nil
}

func validateGiftInput(name string, price decimal.Decimal, stock int, allowAddOns bool, labels []string) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gift name is required")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if allowAddOns && len(labels) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "addon labels required when addons are allowed")
	}
	return nil
}
