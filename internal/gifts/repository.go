package gifts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/pkg/db/models"
	"github.com/mayagift/giftbloom-backend/pkg/pagination"
)

// Repository wires together catalog persistence for gifts, categories, and
// gift images.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateCategory inserts a new category row.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory persists category mutations.
func (r *Repository) UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category by ID.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{}).Error
}

// FindCategoryByID loads one category.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// CountGiftsInCategory reports how many gifts reference the category.
func (r *Repository) CountGiftsInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Gift{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// CreateGift inserts a new gift row.
func (r *Repository) CreateGift(ctx context.Context, gift *models.Gift) (*models.Gift, error) {
	if err := r.db.WithContext(ctx).Create(gift).Error; err != nil {
		return nil, err
	}
	return gift, nil
}

// UpdateGift updates an existing gift row.
func (r *Repository) UpdateGift(ctx context.Context, gift *models.Gift) (*models.Gift, error) {
	if err := r.db.WithContext(ctx).Save(gift).Error; err != nil {
		return nil, err
	}
	return gift, nil
}

// DeleteGift removes a gift by ID. Image rows cascade.
func (r *Repository) DeleteGift(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Gift{}).Error
}

// FindGiftByID loads the gift with its category and images.
func (r *Repository) FindGiftByID(ctx context.Context, id uuid.UUID) (*models.Gift, error) {
	var gift models.Gift
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("deleted_at IS NULL").Order("is_primary DESC, created_at ASC")
		}).
		First(&gift, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &gift, nil
}

// FindGiftsByIDs loads the given gifts without associations, keyed by ID.
func (r *Repository) FindGiftsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Gift, error) {
	var rows []models.Gift
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.Gift, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// ListFilters narrows the public gift listing.
type ListFilters struct {
	CategoryID *uuid.UUID
	Query      string
	// IncludeInactive is only set on admin listings.
	IncludeInactive bool
}

type listQuery struct {
	Pagination pagination.Params
	Filters    ListFilters
}

// ListGifts pages through the catalog newest-first with a cursor.
func (r *Repository) ListGifts(ctx context.Context, query listQuery) ([]models.Gift, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Gift{}).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("deleted_at IS NULL").Order("is_primary DESC, created_at ASC")
		})

	filter := query.Filters
	if filter.CategoryID != nil {
		qb = qb.Where("category_id = ?", *filter.CategoryID)
	}
	if !filter.IncludeInactive {
		qb = qb.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("LOWER(name) LIKE ?", pattern)
	}

	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer)

	var rows []models.Gift
	if err := qb.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// AttachImage inserts an image row for a gift.
func (r *Repository) AttachImage(ctx context.Context, image *models.GiftImage) (*models.GiftImage, error) {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return nil, err
	}
	return image, nil
}

// FindImage loads one image row belonging to the gift.
func (r *Repository) FindImage(ctx context.Context, giftID, imageID uuid.UUID) (*models.GiftImage, error) {
	var image models.GiftImage
	err := r.db.WithContext(ctx).
		Where("gift_id = ?", giftID).
		First(&image, "id = ?", imageID).
		Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// DetachImage removes an image row.
func (r *Repository) DetachImage(ctx context.Context, imageID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", imageID).Delete(&models.GiftImage{}).Error
}

// ClearPrimaryImage unsets the primary flag on all images of a gift.
func (r *Repository) ClearPrimaryImage(ctx context.Context, giftID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.GiftImage{}).
		Where("gift_id = ?", giftID).
		Update("is_primary", false).Error
}
