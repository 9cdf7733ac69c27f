package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/pkg/db/models"
)

// Repository persists gift reviews.
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

// Create inserts a review. The (user_id, gift_id) unique index rejects a
// second review for the same gift.
func (r *Repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// reviewRow carries the reviewer's display name alongside the review.
type reviewRow struct {
	models.Review
	UserName string
}

// ListByGift returns a gift's reviews newest-first with reviewer names.
func (r *Repository) ListByGift(ctx context.Context, giftID uuid.UUID) ([]reviewRow, error) {
	var rows []reviewRow
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.*, users.name AS user_name").
		Joins("JOIN users ON users.id = reviews.user_id").
		Where("reviews.gift_id = ?", giftID).
		Order("reviews.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// Summary aggregates a gift's rating.
type Summary struct {
	Count   int64
	Average float64
}

// Summarize computes the review count and mean rating for a gift.
func (r *Repository) Summarize(ctx context.Context, giftID uuid.UUID) (Summary, error) {
	var summary Summary
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("gift_id = ?", giftID).
		Scan(&summary).Error
	return summary, err
}
