package reviews

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/pkg/db"
	"github.com/mayagift/giftbloom-backend/pkg/db/models"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
)

// Service exposes review creation and the public review listing. Writing
// a review requires the gift to have reached the shopper: there must be a
// DELIVERED order of theirs containing it.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error)
	ListByGift(ctx context.Context, giftID uuid.UUID) (*GiftReviews, error)
}

// CreateReviewInput is the validated payload for a new review.
type CreateReviewInput struct {
	GiftID  uuid.UUID
	Rating  int
	Comment *string
}

// ReviewDTO is the API shape of one review.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	GiftID    uuid.UUID `json:"gift_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GiftReviews is a gift's reviews plus the aggregate rating.
type GiftReviews struct {
	Reviews       []ReviewDTO `json:"reviews"`
	Count         int64       `json:"count"`
	AverageRating float64     `json:"average_rating"`
}

type deliveryChecker interface {
	HasDeliveredGift(ctx context.Context, userID, giftID uuid.UUID) (bool, error)
}

type giftChecker interface {
	FindGiftByID(ctx context.Context, id uuid.UUID) (*models.Gift, error)
}

type service struct {
	repo       *Repository
	deliveries deliveryChecker
	gifts      giftChecker
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Repository *Repository
	Deliveries deliveryChecker
	Gifts      giftChecker
}

// NewService wires the review service.
func NewService(params ServiceParams) Service {
	return &service{
		repo:       params.Repository,
		deliveries: params.Deliveries,
		gifts:      params.Gifts,
	}
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	if _, err := s.gifts.FindGiftByID(ctx, input.GiftID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
	} else if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gift")
	}

	delivered, err := s.deliveries.HasDeliveredGift(ctx, userID, input.GiftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check delivery")
	}
	if !delivered {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reviews require a delivered order for this gift")
	}

	review := &models.Review{
		UserID:  userID,
		GiftID:  input.GiftID,
		Rating:  input.Rating,
		Comment: input.Comment,
	}
	if _, err := s.repo.Create(ctx, review); err != nil {
		if db.IsUniqueViolation(err, "idx_user_gift_review") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this gift")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}

	return &ReviewDTO{
		ID:        review.ID,
		GiftID:    review.GiftID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}, nil
}

func (s *service) ListByGift(ctx context.Context, giftID uuid.UUID) (*GiftReviews, error) {
	rows, err := s.repo.ListByGift(ctx, giftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	summary, err := s.repo.Summarize(ctx, giftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summarize reviews")
	}

	result := &GiftReviews{
		Reviews:       make([]ReviewDTO, 0, len(rows)),
		Count:         summary.Count,
		AverageRating: summary.Average,
	}
	for _, row := range rows {
		result.Reviews = append(result.Reviews, ReviewDTO{
			ID:        row.ID,
			GiftID:    row.GiftID,
			UserID:    row.UserID,
			UserName:  row.UserName,
			Rating:    row.Rating,
			Comment:   row.Comment,
			CreatedAt: row.CreatedAt,
		})
	}
	return result, nil
}
