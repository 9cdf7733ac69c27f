package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mayagift/giftbloom-backend/api/responses"
	"github.com/mayagift/giftbloom-backend/api/validators"
	reviewsvc "github.com/mayagift/giftbloom-backend/internal/reviews"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/logger"
)

type createReviewRequest struct {
	GiftID  string  `json:"gift_id" validate:"required,uuid4"`
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty"`
}

// CreateReview posts a review for a gift the caller has received.
func CreateReview(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		giftID, err := uuid.Parse(payload.GiftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gift_id"))
			return
		}

		comment := payload.Comment
		if comment != nil {
			clean := validators.SanitizeString(*comment, 0)
			comment = &clean
		}

		review, err := svc.Create(r.Context(), userID, reviewsvc.CreateReviewInput{
			GiftID:  giftID,
			Rating:  payload.Rating,
			Comment: comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}
