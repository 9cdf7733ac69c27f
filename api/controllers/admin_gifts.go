package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayagift/giftbloom-backend/api/responses"
	"github.com/mayagift/giftbloom-backend/api/validators"
	giftsvc "github.com/mayagift/giftbloom-backend/internal/gifts"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/logger"
)

const maxImageUploadBytes = 10 << 20

type createGiftRequest struct {
	Name         string   `json:"name" validate:"required"`
	Description  *string  `json:"description,omitempty"`
	CategoryID   string   `json:"category_id" validate:"required,uuid4"`
	Price        string   `json:"price" validate:"required"`
	Stock        int      `json:"stock" validate:"min=0"`
	AllowMessage bool     `json:"allow_message"`
	AllowAddOns  bool     `json:"allow_add_ons"`
	AllowImage   bool     `json:"allow_image"`
	AddOnLabels  []string `json:"add_on_labels,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

func (r createGiftRequest) toInput() (giftsvc.CreateGiftInput, error) {
	categoryID, err := uuid.Parse(r.CategoryID)
	if err != nil {
		return giftsvc.CreateGiftInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil || price.IsNegative() {
		return giftsvc.CreateGiftInput{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be a non-negative decimal")
	}
	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}
	return giftsvc.CreateGiftInput{
		Name:         validators.SanitizeString(r.Name, 0),
		Description:  r.Description,
		CategoryID:   categoryID,
		Price:        price,
		Stock:        r.Stock,
		AllowMessage: r.AllowMessage,
		AllowAddOns:  r.AllowAddOns,
		AllowImage:   r.AllowImage,
		AddOnLabels:  r.AddOnLabels,
		IsActive:     isActive,
	}, nil
}

type updateGiftRequest struct {
	Name         *string   `json:"name,omitempty"`
	Description  *string   `json:"description,omitempty"`
	CategoryID   *string   `json:"category_id,omitempty" validate:"omitempty,uuid4"`
	Price        *string   `json:"price,omitempty"`
	Stock        *int      `json:"stock,omitempty" validate:"omitempty,min=0"`
	AllowMessage *bool     `json:"allow_message,omitempty"`
	AllowAddOns  *bool     `json:"allow_add_ons,omitempty"`
	AllowImage   *bool     `json:"allow_image,omitempty"`
	AddOnLabels  *[]string `json:"add_on_labels,omitempty"`
	IsActive     *bool     `json:"is_active,omitempty"`
}

func (r updateGiftRequest) toInput() (giftsvc.UpdateGiftInput, error) {
	input := giftsvc.UpdateGiftInput{
		Name:         r.Name,
		Description:  r.Description,
		Stock:        r.Stock,
		AllowMessage: r.AllowMessage,
		AllowAddOns:  r.AllowAddOns,
		AllowImage:   r.AllowImage,
		AddOnLabels:  r.AddOnLabels,
		IsActive:     r.IsActive,
	}
	if r.CategoryID != nil {
		categoryID, err := uuid.Parse(*r.CategoryID)
		if err != nil {
			return giftsvc.UpdateGiftInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id")
		}
		input.CategoryID = &categoryID
	}
	if r.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*r.Price))
		if err != nil || price.IsNegative() {
			return giftsvc.UpdateGiftInput{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be a non-negative decimal")
		}
		input.Price = &price
	}
	return input, nil
}

// AdminCreateGift handles catalog additions.
func AdminCreateGift(svc giftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createGiftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gift, err := svc.CreateGift(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, gift)
	}
}

// AdminListGifts mirrors the public listing but includes inactive gifts.
func AdminListGifts(svc giftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := giftsvc.ListGiftsInput{
			Query:           validators.SanitizeString(r.URL.Query().Get("q"), 0),
			IncludeInactive: true,
			Pagination:      params,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
			categoryID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid category_id"))
				return
			}
			input.CategoryID = &categoryID
		}

		result, err := svc.ListGifts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminUpdateGift applies a partial update to a gift.
func AdminUpdateGift(svc giftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		giftID, err := uuidParam(r, "giftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateGiftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gift, err := svc.UpdateGift(r.Context(), giftID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, gift)
	}
}

// AdminDeleteGift removes a gift from the catalog.
func AdminDeleteGift(svc giftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		giftID, err := uuidParam(r, "giftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteGift(r.Context(), giftID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminAttachGiftImage accepts a multipart upload and attaches it to a gift.
func AdminAttachGiftImage(svc giftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		giftID, err := uuidParam(r, "giftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image file required"))
			return
		}
		defer file.Close()

		isPrimary := false
		if raw := strings.TrimSpace(r.FormValue("is_primary")); raw != "" {
			value, parseErr := strconv.ParseBool(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid is_primary value"))
				return
			}
			isPrimary = value
		}

		gift, err := svc.AttachGiftImage(r.Context(), giftID, giftsvc.AttachImageInput{
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
			IsPrimary:   isPrimary,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, gift)
	}
}

// AdminRemoveGiftImage detaches and deletes a gift image.
func AdminRemoveGiftImage(svc giftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		giftID, err := uuidParam(r, "giftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		imageID, err := uuidParam(r, "imageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveGiftImage(r.Context(), giftID, imageID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type categoryRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
	ImageKey    *string `json:"image_key,omitempty"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageKey    *string `json:"image_key,omitempty"`
}

// AdminCreateCategory adds a storefront category.
func AdminCreateCategory(svc giftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload categoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), giftsvc.CreateCategoryInput{
			Name:        validators.SanitizeString(payload.Name, 0),
			Description: payload.Description,
			ImageKey:    payload.ImageKey,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

// AdminUpdateCategory applies a partial update to a category.
func AdminUpdateCategory(svc giftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := uuidParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.UpdateCategory(r.Context(), categoryID, giftsvc.UpdateCategoryInput{
			Name:        payload.Name,
			Description: payload.Description,
			ImageKey:    payload.ImageKey,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, category)
	}
}

// AdminDeleteCategory removes an empty category.
func AdminDeleteCategory(svc giftsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := uuidParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCategory(r.Context(), categoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
