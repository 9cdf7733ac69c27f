package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mayagift/giftbloom-backend/api/responses"
	"github.com/mayagift/giftbloom-backend/api/validators"
	cartsvc "github.com/mayagift/giftbloom-backend/internal/cart"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/logger"
)

type addCartItemRequest struct {
	GiftID         string   `json:"gift_id" validate:"required,uuid4"`
	Quantity       int      `json:"quantity" validate:"required,min=1"`
	Message        *string  `json:"message,omitempty"`
	SelectedAddOns []string `json:"selected_add_ons,omitempty"`
	DeliveryDate   *string  `json:"delivery_date,omitempty"`
	CustomImageKey *string  `json:"custom_image_key,omitempty"`
}

func (r addCartItemRequest) toInput() (cartsvc.AddItemInput, error) {
	giftID, err := uuid.Parse(r.GiftID)
	if err != nil {
		return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gift_id")
	}
	deliveryDate, err := parseDeliveryDate(r.DeliveryDate)
	if err != nil {
		return cartsvc.AddItemInput{}, err
	}
	return cartsvc.AddItemInput{
		GiftID:         giftID,
		Quantity:       r.Quantity,
		Message:        r.Message,
		SelectedAddOns: r.SelectedAddOns,
		DeliveryDate:   deliveryDate,
		CustomImageKey: r.CustomImageKey,
	}, nil
}

type updateCartItemRequest struct {
	Quantity       *int     `json:"quantity,omitempty" validate:"omitempty,min=1"`
	Message        *string  `json:"message,omitempty"`
	SelectedAddOns []string `json:"selected_add_ons,omitempty"`
	DeliveryDate   *string  `json:"delivery_date,omitempty"`
	CustomImageKey *string  `json:"custom_image_key,omitempty"`
}

func (r updateCartItemRequest) toInput() (cartsvc.UpdateItemInput, error) {
	deliveryDate, err := parseDeliveryDate(r.DeliveryDate)
	if err != nil {
		return cartsvc.UpdateItemInput{}, err
	}
	return cartsvc.UpdateItemInput{
		Quantity:       r.Quantity,
		Message:        r.Message,
		SelectedAddOns: r.SelectedAddOns,
		DeliveryDate:   deliveryDate,
		CustomImageKey: r.CustomImageKey,
	}, nil
}

func parseDeliveryDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery_date must be YYYY-MM-DD")
	}
	return &parsed, nil
}

// GetCart returns the caller's cart, creating an empty one on first use.
func GetCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.GetCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// AddCartItem adds a gift to the caller's cart, merging duplicate lines.
func AddCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddItem(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, cart)
	}
}

// UpdateCartItem mutates quantity or personalization on a cart line.
func UpdateCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.UpdateItem(r.Context(), userID, itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// RemoveCartItem deletes a single line from the caller's cart.
func RemoveCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveItem(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// ClearCart empties the caller's cart. The cart row itself survives.
func ClearCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.ClearCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}
