package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mayagift/giftbloom-backend/api/responses"
	"github.com/mayagift/giftbloom-backend/api/validators"
	checkoutsvc "github.com/mayagift/giftbloom-backend/internal/checkout"
	"github.com/mayagift/giftbloom-backend/pkg/enums"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/logger"
)

type checkoutRequest struct {
	AddressID     string `json:"address_id" validate:"required,uuid4"`
	PaymentMethod string `json:"payment_method" validate:"required"`
	PaymentToken  string `json:"payment_token,omitempty"`
}

func (r checkoutRequest) toInput() (checkoutsvc.PlaceOrderInput, error) {
	addressID, err := uuid.Parse(r.AddressID)
	if err != nil {
		return checkoutsvc.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address_id")
	}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(r.PaymentMethod))
	if err != nil {
		return checkoutsvc.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method")
	}
	if method == enums.PaymentMethodCard && strings.TrimSpace(r.PaymentToken) == "" {
		return checkoutsvc.PlaceOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "payment_token required for card payments")
	}
	return checkoutsvc.PlaceOrderInput{
		AddressID:     addressID,
		PaymentMethod: method,
		PaymentToken:  strings.TrimSpace(r.PaymentToken),
	}, nil
}

type directItemRequest struct {
	GiftID         string   `json:"gift_id" validate:"required,uuid4"`
	Quantity       int      `json:"quantity" validate:"required,min=1"`
	Message        *string  `json:"message,omitempty"`
	SelectedAddOns []string `json:"selected_add_ons,omitempty"`
	DeliveryDate   *string  `json:"delivery_date,omitempty"`
	CustomImageKey *string  `json:"custom_image_key,omitempty"`
}

type directShippingRequest struct {
	Recipient  string  `json:"recipient" validate:"required"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
}

type directCheckoutRequest struct {
	Items         []directItemRequest    `json:"items" validate:"required,min=1,dive"`
	AddressID     *string                `json:"address_id,omitempty" validate:"omitempty,uuid4"`
	Shipping      *directShippingRequest `json:"shipping,omitempty"`
	PaymentMethod string                 `json:"payment_method" validate:"required"`
	PaymentToken  string                 `json:"payment_token,omitempty"`
}

func (r directCheckoutRequest) toInput() (checkoutsvc.DirectOrderInput, error) {
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(r.PaymentMethod))
	if err != nil {
		return checkoutsvc.DirectOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method")
	}
	if method == enums.PaymentMethodCard && strings.TrimSpace(r.PaymentToken) == "" {
		return checkoutsvc.DirectOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "payment_token required for card payments")
	}
	if (r.AddressID == nil) == (r.Shipping == nil) {
		return checkoutsvc.DirectOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of address_id or shipping is required")
	}

	input := checkoutsvc.DirectOrderInput{
		PaymentMethod: method,
		PaymentToken:  strings.TrimSpace(r.PaymentToken),
	}

	if r.AddressID != nil {
		addressID, parseErr := uuid.Parse(*r.AddressID)
		if parseErr != nil {
			return checkoutsvc.DirectOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid address_id")
		}
		input.AddressID = &addressID
	}
	if r.Shipping != nil {
		input.Shipping = &checkoutsvc.ShippingInput{
			Recipient:  validators.SanitizeString(r.Shipping.Recipient, 0),
			Line1:      validators.SanitizeString(r.Shipping.Line1, 0),
			Line2:      r.Shipping.Line2,
			City:       validators.SanitizeString(r.Shipping.City, 0),
			State:      validators.SanitizeString(r.Shipping.State, 0),
			PostalCode: validators.SanitizeString(r.Shipping.PostalCode, 0),
			Country:    validators.SanitizeString(r.Shipping.Country, 0),
			Phone:      validators.SanitizeString(r.Shipping.Phone, 0),
		}
	}

	for _, item := range r.Items {
		giftID, parseErr := uuid.Parse(item.GiftID)
		if parseErr != nil {
			return checkoutsvc.DirectOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid gift_id")
		}
		deliveryDate, dateErr := parseDeliveryDate(item.DeliveryDate)
		if dateErr != nil {
			return checkoutsvc.DirectOrderInput{}, dateErr
		}
		input.Items = append(input.Items, checkoutsvc.DirectItemInput{
			GiftID:         giftID,
			Quantity:       item.Quantity,
			Message:        item.Message,
			SelectedAddOns: item.SelectedAddOns,
			DeliveryDate:   deliveryDate,
			CustomImageKey: item.CustomImageKey,
		})
	}

	return input, nil
}

// Checkout submits the caller's saved cart as an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// DirectCheckout orders inline items without touching the saved cart.
func DirectCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload directCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceDirectOrder(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
