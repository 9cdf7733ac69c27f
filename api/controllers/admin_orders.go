package controllers

import (
	"net/http"
	"strings"

	"github.com/mayagift/giftbloom-backend/api/responses"
	"github.com/mayagift/giftbloom-backend/api/validators"
	ordersvc "github.com/mayagift/giftbloom-backend/internal/orders"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/logger"
)

type setOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminListOrders returns every order, optionally filtered by status.
func AdminListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *string
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status = &raw
		}

		result, err := svc.ListAll(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminSetOrderStatus moves an order to a new fulfillment status.
func AdminSetOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SetStatus(r.Context(), orderID, strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
