package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/pkg/enums"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/pagination"
)

// Service exposes order history reads and the admin status transition.
// Orders are only ever created by checkout; nothing here mutates totals,
// items, or the shipping snapshot.
type Service interface {
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListResult, error)
	ListAll(ctx context.Context, status *string, params pagination.Params) (*OrderListResult, error)
	Get(ctx context.Context, orderID uuid.UUID, viewer Viewer) (*OrderDTO, error)
	SetStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error)
}

// Viewer identifies who is reading an order. Admins may read any order;
// everyone else only their own.
type Viewer struct {
	UserID  uuid.UUID
	IsAdmin bool
}

type service struct {
	repo *Repository
}

// NewService wires the order service.
func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListResult, error) {
	return s.list(ctx, ListFilters{UserID: &userID}, params)
}

func (s *service) ListAll(ctx context.Context, status *string, params pagination.Params) (*OrderListResult, error) {
	return s.list(ctx, ListFilters{Status: status}, params)
}

func (s *service) list(ctx context.Context, filters ListFilters, params pagination.Params) (*OrderListResult, error) {
	rows, next, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	result := &OrderListResult{
		Orders:     make([]OrderDTO, 0, len(rows)),
		NextCursor: next,
	}
	for i := range rows {
		result.Orders = append(result.Orders, *FromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, viewer Viewer) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !viewer.IsAdmin && order.UserID != viewer.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return FromModel(order), nil
}

func (s *service) SetStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error) {
	parsed, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	// Any valid status may be set from any other; there is deliberately
	// no transition graph.
	affected, err := s.repo.UpdateStatus(ctx, orderID, parsed.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return FromModel(order), nil
}
