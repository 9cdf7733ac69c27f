package cart

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

// Service exposes the shopper-facing cart operations. Every method is
// scoped to the calling user; there is no cross-user access.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
}

// AddItemInput is the validated payload for adding a gift to the cart.
// Adding a gift that is already in the cart merges quantities.
type AddItemInput struct {
	GiftID         uuid.UUID
	Quantity       int
	Message        *string
	SelectedAddOns []string
	DeliveryDate   *time.Time
	CustomImageKey *string
}

// UpdateItemInput mutates an existing cart line. Nil fields are left
// untouched; personalization fields replace, never merge.
type UpdateItemInput struct {
	Quantity       *int
	Message        *string
	SelectedAddOns []string
	DeliveryDate   *time.Time
	CustomImageKey *string
}

type giftReader interface {
	FindGiftByID(ctx context.Context, id uuid.UUID) (*models.Gift, error)
}

type service struct {
	db    *db.Client
	repo  *Repository
	gifts giftReader
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	DB         *db.Client
	Repository *Repository
	Gifts      giftReader
}

// NewService wires the cart service.
func NewService(params ServiceParams) Service {
	return &service{db: params.DB, repo: params.Repository, gifts: params.Gifts}
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return fromModel(cart), nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	gift, err := s.gifts.FindGiftByID(ctx, input.GiftID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gift")
	}
	if !gift.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
	}
	if err := ValidatePersonalization(gift, input.Message, input.SelectedAddOns, input.CustomImageKey); err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.GetOrCreateCart(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}

		existing, err := repo.FindItem(ctx, cart.ID, gift.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find cart item")
		}

		quantity := input.Quantity
		if existing != nil {
			quantity += existing.Quantity
		}
		// Advisory only; checkout re-checks under the conditional decrement.
		if quantity > gift.Stock {
			return pkgerrors.InsufficientStock(gift.ID.String(), gift.Name, quantity, gift.Stock)
		}

		if existing != nil {
			existing.Quantity = quantity
			existing.Message = input.Message
			existing.SelectedAddOns = input.SelectedAddOns
			existing.DeliveryDate = input.DeliveryDate
			existing.CustomImageKey = input.CustomImageKey
			_, err = repo.UpdateItem(ctx, existing)
		} else {
			_, err = repo.CreateItem(ctx, &models.CartItem{
				CartID:         cart.ID,
				GiftID:         gift.ID,
				Quantity:       quantity,
				Message:        input.Message,
				SelectedAddOns: input.SelectedAddOns,
				DeliveryDate:   input.DeliveryDate,
				CustomImageKey: input.CustomImageKey,
			})
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*CartDTO, error) {
	if input.Quantity != nil && *input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.GetOrCreateCart(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}

		item, err := repo.FindItemByID(ctx, cart.ID, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}
		gift := item.Gift
		if gift == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "cart item has no gift")
		}

		if input.Quantity != nil {
			if *input.Quantity > gift.Stock {
				return pkgerrors.InsufficientStock(gift.ID.String(), gift.Name, *input.Quantity, gift.Stock)
			}
			item.Quantity = *input.Quantity
		}
		if input.Message != nil {
			item.Message = input.Message
		}
		if input.SelectedAddOns != nil {
			item.SelectedAddOns = input.SelectedAddOns
		}
		if input.DeliveryDate != nil {
			item.DeliveryDate = input.DeliveryDate
		}
		if input.CustomImageKey != nil {
			item.CustomImageKey = input.CustomImageKey
		}
		if err := ValidatePersonalization(gift, item.Message, item.SelectedAddOns, item.CustomImageKey); err != nil {
			return err
		}

		if _, err := repo.UpdateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if _, err := s.repo.FindItemByID(ctx, cart.ID, itemID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	} else if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return s.GetCart(ctx, userID)
}

// ValidatePersonalization checks the requested extras against what the
// gift actually offers. Checkout reuses it for direct orders.
func ValidatePersonalization(gift *models.Gift, message *string, addOns []string, imageKey *string) error {
	if message != nil && *message != "" && !gift.AllowMessage {
		return pkgerrors.New(pkgerrors.CodeValidation, "gift does not accept a message")
	}
	if len(addOns) > 0 {
		if !gift.AllowAddOns {
			return pkgerrors.New(pkgerrors.CodeValidation, "gift does not accept add-ons")
		}
		offered := make(map[string]struct{}, len(gift.AddOnLabels))
		for _, label := range gift.AddOnLabels {
			offered[label] = struct{}{}
		}
		for _, label := range addOns {
			if _, ok := offered[label]; !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "unknown add-on: "+label)
			}
		}
	}
	if imageKey != nil && *imageKey != "" && !gift.AllowImage {
		return pkgerrors.New(pkgerrors.CodeValidation, "gift does not accept a custom image")
	}
	return nil
}
