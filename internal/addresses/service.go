package addresses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/pkg/db"
	"github.com/mayagift/giftbloom-backend/pkg/db/models"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
)

// Service exposes ownership-scoped CRUD over saved shipping addresses.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, userID, addressID uuid.UUID) (*AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*AddressDTO, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error

	// Resolve loads an address for checkout. A well-formed id that belongs
	// to another user is UNAUTHORIZED, not NOT_FOUND.
	Resolve(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

// AddressInput is the validated payload for creating or replacing an
// address. Updates are full replacements.
type AddressInput struct {
	Recipient  string
	Line1      string
	Line2      *string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
	IsDefault  bool
}

type service struct {
	db   *db.Client
	repo *Repository
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	DB         *db.Client
	Repository *Repository
}

// NewService wires the address service.
func NewService(params ServiceParams) Service {
	return &service{db: params.DB, repo: params.Repository}
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	dtos := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, fromModel(&row))
	}
	return dtos, nil
}

func (s *service) Get(ctx context.Context, userID, addressID uuid.UUID) (*AddressDTO, error) {
	address, err := s.ownedAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	dto := fromModel(address)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	address := &models.Address{
		UserID:     userID,
		Recipient:  input.Recipient,
		Line1:      input.Line1,
		Line2:      input.Line2,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		Phone:      input.Phone,
		IsDefault:  input.IsDefault,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
			}
		}
		if _, err := repo.Create(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := fromModel(address)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*AddressDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	address, err := s.ownedAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	address.Recipient = input.Recipient
	address.Line1 = input.Line1
	address.Line2 = input.Line2
	address.City = input.City
	address.State = input.State
	address.PostalCode = input.PostalCode
	address.Country = input.Country
	address.Phone = input.Phone
	address.IsDefault = input.IsDefault

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
			}
		}
		if _, err := repo.Update(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := fromModel(address)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, userID, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func (s *service) Resolve(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindByID(ctx, addressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "address does not belong to you")
	}
	return address, nil
}

func (s *service) ownedAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindByID(ctx, addressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return address, nil
}

func validateInput(input AddressInput) error {
	switch {
	case input.Recipient == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	case input.Line1 == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "address line1 is required")
	case input.City == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	case input.State == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "state is required")
	case input.PostalCode == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "postal code is required")
	case input.Country == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "country is required")
	case input.Phone == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	return nil
}
