package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/internal/orders"
	"github.com/mayagift/giftbloom-backend/pkg/db/models"
	"github.com/mayagift/giftbloom-backend/pkg/enums"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
)

type reviewFixture struct {
	svc  Service
	conn *gorm.DB
}

type testGiftFinder struct{ db *gorm.DB }

func (f *testGiftFinder) FindGiftByID(ctx context.Context, id uuid.UUID) (*models.Gift, error) {
	var gift models.Gift
	if err := f.db.WithContext(ctx).First(&gift, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &gift, nil
}

func newFixture(t *testing.T) *reviewFixture {
	t.Helper()
	dsn := "file:reviews_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Gift{},
		&models.Order{}, &models.OrderItem{}, &models.Review{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := NewService(ServiceParams{
		Repository: NewRepository(conn),
		Deliveries: orders.NewRepository(conn),
		Gifts:      &testGiftFinder{db: conn},
	})
	return &reviewFixture{svc: svc, conn: conn}
}

func (f *reviewFixture) seedUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := models.User{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Name:         name,
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	if err := f.conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func (f *reviewFixture) seedGift(t *testing.T) *models.Gift {
	t.Helper()
	category := models.Category{Name: "Seed " + uuid.NewString()}
	if err := f.conn.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	gift := models.Gift{
		Name: "Rose Bouquet", CategoryID: category.ID,
		Price: decimal.RequireFromString("1500"), Stock: 5, IsActive: true,
	}
	if err := f.conn.Create(&gift).Error; err != nil {
		t.Fatalf("seed gift: %v", err)
	}
	return &gift
}

func (f *reviewFixture) seedOrder(t *testing.T, userID, giftID uuid.UUID, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := models.Order{
		UserID: userID, Status: status,
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
		PaymentStatus: enums.PaymentStatusPending,
		Currency:      "npr",
		Subtotal:      decimal.RequireFromString("1500"),
		Tax:           decimal.RequireFromString("195"),
		DeliveryCharge: decimal.RequireFromString("100"),
		Total:          decimal.RequireFromString("1795"),
		ShipRecipient:  "r", ShipLine1: "l", ShipCity: "c", ShipState: "s",
		ShipPostalCode: "p", ShipCountry: "NP", ShipPhone: "ph",
		Items: []models.OrderItem{{
			GiftID: giftID, GiftName: "Rose Bouquet", Quantity: 1,
			UnitPrice: decimal.RequireFromString("1500"),
		}},
	}
	if err := f.conn.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return &order
}

func TestReviewGatedOnDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "Priya Sharma")
	gift := f.seedGift(t)
	order := f.seedOrder(t, user.ID, gift.ID, enums.OrderStatusPending)

	input := CreateReviewInput{GiftID: gift.ID, Rating: 5}

	// Not yet delivered.
	_, err := f.svc.Create(ctx, user.ID, input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN before delivery, got %v", err)
	}

	if err := f.conn.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", "DELIVERED").Error; err != nil {
		t.Fatalf("mark delivered: %v", err)
	}

	// Succeeds exactly once after delivery.
	created, err := f.svc.Create(ctx, user.ID, input)
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	if created.Rating != 5 {
		t.Fatalf("rating = %d, want 5", created.Rating)
	}

	_, err = f.svc.Create(ctx, user.ID, input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT on second review, got %v", err)
	}
}

func TestReviewValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "Priya Sharma")
	gift := f.seedGift(t)

	for _, rating := range []int{0, 6, -1} {
		if _, err := f.svc.Create(ctx, user.ID, CreateReviewInput{GiftID: gift.ID, Rating: rating}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("rating %d: expected VALIDATION_ERROR, got %v", rating, err)
		}
	}

	if _, err := f.svc.Create(ctx, user.ID, CreateReviewInput{GiftID: uuid.New(), Rating: 4}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for missing gift, got %v", err)
	}
}

func TestListByGift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gift := f.seedGift(t)

	for i, tc := range []struct {
		name   string
		rating int
	}{{"Priya Sharma", 5}, {"Anand Rao", 4}} {
		user := f.seedUser(t, tc.name)
		f.seedOrder(t, user.ID, gift.ID, enums.OrderStatusDelivered)
		if _, err := f.svc.Create(ctx, user.ID, CreateReviewInput{GiftID: gift.ID, Rating: tc.rating}); err != nil {
			t.Fatalf("review %d: %v", i, err)
		}
	}

	got, err := f.svc.ListByGift(ctx, gift.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got.Count != 2 || len(got.Reviews) != 2 {
		t.Fatalf("expected 2 reviews, got count=%d len=%d", got.Count, len(got.Reviews))
	}
	if got.AverageRating != 4.5 {
		t.Fatalf("average = %v, want 4.5", got.AverageRating)
	}
	names := map[string]bool{}
	for _, review := range got.Reviews {
		names[review.UserName] = true
	}
	if !names["Priya Sharma"] || !names["Anand Rao"] {
		t.Fatalf("reviewer names missing: %v", names)
	}
}
