package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/pkg/db/models"
	"github.com/mayagift/giftbloom-backend/pkg/enums"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := NewRepository(conn)
	return NewService(repo), repo, conn
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:         userID,
		Status:         enums.OrderStatusPending,
		PaymentMethod:  enums.PaymentMethodCashOnDelivery,
		PaymentStatus:  enums.PaymentStatusPending,
		Currency:       "npr",
		Subtotal:       decimal.RequireFromString("3000"),
		Tax:            decimal.RequireFromString("390"),
		DeliveryCharge: decimal.RequireFromString("100"),
		Total:          decimal.RequireFromString("3490"),
		ShipRecipient:  "Priya Sharma",
		ShipLine1:      "14 Lakeview Road",
		ShipCity:       "Kathmandu",
		ShipState:      "Bagmati",
		ShipPostalCode: "44600",
		ShipCountry:    "NP",
		ShipPhone:      "+977 980 000 0000",
		Items: []models.OrderItem{{
			GiftID:    uuid.New(),
			GiftName:  "Rose Bouquet",
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("1500"),
		}},
		CreatedAt: createdAt,
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestListMineScopesToUser(t *testing.T) {
	svc, _, conn := newTestService(t)
	ctx := context.Background()
	mine := uuid.New()
	theirs := uuid.New()

	base := time.Now().Add(-time.Hour)
	seedOrder(t, conn, mine, base)
	seedOrder(t, conn, mine, base.Add(time.Minute))
	seedOrder(t, conn, theirs, base.Add(2*time.Minute))

	result, err := svc.ListMine(ctx, mine, pagination.Params{})
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(result.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(result.Orders))
	}
	for _, order := range result.Orders {
		if order.UserID != mine {
			t.Fatalf("foreign order leaked into listing: %s", order.ID)
		}
	}
	// Newest first.
	if !result.Orders[0].CreatedAt.After(result.Orders[1].CreatedAt) {
		t.Fatal("expected newest-first ordering")
	}
}

func TestListAllPagesWithCursor(t *testing.T) {
	svc, _, conn := newTestService(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedOrder(t, conn, uuid.New(), base.Add(time.Duration(i)*time.Minute))
	}

	first, err := svc.ListAll(ctx, nil, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Orders) != 2 || first.NextCursor == "" {
		t.Fatalf("expected full first page with cursor, got %d orders", len(first.Orders))
	}

	second, err := svc.ListAll(ctx, nil, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Orders) != 1 || second.NextCursor != "" {
		t.Fatalf("expected final page of 1, got %d (cursor %q)", len(second.Orders), second.NextCursor)
	}

	seen := map[uuid.UUID]bool{}
	for _, order := range append(first.Orders, second.Orders...) {
		if seen[order.ID] {
			t.Fatalf("order %s repeated across pages", order.ID)
		}
		seen[order.ID] = true
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _, conn := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()
	order := seedOrder(t, conn, owner, time.Now())

	if _, err := svc.Get(ctx, order.ID, Viewer{UserID: owner}); err != nil {
		t.Fatalf("owner read: %v", err)
	}

	_, err := svc.Get(ctx, order.ID, Viewer{UserID: uuid.New()})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for foreign read, got %v", err)
	}

	got, err := svc.Get(ctx, order.ID, Viewer{UserID: uuid.New(), IsAdmin: true})
	if err != nil {
		t.Fatalf("admin read: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].GiftName != "Rose Bouquet" {
		t.Fatalf("unexpected items: %+v", got.Items)
	}
	if want := decimal.RequireFromString("3000"); !got.Items[0].LineTotal.Equal(want) {
		t.Fatalf("expected line total %s, got %s", want, got.Items[0].LineTotal)
	}
}

func TestSetStatus(t *testing.T) {
	svc, _, conn := newTestService(t)
	ctx := context.Background()
	order := seedOrder(t, conn, uuid.New(), time.Now())

	// Any valid jump is allowed, including straight to DELIVERED.
	updated, err := svc.SetStatus(ctx, order.ID, "DELIVERED")
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected DELIVERED, got %s", updated.Status)
	}

	// And back again.
	if _, err := svc.SetStatus(ctx, order.ID, "PREPARING"); err != nil {
		t.Fatalf("set status back: %v", err)
	}

	if _, err := svc.SetStatus(ctx, order.ID, "SHIPPED"); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for unknown status, got %v", err)
	}
	if _, err := svc.SetStatus(ctx, uuid.New(), "PENDING"); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for missing order, got %v", err)
	}
}

func TestHasDeliveredGift(t *testing.T) {
	_, repo, conn := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	order := seedOrder(t, conn, userID, time.Now())
	giftID := order.Items[0].GiftID

	got, err := repo.HasDeliveredGift(ctx, userID, giftID)
	if err != nil {
		t.Fatalf("check pending: %v", err)
	}
	if got {
		t.Fatal("expected no delivered gift while order is PENDING")
	}

	if err := conn.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", "DELIVERED").Error; err != nil {
		t.Fatalf("mark delivered: %v", err)
	}

	got, err = repo.HasDeliveredGift(ctx, userID, giftID)
	if err != nil {
		t.Fatalf("check delivered: %v", err)
	}
	if !got {
		t.Fatal("expected delivered gift to be found")
	}
	if got, _ := repo.HasDeliveredGift(ctx, uuid.New(), giftID); got {
		t.Fatal("expected other users to have no delivered gift")
	}
}
