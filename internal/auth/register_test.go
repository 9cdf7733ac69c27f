package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/pkg/config"
	"github.com/mayagift/giftbloom-backend/pkg/db"
	"github.com/mayagift/giftbloom-backend/pkg/db/models"
	"github.com/mayagift/giftbloom-backend/pkg/enums"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/security"
)

func newRegisterTestDB(t *testing.T) *db.Client {
	t.Helper()
	dsn := "file:register_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate users: %v", err)
	}
	return db.NewFromConn(conn)
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16}
}

func TestRegisterCreatesCustomer(t *testing.T) {
	client := newRegisterTestDB(t)
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             client,
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Maya Shopper",
		Email:    "Maya@Example.com",
		Password: "very-secure-pw",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User == nil {
		t.Fatal("expected user in response")
	}
	if resp.User.Email != "maya@example.com" {
		t.Fatalf("expected lowercased email, got %q", resp.User.Email)
	}
	if resp.User.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", resp.User.Role)
	}

	var stored models.User
	if err := client.DB().First(&stored, "email = ?", "maya@example.com").Error; err != nil {
		t.Fatalf("load stored user: %v", err)
	}
	ok, err := security.VerifyPassword("very-secure-pw", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	client := newRegisterTestDB(t)
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             client,
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	req := RegisterRequest{
		Name:     "Maya Shopper",
		Email:    "maya@example.com",
		Password: "very-secure-pw",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err = svc.Register(context.Background(), req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
