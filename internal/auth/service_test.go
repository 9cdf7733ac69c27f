package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/mayagift/giftbloom-backend/pkg/auth"
	"github.com/mayagift/giftbloom-backend/pkg/auth/session"
	"github.com/mayagift/giftbloom-backend/pkg/config"
	"github.com/mayagift/giftbloom-backend/pkg/db/models"
	"github.com/mayagift/giftbloom-backend/pkg/enums"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "giftbloom",
		ExpirationMinutes: 30,
	}
}

func TestServiceLoginIssuesTokenPair(t *testing.T) {
	password := "shopper-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: mustHashPassword(t, password),
		Name:         "Maya Shopper",
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	cfg := testJWTConfig()

	svc, _, err := buildTestService(user, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != user.ID {
		t.Fatalf("expected user id %s, got %s", user.ID, claims.UserID)
	}
	if claims.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role claim, got %s", claims.Role)
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}
	if resp.User == nil || resp.User.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: mustHashPassword(t, "right-password"),
		Name:         "Maya Shopper",
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}

	svc, _, err := buildTestService(user, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})
	if err == nil {
		t.Fatalf("expected unauthorized for wrong password")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLoginInactiveUser(t *testing.T) {
	password := "shopper-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "disabled@example.com",
		PasswordHash: mustHashPassword(t, password),
		Name:         "Disabled User",
		Role:         enums.UserRoleCustomer,
		IsActive:     false,
	}

	svc, _, err := buildTestService(user, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for inactive user, got %v", err)
	}
}

func TestServiceRefreshRotatesSession(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	oldAccessID := session.NewAccessID()

	oldToken, err := pkgAuth.MintAccessToken(cfg, time.Now().Add(-time.Hour), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleCustomer,
		JTI:    oldAccessID,
	})
	if err != nil {
		t.Fatalf("mint old token: %v", err)
	}

	sessionMgr := &stubSessionManager{
		refreshToken: "refresh-1",
		rotatedTo:    "refresh-2",
	}
	svc, err := NewService(ServiceParams{
		UserRepo:       stubUserRepo{},
		SessionManager: sessionMgr,
		JWTConfig:      cfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  oldToken,
		RefreshToken: "refresh-1",
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.RefreshToken != "refresh-2" {
		t.Fatalf("expected rotated refresh token, got %q", resp.RefreshToken)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse new access token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id carried over, got %s", claims.UserID)
	}
	if claims.ID == oldAccessID {
		t.Fatalf("expected a fresh jti after rotation")
	}
	if sessionMgr.rotatedFrom != oldAccessID {
		t.Fatalf("expected rotation keyed by old jti, got %q", sessionMgr.rotatedFrom)
	}
}

func TestServiceRefreshRejectsBadToken(t *testing.T) {
	sessionMgr := &stubSessionManager{rotateErr: session.ErrInvalidRefreshToken}
	cfg := testJWTConfig()
	svc, err := NewService(ServiceParams{
		UserRepo:       stubUserRepo{},
		SessionManager: sessionMgr,
		JWTConfig:      cfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  token,
		RefreshToken: "stolen",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLogoutRevokesSession(t *testing.T) {
	sessionMgr := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       stubUserRepo{},
		SessionManager: sessionMgr,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sessionMgr.revoked != "jti-1" {
		t.Fatalf("expected session revoked, got %q", sessionMgr.revoked)
	}

	if err := svc.Logout(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank access id")
	}
}

func buildTestService(user *models.User, jwtCfg config.JWTConfig) (Service, *stubSessionManager, error) {
	sessionMgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc, err := NewService(ServiceParams{
		UserRepo:       stubUserRepo{user: user},
		SessionManager: sessionMgr,
		JWTConfig:      jwtCfg,
	})
	return svc, sessionMgr, err
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user *models.User
	err  error
}

func (s stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

type stubSessionManager struct {
	refreshToken string
	rotatedFrom  string
	rotatedTo    string
	rotateErr    error
	revoked      string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	return s.refreshToken, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	s.rotatedFrom = oldAccessID
	return session.NewAccessID(), s.rotatedTo, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = accessID
	return nil
}
