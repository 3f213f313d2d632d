package services

import (
	"context"
	"errors"
	"testing"

	"github.com/eugene953/TheraAid-Server/internal/auth"
	"github.com/eugene953/TheraAid-Server/internal/models"
	"github.com/eugene953/TheraAid-Server/internal/repository"
)

func TestRegisterAndLogin(t *testing.T) {
	auth.InitJWT("test-secret")
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewUserService(repository.NewRepository(db))

	resp, err := svc.Register(ctx, &models.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token on register")
	}
	if resp.User.PasswordHash == "s3cret-pass" {
		t.Error("password stored in plain text")
	}

	login, err := svc.Login(ctx, &models.LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.User.ID != resp.User.ID {
		t.Errorf("login returned user %d, expected %d", login.User.ID, resp.User.ID)
	}

	claims, err := auth.ValidateToken(login.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Errorf("token carries user %d, expected %d", claims.UserID, resp.User.ID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth.InitJWT("test-secret")
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewUserService(repository.NewRepository(db))

	if _, err := svc.Register(ctx, &models.RegisterRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "correct-horse",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := svc.Login(ctx, &models.LoginRequest{Email: "bob@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}
