package services

import (
	"context"
	"errors"
	"testing"
)

func TestLoginFlow(t *testing.T) {
	repo := testStorage(t)
	svc := NewAuthService(repo)
	ctx := context.Background()

	if err := svc.EnsureDefaultAdmin(ctx, "admin", "changeme1"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	// Second call is a no-op once an account exists.
	if err := svc.EnsureDefaultAdmin(ctx, "other", "whatever1"); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	users, err := svc.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("users = %d, err = %v", len(users), err)
	}

	sess, mustChange, err := svc.Login(ctx, "admin", "changeme1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Username != "admin" || sess.Role != "admin" {
		t.Fatalf("session = %+v", sess)
	}
	if !mustChange {
		t.Fatal("bootstrap account must force a password change")
	}

	if _, _, err := svc.Login(ctx, "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "ghost", "changeme1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestChangePasswordClearsFlag(t *testing.T) {
	repo := testStorage(t)
	svc := NewAuthService(repo)
	ctx := context.Background()

	if err := svc.EnsureDefaultAdmin(ctx, "admin", "changeme1"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	sess, _, err := svc.Login(ctx, "admin", "changeme1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	u, err := repo.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if err := svc.ChangePassword(ctx, sess, u.ID, "n3w-secret"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, _, err := svc.Login(ctx, "admin", "changeme1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("old password still accepted")
	}
	_, mustChange, err := svc.Login(ctx, "admin", "n3w-secret")
	if err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if mustChange {
		t.Fatal("must-change flag not cleared")
	}
}

func TestCreateAndDeleteUser(t *testing.T) {
	repo := testStorage(t)
	svc := NewAuthService(repo)
	ctx := context.Background()

	admin := Session{Username: "admin", Role: "admin"}
	id, err := svc.CreateUser(ctx, admin, "viewer1", "long-enough", "viewer", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateUser(ctx, admin, "viewer1", "long-enough", "viewer", false); err == nil {
		t.Fatal("expected duplicate username error")
	}

	if err := svc.DeleteUser(ctx, admin, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	users, err := svc.ListUsers(ctx)
	if err != nil || len(users) != 0 {
		t.Fatalf("users = %d, err = %v", len(users), err)
	}
}
