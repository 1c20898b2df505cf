package services

import (
	"context"
	"errors"
	"testing"

	"github.com/techmarket/marketplace-api/internal/models"
	"github.com/techmarket/marketplace-api/internal/repository"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.userService.Register(ctx, models.RegisterUserRequest{
		Email:     "alice@example.com",
		Password:  "s3cret",
		FirstName: "Alice",
		UserType:  models.UserTypeBuyer,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 {
		t.Error("registered user has no id")
	}
	if user.PasswordHash == "s3cret" {
		t.Error("password stored in plaintext")
	}

	got, err := env.userService.Login(ctx, models.LoginRequest{Email: "alice@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("login returned user %d, want %d", got.ID, user.ID)
	}

	if _, err := env.userService.Login(ctx, models.LoginRequest{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.userService.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "s3cret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.userService.Register(ctx, models.RegisterUserRequest{
		Email:    "bob@example.com",
		Password: "pw",
		UserType: models.UserTypeSeller,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var ve *ValidationError
	cases := []struct {
		name string
		req  models.RegisterUserRequest
	}{
		{"duplicate email", models.RegisterUserRequest{Email: "bob@example.com", Password: "pw", UserType: models.UserTypeBuyer}},
		{"missing email", models.RegisterUserRequest{Password: "pw", UserType: models.UserTypeBuyer}},
		{"missing password", models.RegisterUserRequest{Email: "x@example.com", UserType: models.UserTypeBuyer}},
		{"bad user type", models.RegisterUserRequest{Email: "y@example.com", Password: "pw", UserType: "admin"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.userService.Register(ctx, tc.req); !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestUpdateUserKeepsCredentials(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.userService.Register(ctx, models.RegisterUserRequest{
		Email:    "carol@example.com",
		Password: "pw",
		UserType: models.UserTypeBuyer,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	updated, err := env.userService.UpdateUser(ctx, user.ID, models.UpdateUserRequest{
		FirstName: "Carol",
		LastName:  "Jones",
		Phone:     "555-0100",
		Address:   "1 Main St",
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.FirstName != "Carol" || updated.Address != "1 Main St" {
		t.Errorf("profile not updated: %+v", updated)
	}
	if updated.Email != "carol@example.com" {
		t.Errorf("email changed to %q", updated.Email)
	}

	// login still works with the original password
	if _, err := env.userService.Login(ctx, models.LoginRequest{Email: "carol@example.com", Password: "pw"}); err != nil {
		t.Errorf("Login after update: %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	buyer := env.seedUser(t, models.UserTypeBuyer)

	if err := env.userService.DeleteUser(ctx, buyer); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := env.userService.GetUser(ctx, buyer); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := env.userService.DeleteUser(ctx, buyer); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}
