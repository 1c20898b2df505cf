package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/techmarket/marketplace-api/internal/metrics"
	"github.com/techmarket/marketplace-api/internal/models"
	"github.com/techmarket/marketplace-api/internal/repository"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles account registration, login and profile management
type UserService struct {
	users   repository.UserRepository
	metrics *metrics.AppMetrics
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, m *metrics.AppMetrics) *UserService {
	return &UserService{users: users, metrics: m}
}

// ListUsers returns all registered users
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// GetUser returns a user by id
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Register creates a new account. The password is stored as a bcrypt hash;
// duplicate emails are rejected.
func (s *UserService) Register(ctx context.Context, req models.RegisterUserRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, validationErrorf("email and password are required")
	}
	if req.UserType != models.UserTypeBuyer && req.UserType != models.UserTypeSeller {
		return nil, validationErrorf("user type must be %q or %q", models.UserTypeBuyer, models.UserTypeSeller)
	}

	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, validationErrorf("email address is already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Address:      req.Address,
		UserType:     req.UserType,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validationErrorf("email address is already in use")
		}
		return nil, err
	}
	s.recordUserCount(ctx)
	return user, nil
}

// Login verifies the credentials and returns the account
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	s.recordUserCount(ctx)
	return user, nil
}

// UpdateUser mutates the profile fields; email and password are untouched
func (s *UserService) UpdateUser(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserType != "" && req.UserType != models.UserTypeBuyer && req.UserType != models.UserTypeSeller {
		return nil, validationErrorf("user type must be %q or %q", models.UserTypeBuyer, models.UserTypeSeller)
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Phone = req.Phone
	user.Address = req.Address
	if req.UserType != "" {
		user.UserType = req.UserType
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the account row
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.recordUserCount(ctx)
	return nil
}

func (s *UserService) recordUserCount(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	n, err := s.users.Count(ctx)
	if err != nil {
		return
	}
	s.metrics.ActiveUsers.Record(ctx, n, metric.WithAttributes(s.metrics.WithServiceName(nil)...))
}
