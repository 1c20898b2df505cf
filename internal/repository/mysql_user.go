package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/techmarket/marketplace-api/internal/models"
)

// UserStore is the MySQL implementation of UserRepository
type UserStore struct {
	store *SQLStore
}

// NewUserStore creates a MySQL-backed user repository
func NewUserStore(store *SQLStore) *UserStore {
	return &UserStore{store: store}
}

var _ UserRepository = (*UserStore)(nil)

const userColumns = "id, email, password_hash, first_name, last_name, phone, address, user_type, created_at"

func scanUser(row interface{ Scan(...any) error }, u *models.User) error {
	return row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Phone, &u.Address, &u.UserType, &u.CreatedAt)
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	start := time.Now()
	query := "SELECT " + userColumns + " FROM users ORDER BY id"
	rows, err := s.store.q(ctx).QueryContext(ctx, query)
	s.store.record(ctx, "SELECT", "users", query, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	start := time.Now()
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	var u models.User
	err := scanUser(s.store.q(ctx).QueryRowContext(ctx, query, id), &u)
	s.store.record(ctx, "SELECT", "users", query, start, err)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	start := time.Now()
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	var u models.User
	err := scanUser(s.store.q(ctx).QueryRowContext(ctx, query, email), &u)
	s.store.record(ctx, "SELECT", "users", query, start, err)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	start := time.Now()
	query := "SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)"
	var exists bool
	err := s.store.q(ctx).QueryRowContext(ctx, query, email).Scan(&exists)
	s.store.record(ctx, "SELECT", "users", query, start, err)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	query := "SELECT COUNT(*) FROM users"
	var n int64
	err := s.store.q(ctx).QueryRowContext(ctx, query).Scan(&n)
	s.store.record(ctx, "SELECT", "users", query, start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	start := time.Now()
	now := start.Truncate(time.Millisecond)
	query := `INSERT INTO users (email, password_hash, first_name, last_name, phone, address, user_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := s.store.q(ctx).ExecContext(ctx, query,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Address, u.UserType, now)
	s.store.record(ctx, "INSERT", "users", query, start, err)
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user ID: %w", err)
	}
	u.ID = id
	u.CreatedAt = now
	return nil
}

func (s *UserStore) Update(ctx context.Context, u *models.User) error {
	start := time.Now()
	query := `UPDATE users SET first_name = ?, last_name = ?, phone = ?, address = ?, user_type = ?
		WHERE id = ?`
	result, err := s.store.q(ctx).ExecContext(ctx, query,
		u.FirstName, u.LastName, u.Phone, u.Address, u.UserType, u.ID)
	s.store.record(ctx, "UPDATE", "users", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		// zero rows can also mean an identical update; verify existence
		if _, err := s.GetByID(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	query := "DELETE FROM users WHERE id = ?"
	result, err := s.store.q(ctx).ExecContext(ctx, query, id)
	s.store.record(ctx, "DELETE", "users", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
