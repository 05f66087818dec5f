package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iconforge/iconforge/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, credits, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Credits,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, email, credits, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Credits,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, credits, created_at
		FROM users
		WHERE email = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Credits,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetOrCreateUser gets a user by email or creates one if not found.
func (r *Repository) GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	existing, err := r.GetUserByEmail(ctx, user.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	// Create new user
	user.CreatedAt = time.Now()
	if err := r.CreateUser(ctx, user); err != nil {
		// Handle race condition - another request may have created it
		if errors.Is(err, ErrEmailExists) {
			return r.GetUserByEmail(ctx, user.Email)
		}
		return nil, err
	}

	return user, nil
}

// GetCredits returns the current credit balance for a user.
func (r *Repository) GetCredits(ctx context.Context, userID string) (int, error) {
	query := `SELECT credits FROM users WHERE id = $1`

	var credits int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&credits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get credits: %w", err)
	}

	return credits, nil
}

// ReserveCredits atomically decrements a user's balance by amount,
// but only if the balance covers it. The single conditional UPDATE is
// what makes concurrent reservations for the same user safe; there is
// no separate read-then-write window.
//
// Returns false (and no mutation) when the balance is insufficient.
func (r *Repository) ReserveCredits(ctx context.Context, userID string, amount int) (bool, error) {
	query := `
		UPDATE users
		SET credits = credits - $2
		WHERE id = $1 AND credits >= $2
	`

	result, err := r.pool.Exec(ctx, query, userID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to reserve credits: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// AddCredits increments a user's balance. Called by the billing webhook
// after a completed checkout; never called on the generation path.
func (r *Repository) AddCredits(ctx context.Context, userID string, amount int) error {
	query := `
		UPDATE users
		SET credits = credits + $2
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to add credits: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	// PostgreSQL error code 23505 is unique_violation
	if err == nil {
		return false
	}
	msg := err.Error()
	return containsSubstring(msg, "23505") || containsSubstring(msg, "unique")
}

// containsSubstring is a simple string search.
func containsSubstring(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
