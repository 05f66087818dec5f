package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/iconforge/iconforge/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// resetSchema drops and recreates one table's schema from its migration pair.
func resetSchema(ctx context.Context, pool *pgxpool.Pool, migration string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downPath := filepath.Join(root, "migrations", migration+".down.sql")
	upPath := filepath.Join(root, "migrations", migration+".up.sql")

	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		return fmt.Errorf("read down migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}

	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// ResetUsersSchema drops and recreates the users schema for tests.
func ResetUsersSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000001_users")
}

// ResetIconsSchema drops and recreates the icons schema for tests.
func ResetIconsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000002_icons")
}

// ResetAPIKeysSchema drops and recreates the api_keys schema for tests.
func ResetAPIKeysSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000003_api_keys")
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with a credit balance.
func NewTestUser(t testing.TB, credits int) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:        fmt.Sprintf("user-%d", now.UnixNano()),
		Email:     fmt.Sprintf("user-%d@example.com", now.UnixNano()),
		Credits:   credits,
		CreatedAt: now,
	}
}

// NewTestIcon creates a test icon owned by the given user.
func NewTestIcon(t testing.TB, ownerID string) *model.Icon {
	t.Helper()
	now := time.Now().UTC()
	id := fmt.Sprintf("icon-%d", now.UnixNano())
	return &model.Icon{
		ID:        id,
		Prompt:    "A modern icon in blue of a rocket",
		URL:       "https://iconforge-assets.s3.us-east-1.amazonaws.com/" + id,
		OwnerID:   ownerID,
		CreatedAt: now,
	}
}

// NewTestAPIKey creates a test API key with sensible defaults.
func NewTestAPIKey(t testing.TB, userID string) *model.APIKey {
	t.Helper()
	now := time.Now().UTC()
	return &model.APIKey{
		ID:            fmt.Sprintf("key-%d", now.UnixNano()),
		UserID:        userID,
		KeyHash:       fmt.Sprintf("hash-%d", now.UnixNano()),
		KeyPrefix:     "ik_test_",
		Scopes:        []string{model.ScopeRead, model.ScopeWrite},
		RateLimitTier: model.TierFree,
		Name:          "Test Key",
		CreatedAt:     now,
	}
}

// NewTestAPIKeyWithTier creates a test API key with a specific tier.
func NewTestAPIKeyWithTier(t testing.TB, userID string, tier string) *model.APIKey {
	t.Helper()
	key := NewTestAPIKey(t, userID)
	key.RateLimitTier = tier
	return key
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
