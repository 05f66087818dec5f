//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/iconforge/iconforge/internal/model"
	"github.com/iconforge/iconforge/internal/testutil"
)

// ============================================================================
// Icon Repository Integration Tests
// ============================================================================

func TestIntegrationIconRepository_CreateAndList(t *testing.T) {
	ctx, repo := newIconTestEnv(t)

	ownerID := newOwner(t, ctx, repo, "user")
	icon := testutil.NewTestIcon(t, ownerID)

	if err := repo.CreateIcon(ctx, icon); err != nil {
		t.Fatalf("CreateIcon failed: %v", err)
	}

	icons, err := repo.ListIconsByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("ListIconsByOwner failed: %v", err)
	}
	if len(icons) != 1 {
		t.Fatalf("expected 1 icon, got %d", len(icons))
	}
	if icons[0].ID != icon.ID {
		t.Errorf("ID mismatch: got %q, want %q", icons[0].ID, icon.ID)
	}
	if icons[0].Prompt != icon.Prompt {
		t.Errorf("Prompt mismatch: got %q, want %q", icons[0].Prompt, icon.Prompt)
	}
	if icons[0].URL != icon.URL {
		t.Errorf("URL mismatch: got %q, want %q", icons[0].URL, icon.URL)
	}
}

func TestIntegrationIconRepository_ListNewestFirst(t *testing.T) {
	ctx, repo := newIconTestEnv(t)

	ownerID := newOwner(t, ctx, repo, "user")
	base := time.Now().UTC().Add(-1 * time.Hour)

	ids := []string{"icon-old", "icon-mid", "icon-new"}
	for i, id := range ids {
		icon := testutil.NewTestIcon(t, ownerID)
		icon.ID = testutil.UniqueID(id)
		icon.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.CreateIcon(ctx, icon); err != nil {
			t.Fatalf("CreateIcon failed: %v", err)
		}
	}

	icons, err := repo.ListIconsByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("ListIconsByOwner failed: %v", err)
	}
	if len(icons) != 3 {
		t.Fatalf("expected 3 icons, got %d", len(icons))
	}
	for i := 1; i < len(icons); i++ {
		if icons[i].CreatedAt.After(icons[i-1].CreatedAt) {
			t.Errorf("icons not in descending order at index %d", i)
		}
	}
}

func TestIntegrationIconRepository_ListScopedToOwner(t *testing.T) {
	ctx, repo := newIconTestEnv(t)

	ownerA := newOwner(t, ctx, repo, "user-a")
	ownerB := newOwner(t, ctx, repo, "user-b")

	for _, owner := range []string{ownerA, ownerA, ownerB} {
		if err := repo.CreateIcon(ctx, testutil.NewTestIcon(t, owner)); err != nil {
			t.Fatalf("CreateIcon failed: %v", err)
		}
	}

	icons, err := repo.ListIconsByOwner(ctx, ownerA)
	if err != nil {
		t.Fatalf("ListIconsByOwner failed: %v", err)
	}
	if len(icons) != 2 {
		t.Fatalf("expected 2 icons for owner A, got %d", len(icons))
	}
	for _, icon := range icons {
		if icon.OwnerID != ownerA {
			t.Errorf("icon %s belongs to %s, expected %s", icon.ID, icon.OwnerID, ownerA)
		}
	}
}

func TestIntegrationIconRepository_CountAndPage(t *testing.T) {
	ctx, repo := newIconTestEnv(t)

	ownerID := newOwner(t, ctx, repo, "user")
	base := time.Now().UTC().Add(-1 * time.Hour)
	for i := 0; i < 7; i++ {
		icon := testutil.NewTestIcon(t, ownerID)
		icon.ID = testutil.UniqueID("icon")
		icon.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.CreateIcon(ctx, icon); err != nil {
			t.Fatalf("CreateIcon failed: %v", err)
		}
	}

	total, err := repo.CountIcons(ctx)
	if err != nil {
		t.Fatalf("CountIcons failed: %v", err)
	}
	if total != 7 {
		t.Fatalf("expected 7 icons, got %d", total)
	}

	page, err := repo.ListIconsPage(ctx, 2, 3)
	if err != nil {
		t.Fatalf("ListIconsPage failed: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("expected page of 3, got %d", len(page))
	}

	// Offset past the end yields an empty page, not an error
	empty, err := repo.ListIconsPage(ctx, 100, 3)
	if err != nil {
		t.Fatalf("ListIconsPage past end failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d", len(empty))
	}
}

func TestIntegrationIconRepository_CountByOwner(t *testing.T) {
	ctx, repo := newIconTestEnv(t)

	ownerID := newOwner(t, ctx, repo, "user")
	for i := 0; i < 3; i++ {
		icon := testutil.NewTestIcon(t, ownerID)
		icon.ID = testutil.UniqueID("icon")
		if err := repo.CreateIcon(ctx, icon); err != nil {
			t.Fatalf("CreateIcon failed: %v", err)
		}
	}

	count, err := repo.CountIconsByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("CountIconsByOwner failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3, got %d", count)
	}
}

func TestIntegrationIconRepository_SchemaConstraints(t *testing.T) {
	ctx, repo := newIconTestEnv(t)

	ownerID := newOwner(t, ctx, repo, "user")

	empty := testutil.NewTestIcon(t, ownerID)
	empty.Prompt = ""
	if err := repo.CreateIcon(ctx, empty); err == nil {
		t.Error("expected insert with empty prompt to fail")
	}

	orphan := testutil.NewTestIcon(t, "no-such-user")
	if err := repo.CreateIcon(ctx, orphan); err == nil {
		t.Error("expected insert with unknown owner to fail")
	}
}

func newIconTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetUsersSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset users schema: %v", err)
	}
	if err := testutil.ResetIconsSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset icons schema: %v", err)
	}

	return ctx, repo
}

// newOwner inserts a user row so icons can reference it.
func newOwner(t *testing.T, ctx context.Context, repo *Repository, prefix string) string {
	t.Helper()
	id := testutil.UniqueID(prefix)
	user := &model.User{
		ID:        id,
		Email:     id + "@example.com",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return id
}
