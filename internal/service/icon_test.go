package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/iconforge/iconforge/internal/model"
)

type fakeLedger struct {
	balance  int
	reserves []int
	err      error
}

func (f *fakeLedger) ReserveCredits(ctx context.Context, userID string, amount int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.reserves = append(f.reserves, amount)
	if f.balance < amount {
		return false, nil
	}
	f.balance -= amount
	return true, nil
}

type fakeCatalog struct {
	icons     []*model.Icon
	failAfter int // fail CreateIcon once this many rows exist; -1 disables
	createErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{failAfter: -1}
}

func (f *fakeCatalog) CreateIcon(ctx context.Context, icon *model.Icon) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.failAfter >= 0 && len(f.icons) >= f.failAfter {
		return errors.New("insert failed")
	}
	f.icons = append(f.icons, icon)
	return nil
}

func (f *fakeCatalog) ListIconsByOwner(ctx context.Context, ownerID string) ([]*model.Icon, error) {
	var out []*model.Icon
	for _, icon := range f.icons {
		if icon.OwnerID == ownerID {
			out = append(out, icon)
		}
	}
	return out, nil
}

func (f *fakeCatalog) CountIcons(ctx context.Context) (int64, error) {
	return int64(len(f.icons)), nil
}

func (f *fakeCatalog) ListIconsPage(ctx context.Context, offset int64, limit int) ([]*model.Icon, error) {
	if offset >= int64(len(f.icons)) {
		return nil, nil
	}
	end := offset + int64(limit)
	if end > int64(len(f.icons)) {
		end = int64(len(f.icons))
	}
	return f.icons[offset:end], nil
}

type fakeGenerator struct {
	err   error
	short bool
	blank int // index to blank out; -1 disables
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{blank: -1}
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, n int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.short {
		n--
	}
	blobs := make([]string, n)
	for i := range blobs {
		blobs[i] = fmt.Sprintf("blob-%d", i)
	}
	if f.blank >= 0 && f.blank < len(blobs) {
		blobs[f.blank] = ""
	}
	return blobs, nil
}

type fakeUploader struct {
	uploads   []string
	failAfter int // fail Upload once this many blobs are stored; -1 disables
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{failAfter: -1}
}

func (f *fakeUploader) Upload(ctx context.Context, id string, b64 string) error {
	if f.failAfter >= 0 && len(f.uploads) >= f.failAfter {
		return errors.New("upload failed")
	}
	f.uploads = append(f.uploads, id)
	return nil
}

func (f *fakeUploader) URL(id string) string {
	return "https://assets.test/" + id
}

func newTestService(ledger *fakeLedger, catalog *fakeCatalog, gen *fakeGenerator, up *fakeUploader) *IconService {
	return NewIconService(ledger, catalog, gen, up, nil, MockOptions{}, 10, nil)
}

func TestGenerateIconsDebitsExactly(t *testing.T) {
	ledger := &fakeLedger{balance: 10}
	catalog := newFakeCatalog()
	svc := newTestService(ledger, catalog, newFakeGenerator(), newFakeUploader())

	icons, err := svc.GenerateIcons(context.Background(), GenerateIconsInput{
		OwnerID: "u1",
		Prompt:  "rocket",
		Color:   "blue",
		Count:   3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(icons) != 3 {
		t.Fatalf("expected 3 icons, got %d", len(icons))
	}
	if ledger.balance != 7 {
		t.Fatalf("expected balance 7, got %d", ledger.balance)
	}
	if len(ledger.reserves) != 1 || ledger.reserves[0] != 3 {
		t.Fatalf("expected single reservation of 3, got %v", ledger.reserves)
	}
	if len(catalog.icons) != 3 {
		t.Fatalf("expected 3 persisted icons, got %d", len(catalog.icons))
	}
}

func TestGenerateIconsDefaultCount(t *testing.T) {
	ledger := &fakeLedger{balance: 5}
	svc := newTestService(ledger, newFakeCatalog(), newFakeGenerator(), newFakeUploader())

	icons, err := svc.GenerateIcons(context.Background(), GenerateIconsInput{
		OwnerID: "u1",
		Prompt:  "rocket",
		Color:   "blue",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(icons) != 1 {
		t.Fatalf("expected 1 icon, got %d", len(icons))
	}
	if ledger.balance != 4 {
		t.Fatalf("expected balance 4, got %d", ledger.balance)
	}
}

func TestGenerateIconsInsufficientCredits(t *testing.T) {
	ledger := &fakeLedger{balance: 2}
	catalog := newFakeCatalog()
	gen := newFakeGenerator()
	svc := newTestService(ledger, catalog, gen, newFakeUploader())

	_, err := svc.GenerateIcons(context.Background(), GenerateIconsInput{
		OwnerID: "u1",
		Prompt:  "rocket",
		Color:   "blue",
		Count:   5,
	})
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if ledger.balance != 2 {
		t.Fatalf("balance changed on rejected reservation: %d", ledger.balance)
	}
	if len(catalog.icons) != 0 {
		t.Fatalf("icons persisted despite rejection: %d", len(catalog.icons))
	}
}

func TestGenerateIconsGenerationFailureKeepsDebit(t *testing.T) {
	ledger := &fakeLedger{balance: 5}
	catalog := newFakeCatalog()
	gen := newFakeGenerator()
	gen.err = errors.New("provider down")
	svc := newTestService(ledger, catalog, gen, newFakeUploader())

	_, err := svc.GenerateIcons(context.Background(), GenerateIconsInput{
		OwnerID: "u1",
		Prompt:  "rocket",
		Color:   "blue",
		Count:   2,
	})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	// Debit-first: no refund on provider failure.
	if ledger.balance != 3 {
		t.Fatalf("expected balance 3 after failed generation, got %d", ledger.balance)
	}
	if len(catalog.icons) != 0 {
		t.Fatalf("icons persisted despite failure: %d", len(catalog.icons))
	}
}

func TestGenerateIconsShortBatchFails(t *testing.T) {
	gen := newFakeGenerator()
	gen.short = true
	svc := newTestService(&fakeLedger{balance: 5}, newFakeCatalog(), gen, newFakeUploader())

	_, err := svc.GenerateIcons(context.Background(), GenerateIconsInput{
		OwnerID: "u1",
		Prompt:  "rocket",
		Color:   "blue",
		Count:   3,
	})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerateIconsEmptyBlobFails(t *testing.T) {
	gen := newFakeGenerator()
	gen.blank = 1
	catalog := newFakeCatalog()
	svc := newTestService(&fakeLedger{balance: 5}, catalog, gen, newFakeUploader())

	_, err := svc.GenerateIcons(context.Background(), GenerateIconsInput{
		OwnerID: "u1",
		Prompt:  "rocket",
		Color:   "blue",
		Count:   3,
	})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	// Slot 0 was valid and already persisted before the blank slot aborted.
	if len(catalog.icons) != 1 {
		t.Fatalf("expected 1 persisted icon, got %d", len(catalog.icons))
	}
}

func TestGenerateIconsPersistenceFailureKeepsEarlierSlots(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.failAfter = 2
	uploader := newFakeUploader()
	svc := newTestService(&fakeLedger{balance: 10}, catalog, newFakeGenerator(), uploader)

	_, err := svc.GenerateIcons(context.Background(), GenerateIconsInput{
		OwnerID: "u1",
		Prompt:  "rocket",
		Color:   "blue",
		Count:   4,
	})
	if !errors.Is(err, ErrPersistenceFailed) {
		t.Fatalf("expected ErrPersistenceFailed, got %v", err)
	}
	if len(catalog.icons) != 2 {
		t.Fatalf("expected 2 persisted icons, got %d", len(catalog.icons))
	}
	if len(uploader.uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(uploader.uploads))
	}
}

func TestGenerateIconsStorageFailureAborts(t *testing.T) {
	catalog := newFakeCatalog()
	uploader := newFakeUploader()
	uploader.failAfter = 1
	svc := newTestService(&fakeLedger{balance: 10}, catalog, newFakeGenerator(), uploader)

	_, err := svc.GenerateIcons(context.Background(), GenerateIconsInput{
		OwnerID: "u1",
		Prompt:  "rocket",
		Color:   "blue",
		Count:   3,
	})
	if !errors.Is(err, ErrStorageFailed) {
		t.Fatalf("expected ErrStorageFailed, got %v", err)
	}
	if len(uploader.uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(uploader.uploads))
	}
	// The row for the failed slot was inserted before the upload failed.
	if len(catalog.icons) != 2 {
		t.Fatalf("expected 2 persisted icons, got %d", len(catalog.icons))
	}
}

func TestGenerateIconsMockMode(t *testing.T) {
	ledger := &fakeLedger{balance: 5}
	catalog := newFakeCatalog()
	gen := newFakeGenerator()
	gen.err = errors.New("provider must not be called")
	svc := NewIconService(ledger, catalog, gen, newFakeUploader(), nil,
		MockOptions{Enabled: true, ImageURL: "https://assets.test/mock.png"}, 10, nil)

	icons, err := svc.GenerateIcons(context.Background(), GenerateIconsInput{
		OwnerID: "u1",
		Prompt:  "rocket",
		Color:   "blue",
		Count:   4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(icons) != 1 {
		t.Fatalf("mock mode should return exactly 1 URL, got %d", len(icons))
	}
	if icons[0].ImageURL != "https://assets.test/mock.png" {
		t.Fatalf("unexpected mock URL: %s", icons[0].ImageURL)
	}
	if ledger.balance != 5 || len(ledger.reserves) != 0 {
		t.Fatalf("mock mode touched the ledger: balance=%d reserves=%v", ledger.balance, ledger.reserves)
	}
	if len(catalog.icons) != 0 {
		t.Fatalf("mock mode persisted icons: %d", len(catalog.icons))
	}
}

func TestGenerateIconsMockModeStillValidates(t *testing.T) {
	svc := NewIconService(&fakeLedger{}, newFakeCatalog(), newFakeGenerator(), newFakeUploader(), nil,
		MockOptions{Enabled: true, ImageURL: "https://assets.test/mock.png"}, 10, nil)

	_, err := svc.GenerateIcons(context.Background(), GenerateIconsInput{
		OwnerID: "u1",
		Prompt:  "",
		Color:   "blue",
	})
	if !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
}

func TestGenerateIconsUsesComposedPrompt(t *testing.T) {
	catalog := newFakeCatalog()
	svc := newTestService(&fakeLedger{balance: 5}, catalog, newFakeGenerator(), newFakeUploader())

	_, err := svc.GenerateIcons(context.Background(), GenerateIconsInput{
		OwnerID: "u1",
		Prompt:  "rocket",
		Color:   "blue",
		Count:   1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "A modern icon in blue of a rocket"
	if catalog.icons[0].Prompt != want {
		t.Fatalf("expected stored prompt %q, got %q", want, catalog.icons[0].Prompt)
	}
}

func TestGenerateIconsValidation(t *testing.T) {
	svc := newTestService(&fakeLedger{balance: 100}, newFakeCatalog(), newFakeGenerator(), newFakeUploader())

	tests := []struct {
		name    string
		input   GenerateIconsInput
		wantErr error
	}{
		{"empty_prompt", GenerateIconsInput{Color: "blue", Count: 1}, ErrEmptyPrompt},
		{"empty_color", GenerateIconsInput{Prompt: "rocket", Count: 1}, ErrEmptyColor},
		{"prompt_too_long", GenerateIconsInput{Prompt: strings.Repeat("a", 501), Color: "blue", Count: 1}, ErrPromptTooLong},
		{"color_too_long", GenerateIconsInput{Prompt: "rocket", Color: strings.Repeat("b", 51), Count: 1}, ErrColorTooLong},
		{"control_chars", GenerateIconsInput{Prompt: "rocket\x00ship", Color: "blue", Count: 1}, ErrInvalidInput},
		{"negative_count", GenerateIconsInput{Prompt: "rocket", Color: "blue", Count: -1}, ErrInvalidCount},
		{"too_many", GenerateIconsInput{Prompt: "rocket", Color: "blue", Count: 11}, ErrTooManyIcons},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.input.OwnerID = "u1"
			_, err := svc.GenerateIcons(context.Background(), test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestOwnerIcons(t *testing.T) {
	catalog := newFakeCatalog()
	now := time.Now().UTC()
	catalog.icons = []*model.Icon{
		{ID: "a", OwnerID: "u1", CreatedAt: now},
		{ID: "b", OwnerID: "u2", CreatedAt: now},
		{ID: "c", OwnerID: "u1", CreatedAt: now},
	}
	svc := newTestService(&fakeLedger{}, catalog, newFakeGenerator(), newFakeUploader())

	icons, err := svc.OwnerIcons(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(icons) != 2 {
		t.Fatalf("expected 2 icons, got %d", len(icons))
	}
}

func TestCommunitySampleEmptyCatalog(t *testing.T) {
	svc := newTestService(&fakeLedger{}, newFakeCatalog(), newFakeGenerator(), newFakeUploader())

	icons, err := svc.CommunitySample(context.Background(), 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if icons == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(icons) != 0 {
		t.Fatalf("expected 0 icons, got %d", len(icons))
	}
}

func TestCommunitySampleWindow(t *testing.T) {
	catalog := newFakeCatalog()
	for i := 0; i < 50; i++ {
		catalog.icons = append(catalog.icons, &model.Icon{
			ID:      fmt.Sprintf("icon-%02d", i),
			OwnerID: "u1",
		})
	}
	svc := newTestService(&fakeLedger{}, catalog, newFakeGenerator(), newFakeUploader())

	// Repeat to cover offsets across the range. A sample near the tail
	// yields a short page; every page is the contiguous window starting
	// at the sampled row.
	sawFull, sawShort := false, false
	for i := 0; i < 200; i++ {
		icons, err := svc.CommunitySample(context.Background(), 25)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(icons) == 0 || len(icons) > 25 {
			t.Fatalf("expected between 1 and 25 icons, got %d", len(icons))
		}
		first := icons[0]
		for j, icon := range icons {
			if icon != catalog.icons[indexOf(t, catalog, first)+j] {
				t.Fatalf("page is not contiguous from its first row")
			}
		}
		if len(icons) == 25 {
			sawFull = true
		} else {
			// Short pages only happen when the window runs off the end.
			if icons[len(icons)-1] != catalog.icons[len(catalog.icons)-1] {
				t.Fatalf("short page does not end at the catalog tail")
			}
			sawShort = true
		}
	}
	if !sawFull || !sawShort {
		t.Fatalf("expected both full and short pages across draws: full=%v short=%v", sawFull, sawShort)
	}
}

func indexOf(t *testing.T, catalog *fakeCatalog, icon *model.Icon) int {
	t.Helper()
	for i, candidate := range catalog.icons {
		if candidate == icon {
			return i
		}
	}
	t.Fatalf("icon %s not found in catalog", icon.ID)
	return -1
}

func TestCommunitySampleLimitClamped(t *testing.T) {
	catalog := newFakeCatalog()
	for i := 0; i < 10; i++ {
		catalog.icons = append(catalog.icons, &model.Icon{ID: fmt.Sprintf("icon-%d", i)})
	}

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: 25},
		{limit: -3, want: 25},
		{limit: 40, want: 40},
		{limit: 100, want: 100},
		{limit: 101, want: 100},
	}

	for _, tt := range tests {
		// The effective limit is observable as the cache key the
		// sample is stored under.
		cache := &fakeCommunityCache{entries: map[int][]*model.Icon{}}
		svc := NewIconService(&fakeLedger{}, catalog, newFakeGenerator(), newFakeUploader(), cache, MockOptions{}, 10, nil)

		if _, err := svc.CommunitySample(context.Background(), tt.limit); err != nil {
			t.Fatalf("limit %d: unexpected error: %v", tt.limit, err)
		}
		if _, ok := cache.entries[tt.want]; !ok || len(cache.entries) != 1 {
			t.Errorf("limit %d: expected sample stored under limit %d, got entries %v", tt.limit, tt.want, cache.entries)
		}
	}
}

type fakeCommunityCache struct {
	entries map[int][]*model.Icon
	hits    int
	sets    int
}

func (f *fakeCommunityCache) GetCommunitySample(ctx context.Context, limit int) ([]*model.Icon, error) {
	if icons, ok := f.entries[limit]; ok {
		f.hits++
		return icons, nil
	}
	return nil, errors.New("cache miss")
}

func (f *fakeCommunityCache) SetCommunitySample(ctx context.Context, limit int, icons []*model.Icon) error {
	f.sets++
	f.entries[limit] = icons
	return nil
}

func TestCommunitySampleCaches(t *testing.T) {
	catalog := newFakeCatalog()
	for i := 0; i < 5; i++ {
		catalog.icons = append(catalog.icons, &model.Icon{ID: fmt.Sprintf("icon-%d", i)})
	}
	cache := &fakeCommunityCache{entries: map[int][]*model.Icon{}}
	svc := NewIconService(&fakeLedger{}, catalog, newFakeGenerator(), newFakeUploader(), cache, MockOptions{}, 10, nil)

	first, err := svc.CommunitySample(context.Background(), 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected 1 cache set, got %d", cache.sets)
	}

	second, err := svc.CommunitySample(context.Background(), 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("expected 1 cache hit, got %d", cache.hits)
	}
	if len(first) != len(second) {
		t.Fatalf("cached page differs: %d vs %d", len(first), len(second))
	}
}
