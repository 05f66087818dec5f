// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/iconforge/iconforge/internal/metrics"
	"github.com/iconforge/iconforge/internal/model"
)

// Service errors.
var (
	ErrEmptyPrompt         = errors.New("prompt must not be empty")
	ErrEmptyColor          = errors.New("color must not be empty")
	ErrPromptTooLong       = errors.New("prompt exceeds maximum length")
	ErrColorTooLong        = errors.New("color exceeds maximum length")
	ErrInvalidInput        = errors.New("input contains invalid characters")
	ErrInvalidCount        = errors.New("number of icons must be positive")
	ErrTooManyIcons        = errors.New("number of icons exceeds the per-request maximum")
	ErrInsufficientCredits = errors.New("not enough credits")
	ErrGenerationFailed    = errors.New("image generation failed")
	ErrPersistenceFailed   = errors.New("failed to record icon")
	ErrStorageFailed       = errors.New("failed to store icon image")
)

// CreditLedger reserves credits ahead of generation. Reserve must be a
// single atomic conditional decrement at the storage layer.
type CreditLedger interface {
	ReserveCredits(ctx context.Context, userID string, amount int) (bool, error)
}

// IconCatalog persists and queries icon metadata.
type IconCatalog interface {
	CreateIcon(ctx context.Context, icon *model.Icon) error
	ListIconsByOwner(ctx context.Context, ownerID string) ([]*model.Icon, error)
	CountIcons(ctx context.Context) (int64, error)
	ListIconsPage(ctx context.Context, offset int64, limit int) ([]*model.Icon, error)
}

// ImageGenerator produces n base64-encoded images for a prompt. The call
// is all-or-nothing: implementations return an error rather than a
// partially filled batch.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, n int) ([]string, error)
}

// Uploader persists an encoded image blob under an icon id and derives
// the blob's public URL without contacting the store.
type Uploader interface {
	Upload(ctx context.Context, id string, b64 string) error
	URL(id string) string
}

// CommunityCache caches the community sample between requests.
// Implementations may be nil-safe no-ops; cache failures are never fatal.
type CommunityCache interface {
	GetCommunitySample(ctx context.Context, limit int) ([]*model.Icon, error)
	SetCommunitySample(ctx context.Context, limit int, icons []*model.Icon) error
}

// MockOptions configures development mock mode. When Enabled, generation
// requests skip credits, the provider and storage entirely and return a
// single fixed placeholder URL.
type MockOptions struct {
	Enabled  bool
	ImageURL string
}

// IconService orchestrates credit-gated icon generation and catalog reads.
type IconService struct {
	ledger    CreditLedger
	catalog   IconCatalog
	generator ImageGenerator
	uploader  Uploader
	community CommunityCache
	mock      MockOptions
	maxIcons  int
	metrics   metrics.Recorder
}

// NewIconService creates a new IconService. community may be nil when no
// cache is available; maxIcons <= 0 falls back to a default of 10.
func NewIconService(
	ledger CreditLedger,
	catalog IconCatalog,
	generator ImageGenerator,
	uploader Uploader,
	community CommunityCache,
	mock MockOptions,
	maxIcons int,
	recorder metrics.Recorder,
) *IconService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if maxIcons <= 0 {
		maxIcons = 10
	}
	return &IconService{
		ledger:    ledger,
		catalog:   catalog,
		generator: generator,
		uploader:  uploader,
		community: community,
		mock:      mock,
		maxIcons:  maxIcons,
		metrics:   recorder,
	}
}

// GenerateIconsInput defines one generation request.
type GenerateIconsInput struct {
	OwnerID string
	Prompt  string
	Color   string
	// Count is the number of icons requested. Zero means 1.
	Count int
}

// GeneratedIcon is one successfully produced and stored icon.
type GeneratedIcon struct {
	ImageURL string
}

// GenerateIcons runs the generation workflow: validate, reserve credits,
// generate, then record and upload each image in order.
//
// Credits are debited before the provider is called and are not refunded
// when generation or persistence fails afterwards. If a slot fails during
// persistence, earlier slots stay recorded and visible; remaining slots
// are abandoned.
func (s *IconService) GenerateIcons(ctx context.Context, input GenerateIconsInput) ([]GeneratedIcon, error) {
	count := input.Count
	if count == 0 {
		count = 1
	}

	if err := s.validateInput(input.Prompt, input.Color, count); err != nil {
		return nil, err
	}

	if s.mock.Enabled {
		return []GeneratedIcon{{ImageURL: s.mock.ImageURL}}, nil
	}

	s.metrics.IncGenerationRequested()
	start := time.Now()

	reserved, err := s.ledger.ReserveCredits(ctx, input.OwnerID, count)
	if err != nil {
		return nil, fmt.Errorf("reserve credits: %w", err)
	}
	if !reserved {
		s.metrics.IncInsufficientCredits()
		return nil, ErrInsufficientCredits
	}
	s.metrics.IncCreditsReserved(count)

	prompt := ComposePrompt(input.Prompt, input.Color)

	blobs, err := s.generator.Generate(ctx, prompt, count)
	if err != nil {
		s.metrics.IncGenerationFailed(metrics.StageGenerate)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(blobs) != count {
		s.metrics.IncGenerationFailed(metrics.StageGenerate)
		return nil, fmt.Errorf("%w: provider returned %d of %d images", ErrGenerationFailed, len(blobs), count)
	}

	icons := make([]GeneratedIcon, 0, count)
	for i, blob := range blobs {
		if blob == "" {
			s.metrics.IncGenerationFailed(metrics.StageGenerate)
			return nil, fmt.Errorf("%w: empty image at slot %d", ErrGenerationFailed, i)
		}

		id := ulid.Make().String()
		imageURL := s.uploader.URL(id)

		icon := &model.Icon{
			ID:        id,
			Prompt:    prompt,
			URL:       imageURL,
			OwnerID:   input.OwnerID,
			CreatedAt: time.Now().UTC(),
		}

		if err := s.catalog.CreateIcon(ctx, icon); err != nil {
			s.metrics.IncGenerationFailed(metrics.StagePersist)
			return nil, fmt.Errorf("%w: slot %d: %v", ErrPersistenceFailed, i, err)
		}

		if err := s.uploader.Upload(ctx, id, blob); err != nil {
			s.metrics.IncGenerationFailed(metrics.StageStore)
			return nil, fmt.Errorf("%w: slot %d: %v", ErrStorageFailed, i, err)
		}

		icons = append(icons, GeneratedIcon{ImageURL: imageURL})
	}

	s.metrics.IncIconsCreated(len(icons))
	s.metrics.IncGenerationCompleted()
	s.metrics.ObserveGenerationDuration(time.Since(start))

	return icons, nil
}

// OwnerIcons lists the caller's icons, newest first.
func (s *IconService) OwnerIcons(ctx context.Context, ownerID string) ([]*model.Icon, error) {
	return s.catalog.ListIconsByOwner(ctx, ownerID)
}

// CommunitySample returns up to limit community icons starting at a
// uniformly random offset into the catalog, ordered by descending
// creation time. An empty catalog yields an empty slice.
func (s *IconService) CommunitySample(ctx context.Context, limit int) ([]*model.Icon, error) {
	switch {
	case limit <= 0:
		limit = 25
	case limit > 100:
		limit = 100
	}

	if s.community != nil {
		if cached, err := s.community.GetCommunitySample(ctx, limit); err == nil && cached != nil {
			s.metrics.IncCommunityCacheHit()
			return cached, nil
		}
		s.metrics.IncCommunityCacheMiss()
	}

	total, err := s.catalog.CountIcons(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []*model.Icon{}, nil
	}

	offset, err := randomOffset(total)
	if err != nil {
		return nil, err
	}

	// A sample starting near the end yields a short page; every row keeps
	// an equal chance of being the window's first element.
	icons, err := s.catalog.ListIconsPage(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	if s.community != nil {
		// Best effort; a stale or missing cache entry only costs a query.
		_ = s.community.SetCommunitySample(ctx, limit, icons)
	}

	return icons, nil
}
