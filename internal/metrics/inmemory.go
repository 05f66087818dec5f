package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	GenerationsRequested      uint64
	GenerationsCompleted      uint64
	GenerationsFailedGenerate uint64
	GenerationsFailedPersist  uint64
	GenerationsFailedStore    uint64
	GenerationDurationCount   uint64
	GenerationDurationTotalNs int64
	IconsCreated              uint64
	CreditsReserved           uint64
	InsufficientCredits       uint64
	CreditsPurchased          uint64
	CommunityCacheHits        uint64
	CommunityCacheMisses      uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	generationsRequested      uint64
	generationsCompleted      uint64
	generationsFailedGenerate uint64
	generationsFailedPersist  uint64
	generationsFailedStore    uint64
	generationDurationCount   uint64
	generationDurationTotalNs int64
	iconsCreated              uint64
	creditsReserved           uint64
	insufficientCredits       uint64
	creditsPurchased          uint64
	communityCacheHits        uint64
	communityCacheMisses      uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		GenerationsRequested:      atomic.LoadUint64(&m.generationsRequested),
		GenerationsCompleted:      atomic.LoadUint64(&m.generationsCompleted),
		GenerationsFailedGenerate: atomic.LoadUint64(&m.generationsFailedGenerate),
		GenerationsFailedPersist:  atomic.LoadUint64(&m.generationsFailedPersist),
		GenerationsFailedStore:    atomic.LoadUint64(&m.generationsFailedStore),
		GenerationDurationCount:   atomic.LoadUint64(&m.generationDurationCount),
		GenerationDurationTotalNs: atomic.LoadInt64(&m.generationDurationTotalNs),
		IconsCreated:              atomic.LoadUint64(&m.iconsCreated),
		CreditsReserved:           atomic.LoadUint64(&m.creditsReserved),
		InsufficientCredits:       atomic.LoadUint64(&m.insufficientCredits),
		CreditsPurchased:          atomic.LoadUint64(&m.creditsPurchased),
		CommunityCacheHits:        atomic.LoadUint64(&m.communityCacheHits),
		CommunityCacheMisses:      atomic.LoadUint64(&m.communityCacheMisses),
	}
}

// IncGenerationRequested increments the generation request counter.
func (m *InMemoryRecorder) IncGenerationRequested() {
	atomic.AddUint64(&m.generationsRequested, 1)
}

// IncGenerationCompleted increments the completed generation counter.
func (m *InMemoryRecorder) IncGenerationCompleted() {
	atomic.AddUint64(&m.generationsCompleted, 1)
}

// IncGenerationFailed increments the failure counter for a stage.
func (m *InMemoryRecorder) IncGenerationFailed(stage string) {
	switch stage {
	case StagePersist:
		atomic.AddUint64(&m.generationsFailedPersist, 1)
	case StageStore:
		atomic.AddUint64(&m.generationsFailedStore, 1)
	default:
		atomic.AddUint64(&m.generationsFailedGenerate, 1)
	}
}

// ObserveGenerationDuration records one generation workflow duration.
func (m *InMemoryRecorder) ObserveGenerationDuration(duration time.Duration) {
	atomic.AddUint64(&m.generationDurationCount, 1)
	atomic.AddInt64(&m.generationDurationTotalNs, duration.Nanoseconds())
}

// IncIconsCreated adds to the created icons counter.
func (m *InMemoryRecorder) IncIconsCreated(count int) {
	if count > 0 {
		atomic.AddUint64(&m.iconsCreated, uint64(count))
	}
}

// IncCreditsReserved adds to the reserved credits counter.
func (m *InMemoryRecorder) IncCreditsReserved(amount int) {
	if amount > 0 {
		atomic.AddUint64(&m.creditsReserved, uint64(amount))
	}
}

// IncInsufficientCredits increments the rejected reservation counter.
func (m *InMemoryRecorder) IncInsufficientCredits() {
	atomic.AddUint64(&m.insufficientCredits, 1)
}

// IncCreditsPurchased adds to the purchased credits counter.
func (m *InMemoryRecorder) IncCreditsPurchased(amount int) {
	if amount > 0 {
		atomic.AddUint64(&m.creditsPurchased, uint64(amount))
	}
}

// IncCommunityCacheHit increments the community cache hit counter.
func (m *InMemoryRecorder) IncCommunityCacheHit() {
	atomic.AddUint64(&m.communityCacheHits, 1)
}

// IncCommunityCacheMiss increments the community cache miss counter.
func (m *InMemoryRecorder) IncCommunityCacheMiss() {
	atomic.AddUint64(&m.communityCacheMisses, 1)
}
