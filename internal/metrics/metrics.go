// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Pipeline stages reported on generation failure.
const (
	StageGenerate = "generate"
	StagePersist  = "persist"
	StageStore    = "store"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Generation workflow metrics
	IncGenerationRequested()
	IncGenerationCompleted()
	IncGenerationFailed(stage string) // stage: "generate", "persist", "store"
	ObserveGenerationDuration(duration time.Duration)
	IncIconsCreated(count int)

	// Credit ledger metrics
	IncCreditsReserved(amount int)
	IncInsufficientCredits()
	IncCreditsPurchased(amount int)

	// Community feed metrics
	IncCommunityCacheHit()
	IncCommunityCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
