package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncGenerationRequested is a no-op.
func (n *NoopRecorder) IncGenerationRequested() {}

// IncGenerationCompleted is a no-op.
func (n *NoopRecorder) IncGenerationCompleted() {}

// IncGenerationFailed is a no-op.
func (n *NoopRecorder) IncGenerationFailed(stage string) {}

// ObserveGenerationDuration is a no-op.
func (n *NoopRecorder) ObserveGenerationDuration(duration time.Duration) {}

// IncIconsCreated is a no-op.
func (n *NoopRecorder) IncIconsCreated(count int) {}

// IncCreditsReserved is a no-op.
func (n *NoopRecorder) IncCreditsReserved(amount int) {}

// IncInsufficientCredits is a no-op.
func (n *NoopRecorder) IncInsufficientCredits() {}

// IncCreditsPurchased is a no-op.
func (n *NoopRecorder) IncCreditsPurchased(amount int) {}

// IncCommunityCacheHit is a no-op.
func (n *NoopRecorder) IncCommunityCacheHit() {}

// IncCommunityCacheMiss is a no-op.
func (n *NoopRecorder) IncCommunityCacheMiss() {}
