package handler

import (
	"fmt"
	"net/http"

	"github.com/iconforge/iconforge/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "iconforge_generations_requested_total %d\n", snap.GenerationsRequested)
	writeMetric(w, "iconforge_generations_completed_total %d\n", snap.GenerationsCompleted)

	writeMetric(w, "iconforge_generations_failed_total{stage=\"generate\"} %d\n", snap.GenerationsFailedGenerate)
	writeMetric(w, "iconforge_generations_failed_total{stage=\"persist\"} %d\n", snap.GenerationsFailedPersist)
	writeMetric(w, "iconforge_generations_failed_total{stage=\"store\"} %d\n", snap.GenerationsFailedStore)

	writeMetric(w, "iconforge_generation_duration_seconds_count %d\n", snap.GenerationDurationCount)
	writeMetric(w, "iconforge_generation_duration_seconds_sum %.6f\n", float64(snap.GenerationDurationTotalNs)/1e9)

	writeMetric(w, "iconforge_icons_created_total %d\n", snap.IconsCreated)

	writeMetric(w, "iconforge_credits_reserved_total %d\n", snap.CreditsReserved)
	writeMetric(w, "iconforge_credits_purchased_total %d\n", snap.CreditsPurchased)
	writeMetric(w, "iconforge_insufficient_credits_total %d\n", snap.InsufficientCredits)

	writeMetric(w, "iconforge_community_cache_hits_total %d\n", snap.CommunityCacheHits)
	writeMetric(w, "iconforge_community_cache_misses_total %d\n", snap.CommunityCacheMisses)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
