// Package metrics provides Prometheus metrics for the capture pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	capturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slcam",
		Subsystem: "capture",
		Name:      "captures_total",
		Help:      "Completed capture attempts by result",
	}, []string{"result"})

	captureDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "slcam",
		Subsystem: "capture",
		Name:      "duration_seconds",
		Help:      "Wall time of capture attempts from trigger setup to completion",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	framesOversized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "slcam",
		Subsystem: "capture",
		Name:      "frames_oversized_total",
		Help:      "Frames dropped because they exceeded the preallocated buffer",
	})

	deviceConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "slcam",
		Subsystem: "device",
		Name:      "connected",
		Help:      "Whether a capture device is currently connected (0 or 1)",
	})

	// Local cache so /api/status can report counts without scraping.
	cache   = captureCounts{}
	cacheMu sync.RWMutex
)

type captureCounts struct {
	Success  uint64
	Failed   uint64
	Timeouts uint64
}

// ObserveCapture records the outcome and duration of one capture attempt.
func ObserveCapture(result string, d time.Duration) {
	capturesTotal.WithLabelValues(result).Inc()
	captureDuration.Observe(d.Seconds())

	cacheMu.Lock()
	defer cacheMu.Unlock()
	switch result {
	case "success":
		cache.Success++
	case "timeout":
		cache.Timeouts++
		cache.Failed++
	default:
		cache.Failed++
	}
}

// IncFrameOversized counts a frame dropped for exceeding buffer capacity.
func IncFrameOversized() {
	framesOversized.Inc()
}

// SetDeviceConnected publishes current device presence.
func SetDeviceConnected(connected bool) {
	if connected {
		deviceConnected.Set(1)
	} else {
		deviceConnected.Set(0)
	}
}

// CaptureCounts returns cumulative capture outcome counts.
func CaptureCounts() (success, failed, timeouts uint64) {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	return cache.Success, cache.Failed, cache.Timeouts
}
