package soil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quietcreek/soil-intel-service/internal/observability"
	"github.com/quietcreek/soil-intel-service/internal/store"
)

const (
	healthKey        = "soilgrids_api_status"
	healthCooldown   = 5 * time.Minute
	failureThreshold = 2
)

// apiStatus is the persisted circuit state for the SoilGrids REST API.
type apiStatus struct {
	IsDown              bool  `json:"isDown"`
	LastCheckMs         int64 `json:"lastCheck"`
	ConsecutiveFailures int   `json:"consecutiveFailures"`
}

// HealthTracker is a two-state circuit breaker for the primary REST path.
// Closed: attempt the primary fetch. Open: skip straight to the raster
// fallback for a 5-minute cooldown. A single rate-limit (429) or
// non-retryable server failure opens immediately; transient 502/503/504
// responses are already retried by the client and only open the circuit
// after two consecutive failed fetches. A success closes and resets the
// counter. State survives process restarts via the key-value store;
// storage problems degrade to Closed.
type HealthTracker struct {
	mu      sync.Mutex
	status  apiStatus
	kv      store.KeyValueStore
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewHealthTracker loads any persisted circuit state and returns the tracker.
func NewHealthTracker(kv store.KeyValueStore, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *HealthTracker {
	h := &HealthTracker{kv: kv, clock: clock, logger: logger, metrics: metrics}

	raw, ok, err := kv.Get(healthKey)
	if err != nil {
		logger.Warn("api health state load failed, assuming closed", "error", err)
		return h
	}
	if ok {
		if err := json.Unmarshal(raw, &h.status); err != nil {
			logger.Warn("api health state corrupted, assuming closed", "error", err)
			h.status = apiStatus{}
		}
	}
	h.setGauge()
	return h
}

// Allow reports whether the primary fetch should be attempted.
func (h *HealthTracker) Allow() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.status.IsDown {
		return true
	}
	// Cooldown elapsed: let one request probe the API. The circuit stays
	// open until that probe succeeds.
	return h.clock.Now().Sub(time.UnixMilli(h.status.LastCheckMs)) >= healthCooldown
}

// RecordSuccess closes the circuit and resets the failure counter.
func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = apiStatus{LastCheckMs: h.clock.Now().UnixMilli()}
	h.setGauge()
	h.persistLocked()
}

// RecordFailure counts a primary-fetch failure. httpStatus is the response
// status when one was received, 0 for transport errors and timeouts.
func (h *HealthTracker) RecordFailure(httpStatus int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.status.ConsecutiveFailures++
	h.status.LastCheckMs = h.clock.Now().UnixMilli()

	immediate := httpStatus == http.StatusTooManyRequests ||
		(httpStatus >= 500 && !transient5xx(httpStatus))
	if immediate || h.status.ConsecutiveFailures >= failureThreshold {
		if !h.status.IsDown {
			h.logger.Warn("soilgrids api marked down",
				"http_status", httpStatus,
				"consecutive_failures", h.status.ConsecutiveFailures)
		}
		h.status.IsDown = true
	}
	h.setGauge()
	h.persistLocked()
}

// IsDown reports whether the circuit is currently open.
func (h *HealthTracker) IsDown() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status.IsDown
}

// Reset forces the circuit closed and clears persisted state.
func (h *HealthTracker) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = apiStatus{}
	h.setGauge()
	if err := h.kv.Delete(healthKey); err != nil {
		h.logger.Warn("api health state clear failed", "error", err)
	}
}

// transient5xx reports statuses the REST client already retries; they count
// as ordinary failures here rather than tripping the circuit on sight.
func transient5xx(status int) bool {
	return status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout
}

func (h *HealthTracker) setGauge() {
	if h.status.IsDown {
		h.metrics.BreakerOpen.Set(1)
	} else {
		h.metrics.BreakerOpen.Set(0)
	}
}

// persistLocked mirrors the state through the store, best-effort.
func (h *HealthTracker) persistLocked() {
	raw, err := json.Marshal(h.status)
	if err != nil {
		return
	}
	if err := h.kv.Set(healthKey, raw); err != nil {
		h.logger.Warn("api health state persist failed", "error", err)
	}
}
