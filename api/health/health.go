// Package health aggregates liveness and readiness checks for the oracle
// API server.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    HealthStatus           `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents the result of an individual health check
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// CheckFunc is a function that performs a health check
type CheckFunc func(ctx context.Context) CheckResult

// HealthChecker manages health checks
type HealthChecker struct {
	version        string
	checks         map[string]CheckFunc
	mu             sync.RWMutex
	checkTimeout   time.Duration
	cacheTimeout   time.Duration
	cachedResponse *HealthResponse
	lastCheck      time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(version string, cacheTimeout time.Duration) *HealthChecker {
	return &HealthChecker{
		version:      version,
		checks:       make(map[string]CheckFunc),
		checkTimeout: 5 * time.Second,
		cacheTimeout: cacheTimeout,
	}
}

// RegisterCheck registers a new health check
func (hc *HealthChecker) RegisterCheck(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
	hc.cachedResponse = nil
}

// PerformChecks runs all registered health checks
func (hc *HealthChecker) PerformChecks(ctx context.Context) *HealthResponse {
	hc.mu.RLock()
	if hc.cachedResponse != nil && time.Since(hc.lastCheck) < hc.cacheTimeout {
		cached := hc.cachedResponse
		hc.mu.RUnlock()
		return cached
	}
	checks := make(map[string]CheckFunc, len(hc.checks))
	for name, check := range hc.checks {
		checks[name] = check
	}
	hc.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, check := range checks {
		wg.Add(1)
		go func(n string, c CheckFunc) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, hc.checkTimeout)
			defer cancel()

			result := c(checkCtx)

			mu.Lock()
			results[n] = result
			mu.Unlock()
		}(name, check)
	}

	wg.Wait()

	overallStatus := StatusHealthy
	for _, result := range results {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			break
		}
		if result.Status == StatusDegraded {
			overallStatus = StatusDegraded
		}
	}

	response := &HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Version:   hc.version,
		Checks:    results,
	}

	hc.mu.Lock()
	hc.cachedResponse = response
	hc.lastCheck = time.Now()
	hc.mu.Unlock()

	return response
}

// HealthHandler returns overall health status
func (hc *HealthChecker) HealthHandler(w http.ResponseWriter, r *http.Request) {
	response := hc.PerformChecks(r.Context())

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, response)
}

// LivenessHandler is a simple liveness probe
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// ReadinessHandler reports ready only when every check is healthy.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	response := hc.PerformChecks(r.Context())

	if response.Status == StatusHealthy {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ready",
			"timestamp": time.Now(),
		})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
		"status":    "not_ready",
		"reason":    response.Status,
		"timestamp": time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// StoreCheck reports unhealthy when the oracle store cannot be read.
func StoreCheck(readFunc func(context.Context) error) CheckFunc {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		err := readFunc(ctx)
		latency := time.Since(start)

		if err != nil {
			return CheckResult{
				Status:  StatusUnhealthy,
				Message: "Store read failed: " + err.Error(),
				Latency: latency.String(),
			}
		}

		return CheckResult{
			Status:  StatusHealthy,
			Message: "Store read OK",
			Latency: latency.String(),
		}
	}
}

// InstantiatedCheck reports degraded until the oracle has an authorized key.
func InstantiatedCheck(instantiatedFunc func(context.Context) (bool, error)) CheckFunc {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		instantiated, err := instantiatedFunc(ctx)
		latency := time.Since(start)

		switch {
		case err != nil:
			return CheckResult{
				Status:  StatusUnhealthy,
				Message: "Failed to read oracle state: " + err.Error(),
				Latency: latency.String(),
			}
		case !instantiated:
			return CheckResult{
				Status:  StatusDegraded,
				Message: "Oracle has no authorized public key",
				Latency: latency.String(),
			}
		default:
			return CheckResult{
				Status:  StatusHealthy,
				Message: "Oracle instantiated",
				Latency: latency.String(),
			}
		}
	}
}
