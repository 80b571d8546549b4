// Package newrelic provides New Relic APM integration for monitoring.
package newrelic

import (
	"sync"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/tos-network/powvalidator/internal/config"
	"github.com/tos-network/powvalidator/internal/util"
)

// Agent wraps New Relic APM functionality
type Agent struct {
	cfg   *config.NewRelicConfig
	app   *newrelic.Application
	mu    sync.RWMutex
}

// NewAgent creates a new New Relic agent
func NewAgent(cfg *config.NewRelicConfig) *Agent {
	return &Agent{
		cfg: cfg,
	}
}

// Start initializes the New Relic agent
func (a *Agent) Start() error {
	if !a.cfg.Enabled {
		util.Info("New Relic APM disabled")
		return nil
	}

	if a.cfg.LicenseKey == "" {
		util.Warn("New Relic license key not configured, APM disabled")
		return nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(a.cfg.AppName),
		newrelic.ConfigLicense(a.cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return err
	}

	// Wait for connection (up to 5 seconds)
	if err := app.WaitForConnection(5 * time.Second); err != nil {
		util.Warnf("New Relic connection timeout: %v (will retry in background)", err)
	}

	a.mu.Lock()
	a.app = app
	a.mu.Unlock()

	util.Infof("New Relic APM enabled for app: %s", a.cfg.AppName)
	return nil
}

// Stop shuts down the New Relic agent
func (a *Agent) Stop() {
	a.mu.RLock()
	app := a.app
	a.mu.RUnlock()

	if app != nil {
		util.Info("Shutting down New Relic agent")
		app.Shutdown(10 * time.Second)
	}
}

// RecordCustomEvent records a custom event
func (a *Agent) RecordCustomEvent(eventType string, params map[string]interface{}) {
	a.mu.RLock()
	app := a.app
	a.mu.RUnlock()

	if app != nil {
		app.RecordCustomEvent(eventType, params)
	}
}

// RecordCustomMetric records a custom metric
func (a *Agent) RecordCustomMetric(name string, value float64) {
	a.mu.RLock()
	app := a.app
	a.mu.RUnlock()

	if app != nil {
		app.RecordCustomMetric(name, value)
	}
}

// RecordShareValidated records the outcome of validating one submission.
func (a *Agent) RecordShareValidated(verdict string, durationMs float64) {
	a.RecordCustomEvent("ShareValidated", map[string]interface{}{
		"verdict":    verdict,
		"durationMs": durationMs,
	})
}

// RecordBlockFound records a block_found verdict.
func (a *Agent) RecordBlockFound(hash, target string) {
	a.RecordCustomEvent("BlockFound", map[string]interface{}{
		"hash":   hash,
		"target": target,
	})
}

// RecordRejectedSubmission records a share_rejected or error verdict, keyed
// by the reason string from the validator.
func (a *Agent) RecordRejectedSubmission(reason string) {
	a.RecordCustomEvent("SubmissionRejected", map[string]interface{}{
		"reason": reason,
	})
}

// UpdateQueueMetrics updates worker-pool saturation metrics.
func (a *Agent) UpdateQueueMetrics(queueDepth, activeWorkers int64) {
	a.RecordCustomMetric("Custom/Validator/QueueDepth", float64(queueDepth))
	a.RecordCustomMetric("Custom/Validator/ActiveWorkers", float64(activeWorkers))
}
