package app

import (
	"log"

	"github.com/newrelic/go-agent/v3/newrelic"

	"buscontrol/internal/config"
)

// NewNewRelic starts the New Relic agent when enabled and licensed.
// It returns nil when APM is off or fails to start.
func NewNewRelic(cfg config.NewRelicConfig) *newrelic.Application {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		log.Printf("failed to initialize New Relic: %v", err)
		return nil
	}

	log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.AppName)
	return nrApp
}
