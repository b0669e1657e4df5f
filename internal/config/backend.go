package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

const defaultPollInterval = 2500 * time.Millisecond

// GetBackendBaseURL returns the base URL of the assistant backend the
// widget talks to. Defaults to the local development backend.
func GetBackendBaseURL() string {
	return GetEnvOrDefault("CONCIERGE_BACKEND_URL", "http://localhost:8008")
}

// GetPollInterval returns the interval between task status polls.
func GetPollInterval() time.Duration {
	raw := GetEnvOrDefault("CONCIERGE_POLL_INTERVAL", "")
	if raw == "" {
		return defaultPollInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("value", raw).Msg("Invalid CONCIERGE_POLL_INTERVAL, using default")
		return defaultPollInterval
	}
	return d
}

// GetWidgetLogFile returns the path the widget logs to. The TUI owns the
// terminal, so logs go to a file or nowhere at all.
func GetWidgetLogFile() string {
	return GetEnvOrDefault("CONCIERGE_LOG_FILE", "")
}
