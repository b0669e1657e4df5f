package config

import (
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

func GetOpenAIKey() string {
	return GetEnvOrDefault("OPENAI_KEY", "")
}

func GetOpenAIModel() string {
	return GetEnvOrDefault("OPENAI_MODEL", "gpt-4-turbo")
}

func GetAmadeusClientID() string {
	return GetEnvOrDefault("AMADEUS_API_KEY", "")
}

func GetAmadeusClientSecret() string {
	return GetEnvOrDefault("AMADEUS_API_SECRET", "")
}

func GetTavilyAPIKey() string {
	return GetEnvOrDefault("TAVILY_API_KEY", "")
}

// GetTaskTimeout bounds how long a single assistant task may run.
func GetTaskTimeout() time.Duration {
	raw := GetEnvOrDefault("TASK_TIMEOUT", "90s")
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("value", raw).Msg("Invalid TASK_TIMEOUT, using 90s")
		return 90 * time.Second
	}
	return d
}

// GetWorkerCount returns the number of concurrent task workers.
func GetWorkerCount() int {
	raw := GetEnvOrDefault("TASK_WORKERS", "4")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		log.Warn().Str("value", raw).Msg("Invalid TASK_WORKERS, using 4")
		return 4
	}
	return n
}
