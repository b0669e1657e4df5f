package config

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// GetServerPort returns the port assistantd listens on.
func GetServerPort() string {
	return GetEnvOrDefault("PORT", "8008")
}

// GetAllowedOrigins returns the CORS allow-list for the chat endpoints.
func GetAllowedOrigins() []string {
	raw := GetEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// GetChatRateLimit returns how many chat submissions a client may make
// per minute. Zero disables rate limiting.
func GetChatRateLimit() int {
	raw := GetEnvOrDefault("RATELIMIT_CHAT", "30")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Warn().Str("value", raw).Msg("Invalid RATELIMIT_CHAT, using 30")
		return 30
	}
	return n
}
