package driving

import "github.com/custodia-labs/ragdesk/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves settings from defaults, the config file and the environment.
	Get() (domain.Settings, error)

	// Set validates and stores a single configuration key.
	Set(key string, value string) error

	// Keys lists the recognised configuration keys.
	Keys() []string

	// Lookup returns the effective value of a key and its source
	// ("default", "config" or "env").
	Lookup(key string) (value, source string, err error)

	// IsSecret reports whether a key holds a credential.
	IsSecret(key string) bool

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured generation provider.
	ValidateLLMConfig() error
}
