package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays AUTH_* environment variables. Unset variables leave the
// current value untouched. Durations use Go syntax ("90m").
func parseEnv(config *Config) error {
	return cleanenv.ReadEnv(config)
}
