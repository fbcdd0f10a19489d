package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/catalogauth/internal/flagx"
	"github.com/dmitrijs2005/catalogauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Pointer fields
// distinguish "absent" from "zero" so a partial file only overrides what it
// names. TokenTTL accepts "1h" or an integer number of milliseconds.
type JsonConfig struct {
	HTTPAddr          *string         `json:"http_addr"`
	GRPCAddr          *string         `json:"grpc_addr"`
	BasePath          *string         `json:"base_path"`
	DatabaseDSN       *string         `json:"database_dsn"`
	RevocationBackend *string         `json:"revocation_backend"`
	RedisURL          *string         `json:"redis_url"`
	RevocationCache   *bool           `json:"revocation_cache"`
	SecretKey         *string         `json:"secret_key"`
	TokenTTL          *timex.Duration `json:"token_ttl"`
	BcryptCost        *int            `json:"bcrypt_cost"`
	SweepSchedule     *string         `json:"sweep_schedule"`
	LogLevel          *string         `json:"log_level"`

	CORSAllowedOrigins *[]string `json:"cors_allowed_origins"`
}

// parseJson loads the file named by -c / -config in args, if any, and copies
// the fields it sets into config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.BasePath, c.BasePath)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RevocationBackend, c.RevocationBackend)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SweepSchedule, c.SweepSchedule)
	setString(&config.LogLevel, c.LogLevel)
	if c.RevocationCache != nil {
		config.RevocationCache = *c.RevocationCache
	}
	if c.TokenTTL != nil {
		config.TokenTTL = c.TokenTTL.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = *c.CORSAllowedOrigins
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
