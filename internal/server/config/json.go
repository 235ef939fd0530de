package config

import (
	"encoding/json"
	"os"

	"github.com/couchwatch/auth-backend/internal/flagx"
	"github.com/couchwatch/auth-backend/internal/server/auth"
	"github.com/couchwatch/auth-backend/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// It uses timex.Duration for lifetime fields, which parses both string
// values such as "2h" and integer nanoseconds. After unmarshalling, its
// fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr                  string         `json:"endpoint_addr"`
	DatabaseDSN                   string         `json:"database_dsn"`
	SecretKey                     string         `json:"secret_key"`
	ClaimPolicy                   string         `json:"claim_policy"`
	AccessTokenValidityDuration   timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration  timex.Duration `json:"refresh_token_validity_duration"`
	RecoveryTokenValidityDuration timex.Duration `json:"recovery_token_validity_duration"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config command-line flags into the provided Config. When neither flag is
// set, no file is loaded. An unreadable or malformed file panics: a config
// file that was asked for but cannot be used is a startup-fatal condition.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.ClaimPolicy = auth.ClaimPolicy(c.ClaimPolicy)
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	config.RecoveryTokenValidityDuration = c.RecoveryTokenValidityDuration.Duration
}
