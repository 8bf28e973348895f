// Package config holds SDK credentials and connection settings. Values are
// resolved from an optional YAML file and SPGCI_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Version of the SDK, sent in the User-Agent header.
const Version = "0.1.0"

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.ci.spglobal.com"

// envPrefix scopes the environment variables: SPGCI_USERNAME, SPGCI_PASSWORD,
// SPGCI_APPKEY, SPGCI_BASE_URL.
const envPrefix = "SPGCI"

// Config holds credentials and client settings.
type Config struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	AppKey   string `mapstructure:"appkey"`

	// BaseURL is the API root without a trailing slash.
	BaseURL string `mapstructure:"base_url"`

	// UserAgent identifies the SDK on every request.
	UserAgent string `mapstructure:"user_agent"`

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration `mapstructure:"timeout"`

	// Sleep is an optional pause before each API call.
	Sleep time.Duration `mapstructure:"sleep"`

	// PageSize is the default pageSize query parameter.
	PageSize int `mapstructure:"page_size"`

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: fmt.Sprintf("spgci-go/%s", Version),
		Timeout:   30 * time.Second,
		PageSize:  1000,
	}
}

// Load resolves configuration from the environment and an optional config
// file. Environment variables win over file values.
func Load(file string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("user_agent", def.UserAgent)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("page_size", def.PageSize)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults need an explicit binding for Unmarshal to see
	// their environment values.
	for _, key := range []string{"username", "password", "appkey", "sleep", "insecure_skip_verify"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks that credentials are present.
func (c Config) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("username is required (set SPGCI_USERNAME)")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required (set SPGCI_PASSWORD)")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	return nil
}
