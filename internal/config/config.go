// Package config loads the careerbox client and devserver configuration from
// the environment and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultAPIURL is the hosted auth service.
const DefaultAPIURL = "https://career-box.onrender.com"

// Config holds the client configuration.
type Config struct {
	// APIURL is the auth service base URL, without a trailing slash.
	APIURL string `mapstructure:"CAREERBOX_API_URL"`
	// Timeout bounds every API request.
	Timeout time.Duration `mapstructure:"CAREERBOX_TIMEOUT"`
	// SessionFile is where the session is persisted. Defaults to ~/.careerbox/session.json.
	SessionFile string `mapstructure:"CAREERBOX_SESSION_FILE"`
	// RedisURL, when set, persists the session in Redis instead of SessionFile.
	RedisURL string `mapstructure:"CAREERBOX_REDIS_URL"`
	// LogFile receives diagnostics while the TUI owns the terminal. Defaults to ~/.careerbox/careerbox.log.
	LogFile string `mapstructure:"CAREERBOX_LOG_FILE"`
	// ResendCooldown is the minimum gap between OTP resends.
	ResendCooldown time.Duration `mapstructure:"CAREERBOX_OTP_RESEND_COOLDOWN"`
	// TermsURL and PrivacyURL are opened from the help overlay and the CLI.
	TermsURL   string `mapstructure:"CAREERBOX_TERMS_URL"`
	PrivacyURL string `mapstructure:"CAREERBOX_PRIVACY_URL"`
	// LogLevel is "debug", "info" or "error".
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// DevServerConfig holds the local auth server configuration.
type DevServerConfig struct {
	Addr string `mapstructure:"DEVSERVER_ADDR"`
	// FixedOTP, when set, is issued to every registration instead of a random code.
	FixedOTP  string        `mapstructure:"DEVSERVER_FIXED_OTP"`
	JWTSecret string        `mapstructure:"DEVSERVER_JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"DEVSERVER_TOKEN_TTL"`
	LogLevel  string        `mapstructure:"LOG_LEVEL"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine
	v.AutomaticEnv()
	return v
}

// Load reads .env (if present) and the environment into a validated Config.
func Load() (*Config, error) {
	v := newViper()

	v.SetDefault("CAREERBOX_API_URL", DefaultAPIURL)
	v.SetDefault("CAREERBOX_TIMEOUT", "10s")
	v.SetDefault("CAREERBOX_SESSION_FILE", "")
	v.SetDefault("CAREERBOX_REDIS_URL", "")
	v.SetDefault("CAREERBOX_LOG_FILE", "")
	v.SetDefault("CAREERBOX_OTP_RESEND_COOLDOWN", "30s")
	v.SetDefault("CAREERBOX_TERMS_URL", DefaultAPIURL+"/terms")
	v.SetDefault("CAREERBOX_PRIVACY_URL", DefaultAPIURL+"/privacy")
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("config: CAREERBOX_API_URL %q is not an absolute URL", cfg.APIURL)
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("config: CAREERBOX_TIMEOUT must be positive")
	}
	if cfg.ResendCooldown < 0 {
		return nil, errors.New("config: CAREERBOX_OTP_RESEND_COOLDOWN must not be negative")
	}

	if cfg.SessionFile == "" || cfg.LogFile == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		if cfg.SessionFile == "" {
			cfg.SessionFile = filepath.Join(dir, "session.json")
		}
		if cfg.LogFile == "" {
			cfg.LogFile = filepath.Join(dir, "careerbox.log")
		}
	}
	return &cfg, nil
}

// LoadDevServer reads the devserver configuration.
func LoadDevServer() (*DevServerConfig, error) {
	v := newViper()

	v.SetDefault("DEVSERVER_ADDR", ":5002")
	v.SetDefault("DEVSERVER_FIXED_OTP", "")
	v.SetDefault("DEVSERVER_JWT_SECRET", "careerbox-dev-secret")
	v.SetDefault("DEVSERVER_TOKEN_TTL", "24h")
	v.SetDefault("LOG_LEVEL", "info")

	var cfg DevServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Addr == "" {
		return nil, errors.New("config: DEVSERVER_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: DEVSERVER_JWT_SECRET must be set")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("config: DEVSERVER_TOKEN_TTL must be positive")
	}
	if cfg.FixedOTP != "" && (len(cfg.FixedOTP) != 6 || strings.Trim(cfg.FixedOTP, "0123456789") != "") {
		return nil, errors.New("config: DEVSERVER_FIXED_OTP must be 6 digits")
	}
	return &cfg, nil
}

// Dir returns ~/.careerbox.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".careerbox"), nil
}
