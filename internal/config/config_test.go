package config

import (
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every key Load reads; Viper treats empty values as unset.
func clearEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"CAREERBOX_API_URL", "CAREERBOX_TIMEOUT", "CAREERBOX_SESSION_FILE", "CAREERBOX_REDIS_URL",
		"CAREERBOX_LOG_FILE", "CAREERBOX_OTP_RESEND_COOLDOWN", "CAREERBOX_TERMS_URL", "CAREERBOX_PRIVACY_URL", "LOG_LEVEL",
		"DEVSERVER_ADDR", "DEVSERVER_FIXED_OTP", "DEVSERVER_JWT_SECRET", "DEVSERVER_TOKEN_TTL",
	} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.ResendCooldown != 30*time.Second {
		t.Errorf("ResendCooldown = %v, want 30s", cfg.ResendCooldown)
	}
	if want := filepath.Join(home, ".careerbox", "session.json"); cfg.SessionFile != want {
		t.Errorf("SessionFile = %q, want %q", cfg.SessionFile, want)
	}
	if want := filepath.Join(home, ".careerbox", "careerbox.log"); cfg.LogFile != want {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, want)
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty", cfg.RedisURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.TermsURL != DefaultAPIURL+"/terms" || cfg.PrivacyURL != DefaultAPIURL+"/privacy" {
		t.Errorf("TermsURL, PrivacyURL = %q, %q", cfg.TermsURL, cfg.PrivacyURL)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAREERBOX_API_URL", "http://localhost:5002/")
	t.Setenv("CAREERBOX_TIMEOUT", "3s")
	t.Setenv("CAREERBOX_SESSION_FILE", "/tmp/cb/session.json")
	t.Setenv("CAREERBOX_REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("CAREERBOX_OTP_RESEND_COOLDOWN", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://localhost:5002" {
		t.Errorf("APIURL = %q, want trailing slash trimmed", cfg.APIURL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Timeout)
	}
	if cfg.SessionFile != "/tmp/cb/session.json" {
		t.Errorf("SessionFile = %q", cfg.SessionFile)
	}
	if cfg.RedisURL != "redis://localhost:6379/2" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.ResendCooldown != 5*time.Second {
		t.Errorf("ResendCooldown = %v, want 5s", cfg.ResendCooldown)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"relative api url", "CAREERBOX_API_URL", "career-box.onrender.com"},
		{"zero timeout", "CAREERBOX_TIMEOUT", "0s"},
		{"negative cooldown", "CAREERBOX_OTP_RESEND_COOLDOWN", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q: expected error", tt.key, tt.val)
			}
		})
	}
}

func TestLoadDevServer_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadDevServer()
	if err != nil {
		t.Fatalf("LoadDevServer: %v", err)
	}
	if cfg.Addr != ":5002" {
		t.Errorf("Addr = %q, want :5002", cfg.Addr)
	}
	if cfg.FixedOTP != "" {
		t.Errorf("FixedOTP = %q, want empty", cfg.FixedOTP)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.JWTSecret == "" {
		t.Error("JWTSecret should have a default")
	}
}

func TestLoadDevServer_FixedOTP(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEVSERVER_FIXED_OTP", "123456")
	cfg, err := LoadDevServer()
	if err != nil {
		t.Fatalf("LoadDevServer: %v", err)
	}
	if cfg.FixedOTP != "123456" {
		t.Errorf("FixedOTP = %q, want 123456", cfg.FixedOTP)
	}

	t.Setenv("DEVSERVER_FIXED_OTP", "12ab56")
	if _, err := LoadDevServer(); err == nil {
		t.Error("expected error for non-numeric fixed OTP")
	}
}
