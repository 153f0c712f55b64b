// Package config loads the process-wide configuration once at startup.
//
// Values come from the environment, optionally seeded from a dotenv file.
// Real environment variables always win over the file. The resulting Config is
// treated as read-only and handed to constructors explicitly.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rudderlabs/automationbot/internal/webhook"
	"github.com/rudderlabs/automationbot/pkg/constants"
	"github.com/spf13/viper"
)

type Config struct {
	SlackSigningSecret string
	SlackBotToken      string
	SlackAppToken      string

	DataWebhookURL     string
	ApprovalWebhookURL string
	AuthUser           string
	AuthPassword       string
	WebhookTimeout     time.Duration

	Port     string
	LogLevel string
}

// Load reads configuration from the environment and the dotenv file named by
// ENV_FILE (default ".env"). A missing dotenv file is not an error.
func Load() (*Config, error) {
	return LoadFile(envFilePath())
}

// LoadFile is Load with an explicit dotenv path. An empty path skips the file.
func LoadFile(envFile string) (*Config, error) {
	cfg, err := read(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWebhooks is Load for tools that only talk to the webhook destinations.
// Slack credentials are read but not required.
func LoadWebhooks() (*Config, error) {
	cfg, err := read(envFilePath())
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateWebhooks(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envFilePath() string {
	if envFile := os.Getenv(constants.EnvEnvFile); envFile != "" {
		return envFile
	}
	return constants.DefaultEnvFile
}

func read(envFile string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(constants.EnvPort, constants.DefaultPort)
	v.SetDefault(constants.EnvWebhookTimeout, constants.DefaultWebhookTimeout.String())
	v.SetDefault(constants.EnvLogLevel, "info")

	if envFile != "" {
		if err := readEnvFile(v, envFile); err != nil {
			return nil, err
		}
	}

	timeout, err := time.ParseDuration(strings.TrimSpace(v.GetString(constants.EnvWebhookTimeout)))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", constants.EnvWebhookTimeout, err)
	}

	cfg := &Config{
		SlackSigningSecret: v.GetString(constants.EnvSlackSigningSecret),
		SlackBotToken:      v.GetString(constants.EnvSlackBotToken),
		SlackAppToken:      v.GetString(constants.EnvSlackAppToken),
		DataWebhookURL:     lookup(v, constants.EnvDataWebhookURL, constants.EnvLegacyDataWebhookURL),
		ApprovalWebhookURL: lookup(v, constants.EnvApprovalWebhookURL, constants.EnvLegacyApprovalWebhookURL),
		AuthUser:           lookup(v, constants.EnvAuthUser, constants.EnvLegacyAuthUser),
		AuthPassword:       lookup(v, constants.EnvAuthPassword, constants.EnvLegacyAuthPassword),
		WebhookTimeout:     timeout,
		Port:               v.GetString(constants.EnvPort),
		LogLevel:           strings.ToLower(v.GetString(constants.EnvLogLevel)),
	}

	if cfg.Port == "" {
		cfg.Port = constants.DefaultPort
	}

	return cfg, nil
}

func readEnvFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat env file %s: %w", path, err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return nil
}

// lookup returns the first non-blank value among the given keys.
// Passwords keep their surrounding whitespace; only blankness is checked.
func lookup(v *viper.Viper, keys ...string) string {
	for _, key := range keys {
		if val := v.GetString(key); strings.TrimSpace(val) != "" {
			if strings.HasSuffix(key, "PASSWORD") {
				return val
			}
			return strings.TrimSpace(val)
		}
	}
	return ""
}

func (c *Config) Validate() error {
	if c.SlackBotToken == "" {
		return fmt.Errorf("%s is required", constants.EnvSlackBotToken)
	}
	if c.SlackAppToken != "" && !strings.HasPrefix(c.SlackAppToken, "xapp-") {
		return fmt.Errorf("%s must start with xapp-", constants.EnvSlackAppToken)
	}
	if c.SlackAppToken == "" && c.SlackSigningSecret == "" {
		return fmt.Errorf("%s is required when %s is not set", constants.EnvSlackSigningSecret, constants.EnvSlackAppToken)
	}
	return c.ValidateWebhooks()
}

// ValidateWebhooks checks only the outbound webhook settings.
func (c *Config) ValidateWebhooks() error {
	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %v", constants.EnvWebhookTimeout, c.WebhookTimeout)
	}
	if err := validateWebhookURL(constants.EnvDataWebhookURL, c.DataWebhookURL); err != nil {
		return err
	}
	if err := validateWebhookURL(constants.EnvApprovalWebhookURL, c.ApprovalWebhookURL); err != nil {
		return err
	}
	return nil
}

// validateWebhookURL accepts an empty value (destination not configured) or an
// absolute http(s) URL.
func validateWebhookURL(name, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}

// SocketMode reports whether the bot should connect over Slack Socket Mode
// instead of serving signed HTTP callbacks.
func (c *Config) SocketMode() bool {
	return c.SlackAppToken != ""
}

// BasicAuthEnabled reports whether outbound webhooks carry Basic credentials.
// Both halves must be present.
func (c *Config) BasicAuthEnabled() bool {
	return c.AuthUser != "" && c.AuthPassword != ""
}

// WebhookConfig projects the outbound webhook settings for the dispatcher.
func (c *Config) WebhookConfig() webhook.Config {
	return webhook.Config{
		DataURL:      c.DataWebhookURL,
		ApprovalURL:  c.ApprovalWebhookURL,
		AuthUser:     c.AuthUser,
		AuthPassword: c.AuthPassword,
		Timeout:      c.WebhookTimeout,
	}
}
