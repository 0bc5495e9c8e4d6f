package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/safenode-dev/safenode/internal/federation"
)

// ServerConfig holds all configuration for the identity core. Tags use
// mapstructure for viper unmarshalling; every key is also bindable as an
// environment variable.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// TransactionStore selects where in-flight SSO state lives: "memory"
	// (single instance) or "redis" (shared across instances).
	TransactionStore string `mapstructure:"TRANSACTION_STORE"`
	RedisAddr        string `mapstructure:"REDIS_ADDR"`

	// JWTSigningSecret signs session tokens. SessionTTLHours overrides the
	// 24h default when positive.
	JWTSigningSecret string `mapstructure:"JWT_SIGNING_SECRET"`
	SessionTTLHours  int    `mapstructure:"SESSION_TTL_HOURS"`

	// CallbackBaseURL is the externally reachable base of this backend; the
	// SSO callback path is appended to it. Providers must be told a
	// server-reachable URL, not a browser-relative one.
	CallbackBaseURL  string `mapstructure:"CALLBACK_BASE_URL"`
	FrontendErrorURL string `mapstructure:"FRONTEND_ERROR_URL"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`

	MicrosoftClientID     string `mapstructure:"MICROSOFT_CLIENT_ID"`
	MicrosoftClientSecret string `mapstructure:"MICROSOFT_CLIENT_SECRET"`
	MicrosoftTenant       string `mapstructure:"MICROSOFT_TENANT"`

	GithubClientID     string `mapstructure:"GITHUB_CLIENT_ID"`
	GithubClientSecret string `mapstructure:"GITHUB_CLIENT_SECRET"`

	AppleClientID     string `mapstructure:"APPLE_CLIENT_ID"`
	AppleClientSecret string `mapstructure:"APPLE_CLIENT_SECRET"`

	OktaClientID     string `mapstructure:"OKTA_CLIENT_ID"`
	OktaClientSecret string `mapstructure:"OKTA_CLIENT_SECRET"`
	OktaBaseURL      string `mapstructure:"OKTA_BASE_URL"`
}

// ProviderConfigs shapes the per-provider credentials for the federation
// registry. Providers without credentials are simply absent.
func (c *ServerConfig) ProviderConfigs() map[string]federation.ProviderConfig {
	return map[string]federation.ProviderConfig{
		federation.ProviderGoogle: {
			ClientID:     c.GoogleClientID,
			ClientSecret: c.GoogleClientSecret,
		},
		federation.ProviderMicrosoft: {
			ClientID:     c.MicrosoftClientID,
			ClientSecret: c.MicrosoftClientSecret,
			Tenant:       c.MicrosoftTenant,
		},
		federation.ProviderGitHub: {
			ClientID:     c.GithubClientID,
			ClientSecret: c.GithubClientSecret,
		},
		federation.ProviderApple: {
			ClientID:     c.AppleClientID,
			ClientSecret: c.AppleClientSecret,
		},
		federation.ProviderOkta: {
			ClientID:     c.OktaClientID,
			ClientSecret: c.OktaClientSecret,
			BaseURL:      c.OktaBaseURL,
		},
	}
}

// LoadConfig reads configuration from file, environment variables, and
// defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/safenode/")
	v.AddConfigPath("$HOME/.safenode")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/safenode_dev")
	v.SetDefault("MONGO_DB_NAME", "safenode_dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "safenode-identity")
	v.SetDefault("TRANSACTION_STORE", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("CALLBACK_BASE_URL", "http://localhost:8080")
	v.SetDefault("FRONTEND_ERROR_URL", "http://localhost:3000/login/error")
	v.SetDefault("MICROSOFT_TENANT", "common")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env vars apply.
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if cfg.JWTSigningSecret == "" {
		return nil, fmt.Errorf("JWT_SIGNING_SECRET must be configured")
	}

	return &cfg, nil
}
