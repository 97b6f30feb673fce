package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds all configuration for the identity-provider server.
// Tags use mapstructure for Viper unmarshalling and env for environment variable binding.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	// Redis-backed transaction store; empty URI keeps the in-memory store.
	RedisURI    string `mapstructure:"REDIS_URI"`
	RedisPrefix string `mapstructure:"REDIS_PREFIX"`

	// Authentication gateway (external provider)
	GatewayBaseURL string `mapstructure:"GATEWAY_BASE_URL"`
	AuthPartnerID  string `mapstructure:"AUTH_PARTNER_ID"`
	AuthLicenseKey string `mapstructure:"AUTH_LICENSE_KEY"`

	// Flow lifetimes
	TransactionTTLSecs int `mapstructure:"TRANSACTION_TTL_SECS"`
	AuthCodeTTLSecs    int `mapstructure:"AUTH_CODE_TTL_SECS"`

	// Wallet binding
	BindingKeyExpireDays int `mapstructure:"BINDING_KEY_EXPIRE_DAYS"`
	BindingSaltLength    int `mapstructure:"BINDING_SALT_LENGTH"`
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("/etc/idp/")
	v.AddConfigPath("$HOME/.idp")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/idp_dev")
	v.SetDefault("MONGO_DB_NAME", "idp_dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("REDIS_PREFIX", "idp")
	v.SetDefault("GATEWAY_BASE_URL", "http://localhost:8088/v1/idauth")
	v.SetDefault("TRANSACTION_TTL_SECS", 600)
	v.SetDefault("AUTH_CODE_TTL_SECS", 60)
	v.SetDefault("BINDING_KEY_EXPIRE_DAYS", 10)
	v.SetDefault("BINDING_SALT_LENGTH", 16)

	if err := v.ReadInConfig(); err != nil {
		// ConfigFileNotFoundError is acceptable, means we use defaults/env vars.
		// Other errors (e.g., permission issues, malformed config) should be returned.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
