// Package config loads process configuration from the environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrJWTSecretMissing = errors.New("JWT_SECRET environment variable is required")
	ErrJWTSecretShort   = errors.New("JWT_SECRET must be at least 32 characters long")
)

const minJWTSecretLength = 32

// Config holds every setting used by the binaries under cmd/.
type Config struct {
	HTTPAddr        string
	DatabaseURL     string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	CheckoutTimeout time.Duration
	ShutdownTimeout time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	SMTPHost string
	SMTPPort string
	SMTPFrom string

	ArchiveTable string
	AWSRegion    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "24h")
	v.SetDefault("CHECKOUT_TIMEOUT", "10s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "5s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "mall-events")
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", "1025")
	v.SetDefault("SMTP_FROM", "noreply@mall.local")
	v.SetDefault("ARCHIVE_TABLE", "")
	v.SetDefault("AWS_REGION", "us-east-1")
}

// Load reads configuration. Environment variables override values from the
// file named by MALL_CONFIG, which override defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("MALL_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		AccessTokenTTL:  v.GetDuration("ACCESS_TOKEN_TTL"),
		CheckoutTimeout: v.GetDuration("CHECKOUT_TIMEOUT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		KafkaBrokers:    splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:      v.GetString("KAFKA_TOPIC"),
		SMTPHost:        v.GetString("SMTP_HOST"),
		SMTPPort:        v.GetString("SMTP_PORT"),
		SMTPFrom:        v.GetString("SMTP_FROM"),
		ArchiveTable:    v.GetString("ARCHIVE_TABLE"),
		AWSRegion:       v.GetString("AWS_REGION"),
	}
}

// ValidateJWT checks the signing secret required by the API server.
func (c *Config) ValidateJWT() error {
	if c.JWTSecret == "" {
		return ErrJWTSecretMissing
	}
	if len(c.JWTSecret) < minJWTSecretLength {
		return ErrJWTSecretShort
	}
	return nil
}

// KafkaEnabled reports whether at least one broker is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
