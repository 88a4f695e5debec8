package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

var knownWeakSecrets = []string{
	"change-me", "secret", "admin", "password", "root",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`

	// External collaborators. AI and payment keys are mandatory: the
	// service must not fall back to an embedded placeholder key.
	DeepSeekAPIKey string `env:"DEEPSEEK_API_KEY,required"`
	NotchPayAPIKey string `env:"NOTCHPAY_API_KEY,required"`

	// Optional operator notification sink; disabled when empty.
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAdminID  string `env:"TELEGRAM_ADMIN_ID"`

	// Optional quota cache; counting falls back to the message log
	// on every check when empty.
	RedisURL string `env:"REDIS_URL"`

	// Operator account seeded on first startup when both are set.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	DeviceStoreDir             string `env:"DEVICE_STORE_DIR" envDefault:"devices"`
	HealthCheckIntervalSeconds int    `env:"HEALTH_CHECK_INTERVAL_SECONDS" envDefault:"300"`
	LogLevel                   string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

func (c *Config) HealthCheckInterval() time.Duration {
	return time.Duration(c.HealthCheckIntervalSeconds) * time.Second
}

// Validate rejects secrets that would silently weaken production
// deployments. Required fields are enforced by env.Parse itself.
func (c *Config) Validate(isProduction bool) error {
	if isProduction {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production (generate with: openssl rand -base64 32)")
		}
		for _, weak := range knownWeakSecrets {
			if c.JWTSecret == weak {
				return fmt.Errorf("JWT_SECRET is a known weak value; set a strong secret in production")
			}
		}
	}
	if c.HealthCheckIntervalSeconds < 10 {
		return fmt.Errorf("HEALTH_CHECK_INTERVAL_SECONDS must be at least 10")
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
