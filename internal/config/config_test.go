package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                       8080,
		DatabaseURL:                "postgres://localhost:5432/neobot",
		JWTSecret:                  "a-strong-secret-of-sufficient-length!",
		DeepSeekAPIKey:             "sk-test",
		NotchPayAPIKey:             "np-test",
		HealthCheckIntervalSeconds: 300,
	}
}

func TestValidateAcceptsStrongConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate(true))
}

func TestValidateRejectsShortSecretInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = "short"
	require.Error(t, cfg.Validate(true))

	// Development tolerates it.
	require.NoError(t, cfg.Validate(false))
}

func TestValidateRejectsKnownWeakSecrets(t *testing.T) {
	for _, weak := range knownWeakSecrets {
		cfg := validConfig()
		cfg.JWTSecret = weak
		assert.Error(t, cfg.Validate(true), "weak secret %q must be rejected", weak)
	}
}

func TestValidateRejectsTooFrequentHealthChecks(t *testing.T) {
	cfg := validConfig()
	cfg.HealthCheckIntervalSeconds = 5
	require.Error(t, cfg.Validate(false))
}

func TestDerivedValues(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, 5*time.Minute, cfg.HealthCheckInterval())
}

func TestLoadRequiresMandatoryVars(t *testing.T) {
	t.Setenv("PORT", "9090")
	// Mandatory vars deliberately unset: there is no embedded fallback
	// for database, JWT or provider credentials. t.Setenv registers the
	// restore; Unsetenv clears the value for the duration of the test.
	for _, key := range []string{"DATABASE_URL", "JWT_SECRET", "DEEPSEEK_API_KEY", "NOTCHPAY_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	_, err := Load()
	require.Error(t, err)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/neobot")
	t.Setenv("JWT_SECRET", "a-strong-secret-of-sufficient-length!")
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("NOTCHPAY_API_KEY", "np-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "devices", cfg.DeviceStoreDir)
	assert.Equal(t, 300, cfg.HealthCheckIntervalSeconds)
}
