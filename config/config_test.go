package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"CONFIG_FILE", "PORT", "FRONTEND_URL", "GIN_MODE", "MONGODB_URI", "MONGO_DB",
	"JWT_SECRET", "JWT_EXP", "BCRYPT_COST", "OTP_TTL_MIN", "RATE_LIMIT_MAX",
	"RATE_LIMIT_WINDOW", "SETTLEMENT_DELAY", "SETTLEMENT_SWEEP", "REDIS_URL",
	"STATS_CACHE_TTL", "KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX", "LOG_LEVEL", "LOG_FORMAT",
	"MONGO_TIMEOUT", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.AllowedOrigin)
	assert.Equal(t, "worldpeace", cfg.MongoDB)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 2*time.Second, cfg.SettlementDelay)
	assert.Equal(t, "@every 1m", cfg.SettlementSweep)
	assert.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "worldpeace.", cfg.KafkaTopicPrefix)
}

func TestLoadRequiresSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "8081")
	t.Setenv("JWT_EXP", "24h")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("OTP_TTL_MIN", "5")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for key, value := range map[string]string{
		"RATE_LIMIT_WINDOW": "soon",
		"BCRYPT_COST":       "-1",
		"OTP_TTL_MIN":       "ten",
		"SETTLEMENT_DELAY":  "-1s",
		"JWT_EXP":           "0s",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsEmptyRateLimitWindow(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RATE_LIMIT_WINDOW", "0s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_WINDOW")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rate_limit:\n  window: -5m\n"), 0o600))
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("CONFIG_FILE", path)

	_, err = Load()
	assert.Error(t, err)
}

func TestLoadAllowsImmediateSettlement(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SETTLEMENT_DELAY", "0s")
	t.Setenv("STATS_CACHE_TTL", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.SettlementDelay)
	assert.Zero(t, cfg.StatsCacheTTL)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7000"
mongo:
  database: peace_test
rate_limit:
  max: 50
  window: 1m
donations:
  settlement_delay: 500ms
kafka:
  brokers: ["broker:9092"]
log:
  level: debug
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MONGO_DB", "from_env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "from_env", cfg.MongoDB)
	assert.Equal(t, 50, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.SettlementDelay)
	assert.Equal(t, []string{"broker:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNewLogger(t *testing.T) {
	log := NewLogger(Config{LogLevel: "warn", LogFormat: "json"})
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = NewLogger(Config{LogLevel: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}
