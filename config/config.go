package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	Port          string
	AllowedOrigin string
	GinMode       string

	MongoURI     string
	MongoDB      string
	MongoTimeout time.Duration

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	OTPTTL     time.Duration

	RateLimitMax    int
	RateLimitWindow time.Duration

	SettlementDelay time.Duration
	SettlementSweep string

	RedisURL      string
	StatsCacheTTL time.Duration

	KafkaBrokers     []string
	KafkaTopicPrefix string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string

	LogLevel  string
	LogFormat string

	ShutdownTimeout time.Duration
}

// fileConfig mirrors the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	Server struct {
		Port          string `yaml:"port"`
		AllowedOrigin string `yaml:"allowed_origin"`
	} `yaml:"server"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	RateLimit struct {
		Max    int    `yaml:"max"`
		Window string `yaml:"window"`
	} `yaml:"rate_limit"`
	Donations struct {
		SettlementDelay string `yaml:"settlement_delay"`
		SettlementSweep string `yaml:"settlement_sweep"`
	} `yaml:"donations"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers     []string `yaml:"brokers"`
		TopicPrefix string   `yaml:"topic_prefix"`
	} `yaml:"kafka"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load resolves configuration as defaults, then the CONFIG_FILE yaml (if any),
// then environment variables. A .env file in the working directory is loaded
// into the environment first.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:             "5000",
		AllowedOrigin:    "http://localhost:3000",
		MongoURI:         "mongodb://localhost:27017/worldpeace",
		MongoDB:          "worldpeace",
		MongoTimeout:     10 * time.Second,
		TokenTTL:         7 * 24 * time.Hour,
		BcryptCost:       12,
		OTPTTL:           10 * time.Minute,
		RateLimitMax:     100,
		RateLimitWindow:  15 * time.Minute,
		SettlementDelay:  2 * time.Second,
		SettlementSweep:  "@every 1m",
		StatsCacheTTL:    30 * time.Second,
		KafkaTopicPrefix: "worldpeace.",
		LogLevel:         "info",
		LogFormat:        "text",
		ShutdownTimeout:  10 * time.Second,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET not set in env")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate rejects durations the limiter, token issuer and timers cannot use.
func (c Config) validate() error {
	for _, d := range []struct {
		name    string
		v       time.Duration
		allowed bool
	}{
		{"RATE_LIMIT_WINDOW", c.RateLimitWindow, c.RateLimitWindow > 0},
		{"JWT_EXP", c.TokenTTL, c.TokenTTL > 0},
		{"MONGO_TIMEOUT", c.MongoTimeout, c.MongoTimeout > 0},
		{"SHUTDOWN_TIMEOUT", c.ShutdownTimeout, c.ShutdownTimeout > 0},
		{"SETTLEMENT_DELAY", c.SettlementDelay, c.SettlementDelay >= 0},
		{"STATS_CACHE_TTL", c.StatsCacheTTL, c.StatsCacheTTL >= 0},
	} {
		if !d.allowed {
			return fmt.Errorf("invalid %s value %s", d.name, d.v)
		}
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.Port, f.Server.Port)
	setString(&c.AllowedOrigin, f.Server.AllowedOrigin)
	setString(&c.MongoURI, f.Mongo.URI)
	setString(&c.MongoDB, f.Mongo.Database)
	if f.RateLimit.Max > 0 {
		c.RateLimitMax = f.RateLimit.Max
	}
	setString(&c.SettlementSweep, f.Donations.SettlementSweep)
	setString(&c.RedisURL, f.Redis.URL)
	if len(f.Kafka.Brokers) > 0 {
		c.KafkaBrokers = f.Kafka.Brokers
	}
	setString(&c.KafkaTopicPrefix, f.Kafka.TopicPrefix)
	setString(&c.LogLevel, f.Log.Level)
	setString(&c.LogFormat, f.Log.Format)

	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"rate_limit.window", f.RateLimit.Window, &c.RateLimitWindow},
		{"donations.settlement_delay", f.Donations.SettlementDelay, &c.SettlementDelay},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, os.Getenv("PORT"))
	setString(&c.AllowedOrigin, os.Getenv("FRONTEND_URL"))
	setString(&c.GinMode, os.Getenv("GIN_MODE"))
	setString(&c.MongoURI, os.Getenv("MONGODB_URI"))
	setString(&c.MongoDB, os.Getenv("MONGO_DB"))
	setString(&c.JWTSecret, os.Getenv("JWT_SECRET"))
	setString(&c.SettlementSweep, os.Getenv("SETTLEMENT_SWEEP"))
	setString(&c.RedisURL, os.Getenv("REDIS_URL"))
	setString(&c.KafkaTopicPrefix, os.Getenv("KAFKA_TOPIC_PREFIX"))
	setString(&c.SMTPHost, os.Getenv("SMTP_HOST"))
	setString(&c.SMTPPort, os.Getenv("SMTP_PORT"))
	setString(&c.SMTPUser, os.Getenv("SMTP_USER"))
	setString(&c.SMTPPass, os.Getenv("SMTP_PASS"))
	setString(&c.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&c.LogFormat, os.Getenv("LOG_FORMAT"))

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = splitCSV(v)
	}

	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"JWT_EXP", &c.TokenTTL},
		{"RATE_LIMIT_WINDOW", &c.RateLimitWindow},
		{"SETTLEMENT_DELAY", &c.SettlementDelay},
		{"STATS_CACHE_TTL", &c.StatsCacheTTL},
		{"MONGO_TIMEOUT", &c.MongoTimeout},
		{"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout},
	} {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	for _, n := range []struct {
		key string
		dst *int
	}{
		{"BCRYPT_COST", &c.BcryptCost},
		{"RATE_LIMIT_MAX", &c.RateLimitMax},
	} {
		if v := os.Getenv(n.key); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed <= 0 {
				return fmt.Errorf("invalid %s value %q", n.key, v)
			}
			*n.dst = parsed
		}
	}

	if v := os.Getenv("OTP_TTL_MIN"); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins <= 0 {
			return fmt.Errorf("invalid OTP_TTL_MIN value %q", v)
		}
		c.OTPTTL = time.Duration(mins) * time.Minute
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
