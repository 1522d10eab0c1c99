package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/recruit-api/pkg/messaging/redis"
	"github.com/jwalitptl/recruit-api/pkg/worker"
)

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// PublicURL is the origin confirmation links and push targets are built from.
	PublicURL      string   `mapstructure:"public_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type TokenConfig struct {
	Secret   string        `mapstructure:"secret"`
	Validity time.Duration `mapstructure:"validity"`
}

type EmailConfig struct {
	// Provider is "smtp" or "ses".
	Provider     string `mapstructure:"provider"`
	From         string `mapstructure:"from"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	AWSRegion    string `mapstructure:"aws_region"`
}

type WhatsAppConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AWSRegion string `mapstructure:"aws_region"`
	SenderID  string `mapstructure:"sender_id"`
}

type PushConfig struct {
	Icon           string        `mapstructure:"icon"`
	Badge          string        `mapstructure:"badge"`
	PendingOpenTTL time.Duration `mapstructure:"pending_open_ttl"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	DecisionsTopic string   `mapstructure:"decisions_topic"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `mapstructure:"prometheus_enabled"`
	Namespace         string `mapstructure:"namespace"`
	// WorkerPort serves the worker's health and metrics endpoints.
	WorkerPort int `mapstructure:"worker_port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	MaxRetries    int           `mapstructure:"max_retries"`
	Lease         time.Duration `mapstructure:"lease"`
	// Processed events older than RetentionDays are purged every CleanupInterval.
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      redis.Config     `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Tokens     TokenConfig      `mapstructure:"tokens"`
	Email      EmailConfig      `mapstructure:"email"`
	WhatsApp   WhatsAppConfig   `mapstructure:"whatsapp"`
	Push       PushConfig       `mapstructure:"push"`
	Outbox     OutboxConfig     `mapstructure:"outbox"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Log        LogConfig        `mapstructure:"log"`
	Support    struct {
		Contact string `mapstructure:"contact"`
	} `mapstructure:"support"`
}

// Secrets are never read from the config file in production; envconfig overlays them
// from RECRUIT_* variables.
type Secrets struct {
	JWTSecret    string `envconfig:"JWT_SECRET"`
	TokenSecret  string `envconfig:"TOKEN_SECRET"`
	DBPassword   string `envconfig:"DB_PASSWORD"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.public_url", "http://localhost:3000")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("kafka.decisions_topic", "confirmation-decisions")
	v.SetDefault("jwt.issuer", "recruit-api")
	v.SetDefault("tokens.validity", 7*24*time.Hour)
	v.SetDefault("email.provider", "smtp")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("push.icon", "/icons/icon-192.png")
	v.SetDefault("push.badge", "/icons/badge-72.png")
	v.SetDefault("push.pending_open_ttl", 10*time.Minute)
	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.poll_interval", 2*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", 500*time.Millisecond)
	v.SetDefault("outbox.max_retries", 5)
	v.SetDefault("outbox.lease", time.Minute)
	v.SetDefault("outbox.retention_days", 14)
	v.SetDefault("outbox.cleanup_interval", time.Hour)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 2)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("monitoring.prometheus_enabled", true)
	v.SetDefault("monitoring.namespace", "recruit")
	v.SetDefault("monitoring.worker_port", 8081)
	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yml from the usual locations (or CONFIG_FILE), then applies
// environment overrides. A missing config file is not an error.
func LoadConfig() (*Config, error) {
	// .env is optional and only used for local development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	v.SetEnvPrefix("RECRUIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets Secrets
	if err := envconfig.Process("RECRUIT", &secrets); err != nil {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}
	cfg.applySecrets(secrets)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applySecrets(s Secrets) {
	if s.JWTSecret != "" {
		c.JWT.Secret = s.JWTSecret
	}
	if s.TokenSecret != "" {
		c.Tokens.Secret = s.TokenSecret
	}
	if s.DBPassword != "" {
		c.Database.Password = s.DBPassword
	}
	if s.SMTPPassword != "" {
		c.Email.SMTPPassword = s.SMTPPassword
	}
}

func (c *Config) Validate() error {
	if len(c.Tokens.Secret) < 32 {
		return fmt.Errorf("tokens.secret must be at least 32 bytes")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Tokens.Validity <= 0 {
		return fmt.Errorf("tokens.validity must be positive")
	}
	switch c.Email.Provider {
	case "smtp", "ses":
	default:
		return fmt.Errorf("unsupported email provider %q", c.Email.Provider)
	}
	return nil
}

func (c *OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
		MaxRetries:    c.MaxRetries,
		Lease:         c.Lease,
	}
}
