// Package config loads and validates runtime configuration at startup.
// Fail-fast: if a required value is missing, Load returns an error and the
// process exits.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the match service.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	FCM       FCMConfig       `mapstructure:"fcm"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Events    EventsConfig    `mapstructure:"events"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type AppConfig struct {
	Name       string `mapstructure:"name"`
	InstanceID string `mapstructure:"instance_id"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int32  `mapstructure:"max_connections"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	URL             string        `mapstructure:"url"`
	ProfileCacheTTL time.Duration `mapstructure:"profile_cache_ttl"`
}

type AuthConfig struct {
	JWTSecret          string `mapstructure:"jwt_secret"`
	TrustGatewayHeader bool   `mapstructure:"trust_gateway_header"`
}

// FCMConfig selects how push credentials are found. With neither a
// credentials file, inline JSON nor a project id, push is disabled.
type FCMConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	CredentialsJSON string `mapstructure:"credentials_json"`
}

// Enabled reports whether enough is configured to initialise Firebase.
func (f FCMConfig) Enabled() bool {
	return f.ProjectID != "" || f.CredentialsFile != "" || f.CredentialsJSON != ""
}

type NotifyConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	TokenMaxAge time.Duration `mapstructure:"token_max_age"`
}

type SchedulerConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	InterviewSweep string `mapstructure:"interview_sweep"`
	TokenPrune     string `mapstructure:"token_prune"`
}

type EventsConfig struct {
	Heartbeat time.Duration `mapstructure:"heartbeat"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads .env, an optional YAML file and environment variables into a
// validated Config. v may carry flag bindings; nil uses a fresh instance.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	loadEnvFile()

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if v.GetBool("debug") {
		cfg.Logging.Level = "debug"
	}
	if v.GetBool("json") {
		cfg.Logging.Format = "json"
	}
	if cfg.App.InstanceID == "" {
		cfg.App.InstanceID, _ = os.Hostname()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate enforces the fail-fast requirements.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.Auth.JWTSecret == "" && !c.Auth.TrustGatewayHeader {
		return fmt.Errorf("AUTH_JWT_SECRET is required unless AUTH_TRUST_GATEWAY_HEADER is set")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT must not be empty")
	}
	return nil
}

// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "match-service")
	v.SetDefault("app.instance_id", "")

	v.SetDefault("server.port", "8083")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.port", "9083")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.profile_cache_ttl", "5m")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.trust_gateway_header", false)

	v.SetDefault("fcm.project_id", "")
	v.SetDefault("fcm.credentials_file", "")
	v.SetDefault("fcm.credentials_json", "")

	v.SetDefault("notify.timeout", "15s")
	v.SetDefault("notify.token_max_age", "6480h")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interview_sweep", "@every 15m")
	v.SetDefault("scheduler.token_prune", "@daily")

	v.SetDefault("events.heartbeat", "25s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// loadEnvFile loads the first .env found walking up from the working
// directory. A missing file is not an error.
func loadEnvFile() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}
