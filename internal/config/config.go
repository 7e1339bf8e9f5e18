package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Cron       CronConfig       `mapstructure:"cron"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Ranking    RankingConfig    `mapstructure:"ranking"`
	Agent      AgentConfig      `mapstructure:"agent"`
	Health     HealthConfig     `mapstructure:"health"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Notify     NotifyConfig     `mapstructure:"notify"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	Timezone string `mapstructure:"timezone"`
}

type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	// Output is "stdout" or "stderr".
	Output string `mapstructure:"output"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	RankingRefresh string `mapstructure:"ranking_refresh"`
	Sync           string `mapstructure:"sync"`
	Reminder       string `mapstructure:"reminder"`
}

type AuthConfig struct {
	Disabled bool          `mapstructure:"disabled"`
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`

	// DemoPassword is given to the seeded accounts of the in-memory store.
	DemoPassword string `mapstructure:"demo_password"`
}

type RankingConfig struct {
	CacheSize int `mapstructure:"cache_size"`
	// StreamBuffer is the per-subscriber queue of the websocket hub.
	StreamBuffer int `mapstructure:"stream_buffer"`
}

// AgentConfig configures the device-side sync agent.
type AgentConfig struct {
	APIBase       string        `mapstructure:"api_base"`
	Email         string        `mapstructure:"email"`
	Password      string        `mapstructure:"password"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ResetPolicy   string        `mapstructure:"reset_policy"`
	StepLengthCm  int           `mapstructure:"step_length_cm"`
	Notifications bool          `mapstructure:"notifications"`
}

type HealthConfig struct {
	// Source is "mqtt" or "simulated".
	Source         string        `mapstructure:"source"`
	BrokerURL      string        `mapstructure:"broker_url"`
	TopicPrefix    string        `mapstructure:"topic_prefix"`
	ClientID       string        `mapstructure:"client_id"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	SimulatedDaily int64         `mapstructure:"simulated_daily"`
}

type CheckpointConfig struct {
	// Backend is "sqlite", "redis" or "memory".
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
	RedisAddr  string `mapstructure:"redis_addr"`
	RedisDB    int    `mapstructure:"redis_db"`
	RedisPass  string `mapstructure:"redis_password"`
	KeyPrefix  string `mapstructure:"key_prefix"`
}

type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("R4R")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.timezone", "Europe/Berlin")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("log.output", "stdout")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.ranking_refresh", "@every 1m")
	v.SetDefault("cron.sync", "@every 5m")
	v.SetDefault("cron.reminder", "0 0 18 * * *")
	v.SetDefault("auth.disabled", false)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.demo_password", "run4recht")
	v.SetDefault("ranking.cache_size", 128)
	v.SetDefault("ranking.stream_buffer", 8)
	v.SetDefault("agent.api_base", "http://localhost:8080")
	v.SetDefault("agent.email", "")
	v.SetDefault("agent.password", "")
	v.SetDefault("agent.timeout", "15s")
	v.SetDefault("agent.reset_policy", "raw")
	v.SetDefault("agent.step_length_cm", 80)
	v.SetDefault("agent.notifications", true)
	v.SetDefault("health.source", "simulated")
	v.SetDefault("health.broker_url", "tcp://localhost:1883")
	v.SetDefault("health.topic_prefix", "run4recht")
	v.SetDefault("health.client_id", "")
	v.SetDefault("health.connect_timeout", "10s")
	v.SetDefault("health.simulated_daily", 8000)
	v.SetDefault("checkpoint.backend", "sqlite")
	v.SetDefault("checkpoint.sqlite_path", "data/agent.db")
	v.SetDefault("checkpoint.redis_addr", "localhost:6379")
	v.SetDefault("checkpoint.redis_db", 0)
	v.SetDefault("checkpoint.key_prefix", "run4recht:checkpoint:")
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.timeout", "5s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Agent.ResetPolicy)) {
	case "", "raw", "floor", "zero":
	default:
		return fmt.Errorf("agent.reset_policy: unknown value %q", c.Agent.ResetPolicy)
	}
	switch strings.ToLower(strings.TrimSpace(c.Health.Source)) {
	case "", "mqtt", "simulated":
	default:
		return fmt.Errorf("health.source: unknown value %q", c.Health.Source)
	}
	switch strings.ToLower(strings.TrimSpace(c.Checkpoint.Backend)) {
	case "", "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("checkpoint.backend: unknown value %q", c.Checkpoint.Backend)
	}
	if c.Agent.StepLengthCm < 0 {
		return fmt.Errorf("agent.step_length_cm: must not be negative")
	}
	return nil
}

// Location resolves app.timezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
