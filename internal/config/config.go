package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Persistence modes for live room records
const (
	PersistenceMongo = "mongo"
	PersistenceRedis = "redis"
	PersistenceNone  = "none"
)

// Audit sinks
const (
	AuditMongo = "mongo"
	AuditLog   = "log"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Relay  RelayConfig  `mapstructure:"relay"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	CORSOrigins string `mapstructure:"cors_allowed_origins"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Required  bool   `mapstructure:"required"`
}

type RelayConfig struct {
	Persistence    string        `mapstructure:"persistence"`
	Audit          string        `mapstructure:"audit"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	QueueSize      int           `mapstructure:"queue_size"`
	Rate           float64       `mapstructure:"rate"`
	Burst          int           `mapstructure:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// env names kept from the deployment manifests
var envNames = map[string]string{
	"server.port":                 "PORT",
	"server.cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
	"mongo.uri":                   "MONGO_URI",
	"mongo.database":              "MONGO_DATABASE",
	"redis.addr":                  "REDIS_URI",
	"auth.jwt_secret":             "JWT_SECRET",
	"auth.required":               "RELAY_AUTH_REQUIRED",
	"relay.persistence":           "RELAY_PERSISTENCE",
	"relay.audit":                 "RELAY_AUDIT",
	"relay.command_timeout":       "RELAY_COMMAND_TIMEOUT",
	"relay.session_ttl":           "RELAY_SESSION_TTL",
	"relay.queue_size":            "RELAY_QUEUE_SIZE",
	"relay.rate":                  "RELAY_RATE",
	"relay.burst":                 "RELAY_BURST",
	"log.level":                   "LOG_LEVEL",
	"log.pretty":                  "LOG_PRETTY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_allowed_origins", "*")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "codeclive")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("auth.jwt_secret", "super-secret-key-change-in-production")
	v.SetDefault("auth.required", true)
	v.SetDefault("relay.persistence", PersistenceMongo)
	v.SetDefault("relay.audit", AuditLog)
	v.SetDefault("relay.command_timeout", 5*time.Second)
	v.SetDefault("relay.session_ttl", 24*time.Hour)
	v.SetDefault("relay.queue_size", 256)
	v.SetDefault("relay.rate", 30.0)
	v.SetDefault("relay.burst", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads defaults, an optional config.yaml and the environment
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Redis.Addr = strings.TrimPrefix(cfg.Redis.Addr, "redis://")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	switch c.Relay.Persistence {
	case PersistenceMongo, PersistenceRedis, PersistenceNone:
	default:
		return fmt.Errorf("relay.persistence: unknown mode %q", c.Relay.Persistence)
	}
	switch c.Relay.Audit {
	case AuditMongo, AuditLog:
	default:
		return fmt.Errorf("relay.audit: unknown sink %q", c.Relay.Audit)
	}
	if c.Relay.CommandTimeout <= 0 {
		return errors.New("relay.command_timeout must be positive")
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required when auth is required")
	}
	return nil
}

// NeedsMongo reports whether any component talks to MongoDB
func (c *Config) NeedsMongo() bool {
	return c.Relay.Persistence == PersistenceMongo || c.Relay.Audit == AuditMongo
}
