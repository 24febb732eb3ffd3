package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	AuthProviderSupabase = "supabase"
	AuthProviderLocal    = "local"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Content   ContentConfig   `mapstructure:"content"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode" validate:"omitempty,oneof=debug release test"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	File  string `mapstructure:"file"`
}

// SupabaseConfig points at the hosted backend. URL and anon key are mandatory.
type SupabaseConfig struct {
	URL       string `mapstructure:"url" validate:"required,url"`
	AnonKey   string `mapstructure:"anon_key" validate:"required"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type AuthConfig struct {
	Provider string `mapstructure:"provider" validate:"oneof=supabase local"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=postgres mysql"`
	DSN             string `mapstructure:"dsn"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	Charset         string `mapstructure:"charset"`
	ParseTime       bool   `mapstructure:"parse_time"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_minutes"`
	ConnectAttempts uint   `mapstructure:"connect_attempts"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StorageConfig struct {
	Type           string `mapstructure:"type" validate:"oneof=local supabase minio oss"`
	LocalPath      string `mapstructure:"local_path"`
	SupabaseBucket string `mapstructure:"supabase_bucket"`
	MinioEndpoint  string `mapstructure:"minio_endpoint"`
	MinioAccessID  string `mapstructure:"minio_access_key"`
	MinioSecret    string `mapstructure:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl"`
	OSSEndpoint    string `mapstructure:"oss_endpoint"`
	OSSAccessKey   string `mapstructure:"oss_access_key"`
	OSSSecretKey   string `mapstructure:"oss_secret_key"`
	OSSBucket      string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	ServiceName       string `mapstructure:"service_name"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ChatConfig struct {
	HistoryLimit       int    `mapstructure:"history_limit" validate:"gt=0"`
	SessionIdleMinutes int    `mapstructure:"session_idle_minutes" validate:"gt=0"`
	DefaultLanguage    string `mapstructure:"default_language" validate:"oneof=burmese japanese english"`
	MessagesPerSecond  int    `mapstructure:"messages_per_second"`
}

type ContentConfig struct {
	DefaultLevel   string `mapstructure:"default_level" validate:"oneof=N3 N2 N1"`
	CacheTTLMinute int    `mapstructure:"cache_ttl_minutes"`
}

// TokenSecret returns the key access tokens are signed with for the active provider.
func (c *Config) TokenSecret() string {
	if c.Auth.Provider == AuthProviderSupabase {
		return c.Supabase.JWTSecret
	}
	return c.JWT.Secret
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Content.CacheTTLMinute) * time.Minute
}

var envBindings = map[string]string{
	"server.port":                "SERVER_PORT",
	"server.mode":                "SERVER_MODE",
	"log.level":                  "LOG_LEVEL",
	"supabase.url":               "SUPABASE_URL",
	"supabase.anon_key":          "SUPABASE_ANON_KEY",
	"supabase.jwt_secret":        "SUPABASE_JWT_SECRET",
	"auth.provider":              "AUTH_PROVIDER",
	"database.driver":            "DATABASE_DRIVER",
	"database.dsn":               "DATABASE_DSN",
	"database.host":              "DATABASE_HOST",
	"database.port":              "DATABASE_PORT",
	"database.user":              "DATABASE_USER",
	"database.password":          "DATABASE_PASSWORD",
	"database.dbname":            "DATABASE_NAME",
	"jwt.secret":                 "JWT_SECRET",
	"redis.enabled":              "REDIS_ENABLED",
	"redis.host":                 "REDIS_HOST",
	"redis.port":                 "REDIS_PORT",
	"redis.password":             "REDIS_PASSWORD",
	"storage.type":               "STORAGE_TYPE",
	"storage.supabase_bucket":    "SUPABASE_BUCKET",
	"storage.minio_endpoint":     "MINIO_ENDPOINT",
	"storage.minio_access_key":   "MINIO_ACCESS_KEY",
	"storage.minio_secret_key":   "MINIO_SECRET_KEY",
	"storage.minio_bucket":       "MINIO_BUCKET",
	"storage.oss_endpoint":       "OSS_ENDPOINT",
	"storage.oss_access_key":     "OSS_ACCESS_KEY",
	"storage.oss_secret_key":     "OSS_SECRET_KEY",
	"storage.oss_bucket":         "OSS_BUCKET",
	"tracing.enabled":            "TRACING_ENABLED",
	"tracing.collector_endpoint": "TRACING_COLLECTOR_ENDPOINT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("auth.provider", AuthProviderSupabase)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "require")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime_minutes", 60)
	v.SetDefault("database.connect_attempts", 3)
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("redis.port", 6379)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./content")
	v.SetDefault("tracing.service_name", "learning-aid")
	v.SetDefault("rate_limit.max_requests", 300)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("chat.history_limit", 50)
	v.SetDefault("chat.session_idle_minutes", 30)
	v.SetDefault("chat.default_language", "burmese")
	v.SetDefault("chat.messages_per_second", 5)
	v.SetDefault("content.default_level", "N3")
	v.SetDefault("content.cache_ttl_minutes", 10)
}

// LoadConfig reads config.yaml from path, overlays environment variables and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LEARNING_AID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("configuration file found but could not be read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, err
		}
		msgs := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			msgs = append(msgs, e.Translate(trans))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
	}

	if cfg.TokenSecret() == "" {
		return nil, fmt.Errorf("invalid configuration: no token secret configured for auth provider %q", cfg.Auth.Provider)
	}

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && cfg.Auth.Provider == AuthProviderLocal && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	return &cfg, nil
}
