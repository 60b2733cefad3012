package config

import (
	"errors"
	"fmt"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	AI     AIConfig     `mapstructure:"ai"`
	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Chat   ChatConfig   `mapstructure:"chat"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// AIConfig AI 服务配置
type AIConfig struct {
	Provider string          `mapstructure:"provider"`
	APIKey   string          `mapstructure:"api_key"`
	Model    string          `mapstructure:"model"`
	BaseURL  string          `mapstructure:"base_url"`
	Options  AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// StoreConfig 对话存储选择
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // mongo, sqlite
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// SQLiteConfig 本地 SQLite 配置（开发、单机部署）
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`          // JWT密钥
	AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"` // Access Token过期时间
	CookieName        string        `mapstructure:"cookie_name"`         // 浏览器会话 Cookie 名
}

// ChatConfig 对话流水线配置
type ChatConfig struct {
	StreamTimeout time.Duration   `mapstructure:"stream_timeout"` // 单轮流式生成 + 落库的上限
	TurnLock      bool            `mapstructure:"turn_lock"`      // 同一对话同时只允许一轮
	RateLimit     RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig 每用户 /chat 限流
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"` // 0 表示不限流
	Burst     int `mapstructure:"burst"`
}

// DefaultStreamTimeout stream_timeout 未配置时的单轮上限
const DefaultStreamTimeout = 5 * time.Minute

// TurnTimeout 单轮实际使用的超时，未配置时取 DefaultStreamTimeout
func (c ChatConfig) TurnTimeout() time.Duration {
	if c.StreamTimeout <= 0 {
		return DefaultStreamTimeout
	}
	return c.StreamTimeout
}

const (
	StoreDriverMongo  = "mongo"
	StoreDriverSQLite = "sqlite"
)

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	if c.Server.Mode == "release" && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required in release mode")
	}

	switch c.Store.Driver {
	case StoreDriverMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("mongo.uri and mongo.database are required for the mongo store")
		}
	case StoreDriverSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite.path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("invalid store driver %q, must be mongo/sqlite", c.Store.Driver)
	}

	if c.Chat.StreamTimeout < 0 {
		return errors.New("chat.stream_timeout must not be negative")
	}
	if c.Chat.RateLimit.PerMinute < 0 || c.Chat.RateLimit.Burst < 0 {
		return errors.New("chat.rate_limit values must not be negative")
	}

	return nil
}
