// Package config はアプリケーションの設定を管理します
// 構造体のデフォルト値 → 設定ファイル(YAML) → 環境変数 の順に読み込み、後勝ちで上書きします
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	defaultAPIAddr    = ":8080"          // APIサーバーのデフォルトリッスンアドレス
	defaultRedisAddr  = "localhost:6379" // Redisのデフォルト接続先
	defaultDBPath     = "forum.db"       // SQLiteのデフォルトファイル
	defaultSessionTTL = 14 * 24 * time.Hour
)

// ConfigPathEnvVar は設定ファイルのパスを指定する環境変数です
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths は設定ファイルを探すパスです（先に見つかったものを使用）
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// defaultAllowedOrigins はCORSで許可するデフォルトのオリジン一覧
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}

// Config はアプリケーションの設定を保持します
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Session   SessionConfig   `koanf:"session"`
	Email     EmailConfig     `koanf:"email"`
	Avatar    AvatarConfig    `koanf:"avatar"`
	Log       LogConfig       `koanf:"log"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

// ServerConfig はHTTPサーバーの設定です
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	AllowedOrigins  []string      `koanf:"allowed_origins"` // CORSで許可するオリジン一覧
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig はSQLiteの設定です
type DatabaseConfig struct {
	Path  string `koanf:"path"`
	Debug bool   `koanf:"debug"` // trueでgormのSQLログを出力
}

// RedisConfig はRedisの接続設定です
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// SessionConfig はログインセッションの設定です
type SessionConfig struct {
	TTL          time.Duration `koanf:"ttl"`
	CookieName   string        `koanf:"cookie_name"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

// EmailConfig はプロフィールからの連絡メールの送信設定です
// Hostが空の場合はメールを送信せずログに出力します
type EmailConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"` // 送信元アドレスを兼ねる
	Password string `koanf:"password"`
	UseTLS   bool   `koanf:"use_tls"`
}

// LogConfig はログ出力の設定です
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// RateLimitConfig はログイン・登録POSTのレート制限です
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            defaultAPIAddr,
			AllowedOrigins:  defaultAllowedOrigins,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{Path: defaultDBPath},
		Redis:    RedisConfig{Addr: defaultRedisAddr},
		Session: SessionConfig{
			TTL:        defaultSessionTTL,
			CookieName: "sessionid",
		},
		Email: EmailConfig{
			Port:   587,
			User:   "noreply@localhost",
			UseTLS: true,
		},
		Avatar: defaultAvatarConfig(),
		Log:    LogConfig{Level: "info", Format: "json"},
		RateLimit: RateLimitConfig{
			Requests: 10,
			Window:   time.Minute,
		},
	}
}

// envMappings は環境変数名から設定キーへの対応表です
var envMappings = map[string]string{
	"api_addr":              "server.addr",
	"cors_allowed_origins":  "server.allowed_origins",
	"shutdown_timeout":      "server.shutdown_timeout",
	"db_path":               "database.path",
	"db_debug":              "database.debug",
	"redis_addr":            "redis.addr",
	"redis_password":        "redis.password",
	"redis_db":              "redis.db",
	"session_ttl":           "session.ttl",
	"session_cookie_name":   "session.cookie_name",
	"session_cookie_secure": "session.cookie_secure",
	"email_host":            "email.host",
	"email_port":            "email.port",
	"email_host_user":       "email.user",
	"email_host_password":   "email.password",
	"email_use_tls":         "email.use_tls",
	"avatar_max_bytes":      "avatar.max_bytes",
	"log_level":             "log.level",
	"log_format":            "log.format",
	"login_rate_limit":      "ratelimit.requests",
	"login_rate_window":     "ratelimit.window",
}

// envTransform は対応表にない環境変数を空キーにして読み飛ばします（空キーはkoanfが無視する）
func envTransform(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}

// sliceConfigPaths はカンマ区切りで指定できる設定キーです
var sliceConfigPaths = []string{"server.allowed_origins", "avatar.allowed_types"}

// Load は設定を読み込み検証します
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// splitSliceFields は環境変数から来たカンマ区切り文字列をスライスに変換します
func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		if err := k.Set(path, splitCSV(s)); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate は設定値の整合性を検証します
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if strings.TrimSpace(c.Redis.Addr) == "" {
		errs = append(errs, errors.New("redis.addr is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_name is required"))
	}
	if c.Avatar.MaxBytes <= 0 {
		errs = append(errs, errors.New("avatar.max_bytes must be positive"))
	}
	if c.RateLimit.Requests < 0 {
		errs = append(errs, errors.New("ratelimit.requests must not be negative"))
	}
	return errors.Join(errs...)
}
