package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL    string        `env:"DATABASE_URL,required,notEmpty"`
	DBWaitTimeout  time.Duration `env:"DB_WAIT_TIMEOUT" envDefault:"60s"`
	DBWaitInterval time.Duration `env:"DB_WAIT_INTERVAL" envDefault:"1s"`

	// Auth
	PasswordMinLength int `env:"PASSWORD_MIN_LENGTH" envDefault:"5"`
	BcryptCost        int `env:"BCRYPT_COST" envDefault:"10"`

	// Rate Limit（req/min）
	RateLimitGeneral int `env:"RATE_LIMIT_GENERAL" envDefault:"120"`
	RateLimitAuth    int `env:"RATE_LIMIT_AUTH" envDefault:"10"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Server
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	// CORS
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定、または値の形式が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.PasswordMinLength < 1 {
		return nil, fmt.Errorf("PASSWORD_MIN_LENGTH must be positive: %d", cfg.PasswordMinLength)
	}
	// bcryptは72バイトを超えるパスワードを扱えない
	if cfg.PasswordMinLength > 72 {
		return nil, fmt.Errorf("PASSWORD_MIN_LENGTH must not exceed 72: %d", cfg.PasswordMinLength)
	}
	if cfg.RateLimitGeneral < 1 || cfg.RateLimitAuth < 1 {
		return nil, fmt.Errorf("rate limits must be positive: general=%d auth=%d", cfg.RateLimitGeneral, cfg.RateLimitAuth)
	}

	return cfg, nil
}
