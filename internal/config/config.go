package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	TrendingConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetMetricsEnabled() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type TrendingConfig interface {
	GetTrendingHashtagsURL() string
	GetTrendingSongsURL() string
	GetTrendingCacheTTL() time.Duration
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	Trending
}

// New reads the relay configuration from the process environment.
// TIKTOK_CLIENT_SECRET may only be omitted in the DEV environment.
func New() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config New] parse env: %w", err)
	}
	if c.OAuth.ClientSecret == "" {
		if c.EnvVars.GetEnv() != DevEnv {
			return nil, errors.New("[config New] TIKTOK_CLIENT_SECRET is required outside DEV")
		}
		c.OAuth.ClientSecret = devClientSecret
	}
	return c, nil
}
