package config

import (
	"fmt"
	"os"
	"strings"
)

const DevEnv = "DEV"

type EnvVars struct {
	Port           string `env:"PORT" envDefault:"3000"`
	AppName        string `env:"APP_NAME" envDefault:"Creator Relay"`
	Env            string `env:"ENV" envDefault:"DEV"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "3000"
	}
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return DevEnv
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetMetricsEnabled() bool {
	return e.MetricsEnabled
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
