package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBDriver           string
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	SlackBotToken      string
	SlackSigningSecret string
	OpenAIAPIKey       string
	GinMode            string
	Port               string
	ReportDir          string
	ReportCleanupDelay time.Duration
	AnalyticsTimeout   time.Duration
}

func Load() *Config {
	return &Config{
		DBDriver:           getEnv("DB_DRIVER", "mysql"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBUser:             getEnv("DB_USER", "devkpi"),
		DBPassword:         getEnv("DB_PASSWORD", "devkpi"),
		DBName:             getEnv("DB_NAME", "devkpi"),
		SlackBotToken:      getEnv("SLACK_BOT_TOKEN", ""),
		SlackSigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		GinMode:            getEnv("GIN_MODE", "debug"),
		Port:               getEnv("PORT", "8080"),
		ReportDir:          getEnv("REPORT_DIR", "reports"),
		ReportCleanupDelay: getDuration("REPORT_CLEANUP_DELAY", time.Minute),
		AnalyticsTimeout:   getDuration("ANALYTICS_TIMEOUT", 45*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
