package config

import (
	"sync"
	"time"
)

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	BaseURL  string
	LogJSON  bool
	LogDebug bool
	// JobsFile overrides the built-in job catalogue.
	JobsFile string
	// MaxResumeBytes caps the uploaded resume size.
	MaxResumeBytes int64
	// LeaderboardSize is the default N of the top-N leaderboard.
	LeaderboardSize int
	// RateLimit requests per RateWindow are allowed per client.
	RateLimit  int
	RateWindow time.Duration
	// ScreenRateLimit applies to screening submissions only; 0 disables it.
	ScreenRateLimit  int
	ScreenRateWindow time.Duration
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		appConfig = readAppConfig()
		if appConfig.Env == "development" && getEnv("APP_ENV", "") == "" {
			warnEnv("APP_ENV", "", "not set", appConfig.Env)
		}
	})
	return appConfig
}

func readAppConfig() *AppConfig {
	return &AppConfig{
		Name:             getEnv("APP_NAME", "scandid"),
		Env:              getEnv("APP_ENV", "development"),
		Port:             getEnv("APP_PORT", ":8080"),
		BaseURL:          getEnv("APP_URL", ""),
		LogJSON:          boolEnv("LOG_JSON", false),
		LogDebug:         boolEnv("LOG_DEBUG", false),
		JobsFile:         getEnv("JOBS_FILE", ""),
		MaxResumeBytes:   int64(intEnv("APP_MAX_RESUME_BYTES", 5*1024*1024)),
		LeaderboardSize:  intEnv("APP_LEADERBOARD_SIZE", 10),
		RateLimit:        intEnv("APP_RATE_LIMIT", 50),
		RateWindow:       durationEnv("APP_RATE_WINDOW", time.Minute),
		ScreenRateLimit:  intEnv("APP_SCREEN_RATE_LIMIT", 1),
		ScreenRateWindow: durationEnv("APP_SCREEN_RATE_WINDOW", 4*time.Second),
	}
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
