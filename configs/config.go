package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// Publishing holds every retry/backoff/rate-limit knob in one place.
// Per-platform daily limits are our own budgets, kept below the documented
// platform quotas.
type Publishing struct {
	MaxRetries        int
	UnknownMaxRetries int
	BackoffBase       time.Duration
	BackoffCap        time.Duration
	JitterFraction    float64
	RateLimitWindow   time.Duration
	DailyLimits       map[string]int
	SweepInterval     string
	SweepBatchSize    int
	DispatchLimit     int
}

type Config struct {
	TwitterClientID       string
	TwitterClientSecret   string
	LinkedinClientID      string
	LinkedinClientSecret  string
	ThreadsClientID       string
	ThreadsClientSecret   string
	InstagramClientID     string
	InstagramClientSecret string
	OpenAIKey             string
	OpenAIModel           string
	PostgresURI           string
	RedisURI              string
	FrontendURL           string
	R2                    R2
	SecretKey             string
	CookieName            string
	Publishing            Publishing
}

func LoadConfig() *Config {
	return &Config{
		TwitterClientID:       getEnv("TWITTER_CLIENT_ID", ""),
		TwitterClientSecret:   getEnv("TWITTER_CLIENT_SECRET", ""),
		LinkedinClientID:      getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedinClientSecret:  getEnv("LINKEDIN_CLIENT_SECRET", ""),
		ThreadsClientID:       getEnv("THREADS_CLIENT_ID", ""),
		ThreadsClientSecret:   getEnv("THREADS_CLIENT_SECRET", ""),
		InstagramClientID:     getEnv("INSTAGRAM_CLIENT_ID", ""),
		InstagramClientSecret: getEnv("INSTAGRAM_CLIENT_SECRET", ""),
		OpenAIKey:             getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		PostgresURI:           getEnv("POSTGRES_URI", ""),
		RedisURI:              getEnv("REDIS_URI", ""),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", "newsflow_session"),
		Publishing: Publishing{
			MaxRetries:        getEnvInt("PUBLISH_MAX_RETRIES", 3),
			UnknownMaxRetries: getEnvInt("PUBLISH_UNKNOWN_MAX_RETRIES", 1),
			BackoffBase:       getEnvDuration("PUBLISH_BACKOFF_BASE", time.Second),
			BackoffCap:        getEnvDuration("PUBLISH_BACKOFF_CAP", time.Hour),
			JitterFraction:    0.2,
			RateLimitWindow:   getEnvDuration("PUBLISH_RATE_WINDOW", 24*time.Hour),
			DailyLimits: map[string]int{
				"twitter":   getEnvInt("TWITTER_DAILY_LIMIT", 100),
				"linkedin":  getEnvInt("LINKEDIN_DAILY_LIMIT", 150),
				"threads":   getEnvInt("THREADS_DAILY_LIMIT", 250),
				"instagram": getEnvInt("INSTAGRAM_DAILY_LIMIT", 100),
			},
			SweepInterval:  getEnv("PUBLISH_SWEEP_INTERVAL", "@every 00h01m00s"),
			SweepBatchSize: getEnvInt("PUBLISH_SWEEP_BATCH", 100),
			DispatchLimit:  getEnvInt("PUBLISH_DISPATCH_LIMIT", 10),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
