package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// Ops API
	Port           string
	RequestTimeout time.Duration
	// Ledger storage
	DatabaseURL string
	// Quote cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// Provider
	Provider        string
	AlphaBaseURL    string
	AlphaFreeKey    string
	AlphaPremiumKey string
	// Pipeline
	Pairs      []string
	CacheTTL   time.Duration
	MaxRetries int
	RetryDelay time.Duration
	// Quota
	FreeLimit         int
	PremiumDailyLimit int
	// Telegram
	TelegramToken string
	AdminID       int64
	// Refresh worker
	RefreshEvery time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parsePairs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads environment variables and applies defaults.
func Load() Config {
	adminID, _ := strconv.ParseInt(getEnv("ADMIN_ID", "0"), 10, 64)
	return Config{
		Env:               getEnv("ENV", "local"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Port:              getEnv("PORT", "8080"),
		RequestTimeout:    time.Duration(atoiDef(getEnv("REQUEST_TIMEOUT_MS", "3000"), 3000)) * time.Millisecond,
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           atoiDef(getEnv("REDIS_DB", "0"), 0),
		Provider:          getEnv("PROVIDER", "alphavantage"),
		AlphaBaseURL:      getEnv("ALPHAVANTAGE_BASE", "https://www.alphavantage.co"),
		AlphaFreeKey:      getEnv("ALPHAVANTAGE_FREE_KEY", ""),
		AlphaPremiumKey:   getEnv("ALPHAVANTAGE_PREMIUM_KEY", ""),
		Pairs:             parsePairs(getEnv("PAIRS", "EUR/USD,GBP/USD,USD/JPY,USD/CHF,AUD/USD,EUR/GBP,EUR/JPY")),
		CacheTTL:          time.Duration(atoiDef(getEnv("CACHE_TTL_SEC", "300"), 300)) * time.Second,
		MaxRetries:        atoiDef(getEnv("FETCH_MAX_RETRIES", "3"), 3),
		RetryDelay:        time.Duration(atoiDef(getEnv("FETCH_RETRY_DELAY_MS", "2000"), 2000)) * time.Millisecond,
		FreeLimit:         atoiDef(getEnv("FREE_SIGNAL_LIMIT", "2"), 2),
		PremiumDailyLimit: atoiDef(getEnv("PREMIUM_DAILY_LIMIT", "10"), 10),
		TelegramToken:     getEnv("TELEGRAM_TOKEN", ""),
		AdminID:           adminID,
		RefreshEvery:      time.Duration(atoiDef(getEnv("REFRESH_EVERY_SEC", "300"), 300)) * time.Second,
	}
}
