package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	BusinessID             string
	DrawerBalanceTTLSecond int
	AuthSecret             string
	AccessTokenTTLMinutes  int
	ManagerPIN             string
	// Sweep cadences. The 24h/16h/4h sweep and the same-day 12h/2h sweep
	// are two distinct jobs with their own intervals.
	StaleSweepIntervalMinutes   int
	OverdueSweepIntervalMinutes int
}

func Load() Config {
	// A local .env is a dev convenience; absence is not an error.
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	drawerTTL, err := strconv.Atoi(getEnv("DRAWER_BALANCE_TTL_SECONDS", "10"))
	if err != nil || drawerTTL < 1 {
		drawerTTL = 10
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	staleSweep, err := strconv.Atoi(getEnv("STALE_SWEEP_INTERVAL_MINUTES", "60"))
	if err != nil || staleSweep < 1 {
		staleSweep = 60
	}
	overdueSweep, err := strconv.Atoi(getEnv("OVERDUE_SWEEP_INTERVAL_MINUTES", "15"))
	if err != nil || overdueSweep < 1 {
		overdueSweep = 15
	}

	cfg := Config{
		Port:                        getEnv("PORT", "8080"),
		AllowedOrigin:               getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:                 os.Getenv("DATABASE_URL"),
		RedisAddr:                   os.Getenv("REDIS_ADDR"),
		RedisPassword:               os.Getenv("REDIS_PASSWORD"),
		RedisDB:                     redisDB,
		BusinessID:                  getEnv("DEFAULT_BUSINESS_ID", "main-business"),
		DrawerBalanceTTLSecond:      drawerTTL,
		AuthSecret:                  strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:       tokenTTL,
		ManagerPIN:                  strings.TrimSpace(os.Getenv("MANAGER_PIN")),
		StaleSweepIntervalMinutes:   staleSweep,
		OverdueSweepIntervalMinutes: overdueSweep,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
