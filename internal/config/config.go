package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	RedisURL      string `toml:"redis_url"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	HttpAddr      string `toml:"http_addr"`

	// ledger configuration; when Owner is set the engine is initialized at
	// boot, otherwise initialization waits for the HTTP call
	Owner      string `toml:"owner"`
	Treasury   string `toml:"treasury"`
	FeeRateBps uint64 `toml:"fee_rate_bps"`

	SupportedTokens []string `toml:"supported_tokens"`

	DemoMode      bool   `toml:"demo_mode"`
	DemoLiquidity uint64 `toml:"demo_liquidity"`
	Debug         bool   `toml:"debug"`
}

// Load builds the configuration from environment variables (after an
// optional .env), then lets a TOML file named by CONFIG_FILE override
// whatever keys it sets.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         mustAtoi(getEnv("REDIS_DB", "0")),
		HttpAddr:        getEnv("HTTP_ADDR", ":8080"),
		Owner:           getEnv("OWNER", ""),
		Treasury:        getEnv("TREASURY", ""),
		FeeRateBps:      mustUint(getEnv("FEE_RATE_BPS", "0")),
		SupportedTokens: splitList(getEnv("SUPPORTED_TOKENS", "")),
		DemoMode:        getEnvBool("DEMO_MODE", false),
		DemoLiquidity:   mustUint(getEnv("DEMO_LIQUIDITY", "1000000")),
		Debug:           getEnvBool("DEBUG", false),
	}

	if file := getEnv("CONFIG_FILE", ""); file != "" {
		if _, err := toml.DecodeFile(file, &cfg); err != nil {
			logrus.WithError(err).WithField("file", file).Fatal("failed to load config file")
		}
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

func mustAtoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		logrus.WithError(err).Fatal("invalid numeric config value")
	}
	return v
}

func mustUint(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		logrus.WithError(err).Fatal("invalid numeric config value")
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
