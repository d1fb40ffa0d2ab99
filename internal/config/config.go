package config

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env            string
	Port           string
	LogLevel       string
	DatabaseURL    string // postgres:// DSN; anything else is treated as a SQLite file path
	RedisURL       string // optional; request stats and the scheduler run guard need it
	AllowedOrigins []string
	AdminSecret    string // enables POST /admin/set_admin when non-empty

	AlphaVantageAPIKey  string
	AlphaVantageBaseURL string
	PriceTimeout        time.Duration
	TxTimeout           time.Duration
	StartingCash        decimal.Decimal

	QuickPics QuickPicsConfig
}

// QuickPicsConfig drives the daily competition scheduler.
type QuickPicsConfig struct {
	Enabled   bool
	Timezone  string
	StartHour int
	Slots     int
	Creator   string
}

const defaultSQLitePath = "local.db"

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co")
	v.SetDefault("PRICE_TIMEOUT", "10s")
	v.SetDefault("TX_TIMEOUT", "5s")
	v.SetDefault("STARTING_CASH", "100000")
	v.SetDefault("QUICK_PICS_ENABLED", true)
	v.SetDefault("QUICK_PICS_TIMEZONE", "America/Los_Angeles")
	v.SetDefault("QUICK_PICS_START_HOUR", 7)
	v.SetDefault("QUICK_PICS_SLOTS", 6)
	v.SetDefault("QUICK_PICS_CREATOR", "quickpics")

	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if dbURL == "" {
		dbURL = defaultSQLitePath
	}

	startingCash, err := decimal.NewFromString(v.GetString("STARTING_CASH"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Env:                 v.GetString("APP_ENV"),
		Port:                v.GetString("PORT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		AllowedOrigins:      splitList(v.GetString("ALLOWED_ORIGINS")),
		AdminSecret:         v.GetString("ADMIN_SECRET"),
		AlphaVantageAPIKey:  v.GetString("ALPHA_VANTAGE_API_KEY"),
		AlphaVantageBaseURL: v.GetString("ALPHA_VANTAGE_BASE_URL"),
		PriceTimeout:        v.GetDuration("PRICE_TIMEOUT"),
		TxTimeout:           v.GetDuration("TX_TIMEOUT"),
		StartingCash:        startingCash,
		QuickPics: QuickPicsConfig{
			Enabled:   v.GetBool("QUICK_PICS_ENABLED"),
			Timezone:  v.GetString("QUICK_PICS_TIMEZONE"),
			StartHour: v.GetInt("QUICK_PICS_START_HOUR"),
			Slots:     v.GetInt("QUICK_PICS_SLOTS"),
			Creator:   v.GetString("QUICK_PICS_CREATOR"),
		},
	}, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
