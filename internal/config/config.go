package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env              string
	Port             string
	LogLevel         string
	SessionSecret    string
	HealthAdminKey   string
	DatabaseURL      string // postgres URL, or sqlite:<path> for local runs
	RedisURL         string
	AllowedOrigins   []string
	AutoMigrate      bool
	LedgerMaxRetries int // retries of a withdrawal transaction after a holding version conflict
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LEDGER_MAX_RETRIES", 3)
	viper.SetDefault("AUTO_MIGRATE", true)

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	retries := viper.GetInt("LEDGER_MAX_RETRIES")
	if retries < 0 {
		retries = 0
	}

	return &Config{
		Env:              env,
		Port:             viper.GetString("PORT"),
		LogLevel:         viper.GetString("LOG_LEVEL"),
		SessionSecret:    viper.GetString("SESSION_SECRET"),
		HealthAdminKey:   viper.GetString("HEALTH_ADMIN_KEY"),
		DatabaseURL:      dbURL,
		RedisURL:         viper.GetString("REDIS_URL"),
		AllowedOrigins:   splitList(viper.GetString("ALLOWED_ORIGINS")),
		AutoMigrate:      viper.GetBool("AUTO_MIGRATE"),
		LedgerMaxRetries: retries,
	}, nil
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
