package bootstrap

import (
	"os"
	"strings"
	"time"

	"fundledger-backend/internal/config"
	"fundledger-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// App is a configured server with its open connections.
type App struct {
	Config *config.Config
	Fiber  *fiber.App
	DB     *gorm.DB
	Redis  *redis.Client
}

// New loads config, configures logging and builds the Fiber app. Shared by
// cmd/api and the serverless handler in api/.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	ConfigureLogging(cfg)
	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, Fiber: app, DB: db, Redis: rdb}, nil
}

// ConfigureLogging sets the global zerolog level and, outside production,
// a human-readable console writer.
func ConfigureLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
