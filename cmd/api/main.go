package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fundledger-backend/bootstrap"

	"github.com/rs/zerolog/log"
)

func main() {
	app, err := bootstrap.New()
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}

	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err != nil {
			log.Fatal().Err(err).Msg("database handle")
		}
		if err := sqlDB.Ping(); err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		log.Info().Msg("Database connected")
	}
	if app.Redis != nil {
		if err := app.Redis.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		log.Info().Msg("Redis connected")
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Info().Msg("Shutting down")
		if err := app.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	port := app.Config.Port
	log.Info().Str("port", port).Str("env", app.Config.Env).Msg("Server running")
	if err := app.Fiber.Listen(":" + port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
