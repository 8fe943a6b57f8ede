package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/app"
)

func main() {
	envErr := godotenv.Load()
	for _, w := range app.SetupLogging(os.LookupEnv) {
		log.Warn(w)
	}
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.WithError(envErr).Warn("failed to load .env")
	}

	cfg, warnings := app.ConfigFromEnv(os.LookupEnv)
	for _, w := range warnings {
		log.Warn(w)
	}
	if cfg.APISecret == "" {
		log.Fatal("API_SECRET_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"addr":         cfg.PrintServerAddr,
		"printer_host": cfg.PrinterHost,
		"printer_port": cfg.PrinterPort,
	}).Info("запускаем сервис печати")

	if err := app.RunPrintServer(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("сервис печати завершился с ошибкой")
	}

	log.Info("сервис печати остановлен")
}
