package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/printer"
	"github.com/vladislavdragonenkov/storefront/internal/printserver"
)

// newPrintServer собирает HTTP-сервис печати с клиентом сетевого принтера.
func newPrintServer(cfg Config, logger *log.Entry) (*printserver.Server, *printer.Client) {
	if cfg.Location == nil {
		cfg.Location = mustLocation(DefaultTimezone)
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := printer.New(printer.Config{
		Host:         cfg.PrinterHost,
		Port:         cfg.PrinterPort,
		Timeout:      cfg.PrintTimeout,
		ProbeTimeout: cfg.PrinterHealthTimeout,
	})
	srv := printserver.New(client, printserver.Config{
		Secret:   cfg.APISecret,
		Shop:     cfg.Shop,
		Location: cfg.Location,
	}, logger.WithField("component", "printserver"),
		printserver.WithMetrics(metrics.NewPrintJobMetrics(registry), registry),
	)
	return srv, client
}

// RunPrintServer обслуживает /print, /test-print и /health до отмены ctx.
func RunPrintServer(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "print-server")
	srv, client := newPrintServer(cfg, logger)

	httpSrv := &http.Server{
		Addr:              cfg.PrintServerAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{
			"addr":    cfg.PrintServerAddr,
			"printer": client.Addr(),
		}).Info("print server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервис печати")
		shutdownHTTP(httpSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
