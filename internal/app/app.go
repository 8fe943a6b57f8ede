// Package app собирает процессы витрины и сервиса печати из Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vladislavdragonenkov/storefront/internal/admin"
	"github.com/vladislavdragonenkov/storefront/internal/bot"
	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/printclient"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/version"
	"github.com/vladislavdragonenkov/storefront/internal/workflow"
)

const shutdownTimeout = 5 * time.Second

// Run поднимает бота, admin API, outbox worker и ждёт отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	logger.WithField("bot", api.Self.UserName).Info("authorized in telegram")

	rt, err := newRuntime(ctx, cfg, api, nil, logger)
	if err != nil {
		return err
	}
	return rt.serve(ctx)
}

// runtime — собранные компоненты витрины.
type runtime struct {
	cfg        Config
	logger     *log.Entry
	storage    *storage
	events     eventSink
	registry   *prometheus.Registry
	catalog    *catalog.Catalog
	carts      *cart.Store
	controller *workflow.Controller
	admin      *admin.Service
	worker     *outbox.Worker
	cleanup    *outbox.CleanupWorker
	bot        *bot.Bot
	handler    http.Handler
}

// newRuntime собирает зависимости; transport=nil означает http.DefaultTransport.
func newRuntime(ctx context.Context, cfg Config, api bot.API, transport http.RoundTripper, logger *log.Entry) (*runtime, error) {
	if cfg.Location == nil {
		cfg.Location = mustLocation(DefaultTimezone)
	}
	channel, err := bot.ParseChannel(cfg.Channel)
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	seed := catalog.Defaults()
	if cfg.CatalogFile != "" {
		if seed, err = catalog.LoadFile(cfg.CatalogFile); err != nil {
			_ = store.close()
			return nil, err
		}
	}
	cat := catalog.New(nil)
	if err := cat.Sync(ctx, store.products, seed); err != nil {
		_ = store.close()
		return nil, err
	}
	logger.WithField("products", len(cat.Products())).Info("catalog loaded")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	printService := printclient.New(printclient.Config{
		BaseURL: cfg.PrinterAPIURL,
		Secret:  cfg.APISecret,
		Timeout: cfg.PrintTimeout,
	}, transport, logger.WithField("component", "printclient"))

	carts := cart.NewStore(cat)
	notifier := bot.NewNotifier(api, channel, cfg.Location, logger.WithField("component", "notifier"))
	controller, err := workflow.NewController(workflow.Dependencies{
		Orders:   store.orders,
		Timeline: store.timeline,
		Outbox:   store.outbox,
		Carts:    carts,
		Catalog:  cat,
		Notifier: notifier,
		Printer:  printService,
		Staff:    cfg.Staff,
		Shop:     cfg.Shop,
		Location: cfg.Location,
		Metrics:  metrics.NewOrderMetricsWithRegisterer(registry),
		Logger:   logger.WithField("component", "workflow"),
	})
	if err != nil {
		_ = store.close()
		return nil, err
	}

	adminSvc := admin.NewService(admin.Dependencies{
		Orders:   store.orders,
		Timeline: store.timeline,
		Outbox:   store.outbox,
		Products: store.products,
		Catalog:  cat,
		Location: cfg.Location,
		Logger:   logger.WithField("component", "admin"),
	})

	outboxMetrics := metrics.NewOutboxMetrics(registry)
	events := initKafka(cfg, logger)
	router := workflow.NewRouter(controller, events.events, logger.WithField("component", "outbox-router"))
	worker := outbox.NewWorker(store.outbox, router,
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithMetrics(outboxMetrics),
		outbox.WithDLQPublisher(events.dlq),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)
	var cleanup *outbox.CleanupWorker
	if purger, ok := store.outbox.(domain.OutboxPurger); ok {
		cleanup = outbox.NewCleanupWorker(purger,
			outbox.WithCleanupLogger(logger.WithField("component", "outbox-cleanup")),
			outbox.WithCleanupMetrics(outboxMetrics),
			outbox.WithRetention(cfg.OutboxRetention),
		)
	}

	chatBot := bot.New(api, controller, carts, cat, adminSvc, bot.Config{
		Shop:    cfg.Shop,
		Channel: channel,
	}, logger.WithField("component", "bot"))

	rt := &runtime{
		cfg:        cfg,
		logger:     logger,
		storage:    store,
		events:     events,
		registry:   registry,
		catalog:    cat,
		carts:      carts,
		controller: controller,
		admin:      adminSvc,
		worker:     worker,
		cleanup:    cleanup,
		bot:        chatBot,
	}
	rt.handler = rt.routes(printService)
	return rt, nil
}

// routes собирает admin API, health и (если нет отдельного адреса) /metrics.
func (rt *runtime) routes(printService *printclient.Client) http.Handler {
	checks := health.NewHandler(version.GetVersion())
	checks.RegisterChecker("storage", health.NewSimpleChecker("storage", rt.storage.ping))
	healthTimeout := rt.cfg.PrinterHealthTimeout
	checks.RegisterChecker("print_service", health.NewOptionalChecker("print_service", func(ctx context.Context) error {
		if healthTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, healthTimeout)
			defer cancel()
		}
		return printService.Health(ctx)
	}))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/livez", health.LivenessHandler)
	r.Get("/readyz", checks.ReadinessHandler)
	r.Method(http.MethodGet, "/healthz", checks)
	if rt.cfg.MetricsAddr == "" {
		r.Method(http.MethodGet, "/metrics", rt.metricsHandler())
	}
	admin.NewHandler(rt.admin, rt.cfg.AdminAPIToken, rt.logger.WithField("component", "admin-api")).Mount(r)

	return otelhttp.NewHandler(r, "storefront-admin",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/metrics" }),
	)
}

func (rt *runtime) metricsHandler() http.Handler {
	return promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{Registry: rt.registry})
}

// serve запускает фоновые компоненты и HTTP, затем останавливает их в обратном порядке.
func (rt *runtime) serve(ctx context.Context) error {
	logger := rt.logger
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	background := []func(context.Context){rt.worker.Run, rt.bot.Run}
	if rt.cleanup != nil {
		background = append(background, rt.cleanup.Run)
	}
	for _, run := range background {
		run := run
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(runCtx)
		}()
	}

	errCh := make(chan error, 2)
	adminSrv := &http.Server{Addr: rt.cfg.AdminAddr, Handler: rt.handler, ReadHeaderTimeout: 10 * time.Second}
	startHTTP(adminSrv, "admin api", logger, errCh)

	var metricsSrv *http.Server
	if rt.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", rt.metricsHandler())
		metricsSrv = &http.Server{Addr: rt.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		startHTTP(metricsSrv, "metrics", logger, errCh)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем витрину")
		runErr = ctx.Err()
	case err := <-errCh:
		runErr = err
	}

	cancel()
	shutdownHTTP(adminSrv, logger)
	shutdownHTTP(metricsSrv, logger)
	wg.Wait()
	rt.close()
	return runErr
}

func (rt *runtime) close() {
	rt.events.close(rt.logger)
	if err := rt.storage.close(); err != nil {
		rt.logger.WithError(err).Warn("failed to close storage")
	}
}

func startHTTP(srv *http.Server, name string, logger *log.Entry, errCh chan<- error) {
	go func() {
		logger.WithField("addr", srv.Addr).Infof("%s listening", name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}()
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
