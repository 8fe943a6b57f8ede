// Package printserver — HTTP-сервис печати чеков: принимает заказ в JSON и отправляет его на принтер.
package printserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/receipt"
)

const maxBodyBytes = 1 << 20

// Printer — транспорт до термопринтера.
type Printer interface {
	Send(ctx context.Context, data []byte) error
	Probe(ctx context.Context) error
}

// Config — настройки сервиса печати.
type Config struct {
	// Secret — общий секрет для заголовка Authorization: Bearer.
	Secret   string
	Shop     receipt.Shop
	Location *time.Location
	Layout   receipt.Layout
}

// Server обслуживает /print, /health и /test-print.
type Server struct {
	printer  Printer
	cfg      Config
	logger   *log.Entry
	metrics  *metrics.PrintJobMetrics
	gatherer prometheus.Gatherer
	now      func() time.Time
}

// Option настраивает Server.
type Option func(*Server)

// WithMetrics задаёт метрики и реестр для /metrics.
func WithMetrics(m *metrics.PrintJobMetrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithClock подменяет часы (тесты).
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New создаёт сервис печати.
func New(printer Printer, cfg Config, logger *log.Entry, opts ...Option) *Server {
	if logger == nil {
		logger = log.WithField("component", "printserver")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Layout.Width == 0 {
		cfg.Layout = receipt.DefaultLayout()
	}
	if cfg.Secret == "" {
		logger.Warn("API secret is empty: /print and /test-print will reject every request")
	}

	s := &Server{
		printer: printer,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewPrintJobMetrics(prometheus.DefaultRegisterer)
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	return s
}

// Routes собирает роутер сервиса печати.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/livez", health.LivenessHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Post("/print", s.handlePrint)
		r.Post("/test-print", s.handleTestPrint)
	})

	return otelhttp.NewHandler(r, "printserver",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/metrics" }),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "HTTP " + r.Method + " " + r.URL.Path
		}),
	)
}

// requireBearer сверяет токен за постоянное время; пустой секрет закрывает доступ.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok || s.cfg.Secret == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Secret)) != 1 {
			s.logger.WithFields(log.Fields{
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}).Warn("unauthorized print request")
			w.Header().Set("WWW-Authenticate", `Bearer realm="Authentication Required"`)
			writeJSON(w, http.StatusUnauthorized, statusResponse{Status: "error", Message: "Unauthorized Access"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	OrderID *int64 `json:"order_id,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Printer   string `json:"printer"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
