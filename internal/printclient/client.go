// Package printclient — клиент витрины к сервису печати чеков.
package printclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vladislavdragonenkov/storefront/internal/receipt"
)

const (
	defaultTimeout = 10 * time.Second
	// Ответ длиннее этого лимита не читается целиком.
	maxResponseBytes = 64 << 10
)

// ErrCircuitOpen возвращается, пока сервис печати считается недоступным.
var ErrCircuitOpen = errors.New("print service circuit is open")

// Error — ответ сервиса печати с кодом, отличным от 200.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("print service responded with HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("print service responded with HTTP %d: %s", e.StatusCode, e.Message)
}

// Config — адрес сервиса печати и настройки выключателя.
type Config struct {
	BaseURL string
	Secret  string
	Timeout time.Duration
	// FailureThreshold — сколько сбоев подряд открывают выключатель.
	FailureThreshold uint32
	// OpenTimeout — сколько выключатель остаётся открытым.
	OpenTimeout time.Duration
}

// Client отправляет чеки в сервис печати. Повторов нет: одна попытка на вызов.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *log.Entry
}

// New создаёт клиента; transport=nil означает http.DefaultTransport.
func New(cfg Config, transport http.RoundTripper, logger *log.Entry) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = log.WithField("component", "printclient")
	}

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "print-service",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Отказ в запросе (400/401) не говорит о недоступности сервиса.
		IsSuccessful: func(err error) bool {
			var respErr *Error
			if errors.As(err, &respErr) {
				return respErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("print service circuit breaker changed state")
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		secret:  cfg.Secret,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		breaker: breaker,
		logger:  logger,
	}
}

// Print отправляет чек на POST /print.
func (c *Client) Print(ctx context.Context, r receipt.Receipt) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}

	_, err = c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.post(ctx, "/print", body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return err
}

// Health опрашивает GET /health сервиса печати; используется в readiness витрины.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("print service health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	return nil
}

// State возвращает текущее состояние выключателя.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) post(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build print request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("print service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return nil
}

// responseError достаёт message/error из JSON-ответа, если он есть.
func responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &payload) == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.Error != "":
			msg = payload.Error
		}
	}
	return &Error{StatusCode: resp.StatusCode, Message: msg}
}
