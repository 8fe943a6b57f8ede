package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/bot"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/receipt"
	"github.com/vladislavdragonenkov/storefront/internal/workflow"
)

// StorageDriver — тип хранилища витрины.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// DefaultTimezone — зона, в которой печатаются чеки и считается статистика.
const DefaultTimezone = "Asia/Tashkent"

// Config описывает настройки витрины и сервиса печати.
type Config struct {
	BotToken string
	// Channel — канал персонала: @username или числовой id.
	Channel string
	Staff   workflow.StaffList

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool

	PrinterAPIURL        string
	PrintTimeout         time.Duration
	PrinterHealthTimeout time.Duration
	PrinterHost          string
	PrinterPort          int
	APISecret            string

	AdminAPIToken string
	Shop          receipt.Shop
	Timezone      string
	Location      *time.Location
	CatalogFile   string

	AdminAddr       string
	MetricsAddr     string
	PrintServerAddr string

	KafkaBrokers []string
	KafkaTopic   string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	// OutboxRetention — сколько хранить уже опубликованные сообщения.
	OutboxRetention time.Duration
}

// DefaultConfig возвращает значения по умолчанию.
func DefaultConfig() Config {
	return Config{
		StorageDriver:        StorageDriverMemory,
		PostgresAutoMigrate:  true,
		PrinterAPIURL:        "http://localhost:8000",
		PrintTimeout:         10 * time.Second,
		PrinterHealthTimeout: 5 * time.Second,
		PrinterHost:          "192.168.1.100",
		PrinterPort:          9100,
		Shop: receipt.Shop{
			Name:    "Кондитерская",
			Address: "ул. Примерная, 1",
			Phone:   "+998 71 000-00-00",
		},
		Timezone:           DefaultTimezone,
		Location:           mustLocation(DefaultTimezone),
		AdminAddr:          ":8080",
		PrintServerAddr:    ":8000",
		KafkaTopic:         kafka.TopicOrderEvents,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    50,
		OutboxMaxAttempts:  5,
		OutboxRetryDelay:   200 * time.Millisecond,
		OutboxRetention:    7 * 24 * time.Hour,
	}
}

// ConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Непарсящиеся значения пропускаются с предупреждением.
func ConfigFromEnv(lookup func(string) (string, bool)) (Config, []string) {
	cfg := DefaultConfig()
	env := envReader{lookup: lookup}

	env.str("BOT_TOKEN", &cfg.BotToken)
	env.str("CHANNEL_ID", &cfg.Channel)
	if raw, ok := env.get("ADMIN_IDS"); ok {
		staff, err := workflow.ParseStaffList(raw)
		if err != nil {
			env.warn("ADMIN_IDS", raw, err)
		}
		cfg.Staff = staff
	}

	if raw, ok := env.get("STOREFRONT_STORAGE_DRIVER"); ok {
		cfg.StorageDriver = StorageDriver(strings.ToLower(raw))
	}
	env.str("STOREFRONT_POSTGRES_DSN", &cfg.PostgresDSN)
	env.boolean("STOREFRONT_POSTGRES_AUTO_MIGRATE", &cfg.PostgresAutoMigrate)

	env.str("PRINTER_API_URL", &cfg.PrinterAPIURL)
	env.seconds("PRINT_TIMEOUT", &cfg.PrintTimeout)
	env.seconds("PRINTER_HEALTH_TIMEOUT", &cfg.PrinterHealthTimeout)
	env.str("PRINTER_HOST", &cfg.PrinterHost)
	env.integer("PRINTER_PORT", &cfg.PrinterPort)
	env.str("API_SECRET_KEY", &cfg.APISecret)
	env.str("ADMIN_API_TOKEN", &cfg.AdminAPIToken)

	env.str("SHOP_NAME", &cfg.Shop.Name)
	env.str("SHOP_ADDRESS", &cfg.Shop.Address)
	env.str("SHOP_PHONE", &cfg.Shop.Phone)
	if raw, ok := env.get("SHOP_TIMEZONE"); ok {
		loc, err := time.LoadLocation(raw)
		if err != nil {
			env.warn("SHOP_TIMEZONE", raw, err)
		} else {
			cfg.Timezone = raw
			cfg.Location = loc
		}
	}
	env.str("CATALOG_FILE", &cfg.CatalogFile)

	if port, ok := env.get("PORT"); ok {
		cfg.AdminAddr = ":" + strings.TrimPrefix(port, ":")
	}
	env.str("ADMIN_ADDR", &cfg.AdminAddr)
	env.str("METRICS_ADDR", &cfg.MetricsAddr)
	env.str("PRINT_SERVER_ADDR", &cfg.PrintServerAddr)

	if raw, ok := env.get("KAFKA_BROKERS"); ok {
		cfg.KafkaBrokers = splitList(raw)
	}
	env.str("KAFKA_TOPIC", &cfg.KafkaTopic)

	env.duration("OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval)
	env.integer("OUTBOX_BATCH_SIZE", &cfg.OutboxBatchSize)
	env.integer("OUTBOX_MAX_ATTEMPTS", &cfg.OutboxMaxAttempts)
	env.duration("OUTBOX_RETRY_DELAY", &cfg.OutboxRetryDelay)
	env.duration("OUTBOX_RETENTION", &cfg.OutboxRetention)

	return cfg, env.warnings
}

// Validate проверяет настройки, без которых витрина не стартует.
func (c Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	if _, err := bot.ParseChannel(c.Channel); err != nil {
		errs = append(errs, fmt.Errorf("CHANNEL_ID: %w", err))
	}
	if c.PrinterAPIURL == "" {
		errs = append(errs, errors.New("PRINTER_API_URL is required"))
	}
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("STOREFRONT_POSTGRES_DSN is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}
	return errors.Join(errs...)
}

// mustLocation загружает зону; без базы tzdata откатывается на фиксированный UTC+5.
func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 5*60*60)
	}
	return loc
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type envReader struct {
	lookup   func(string) (string, bool)
	warnings []string
}

func (e *envReader) get(key string) (string, bool) {
	if e.lookup == nil {
		return "", false
	}
	raw, ok := e.lookup(key)
	raw = strings.TrimSpace(raw)
	return raw, ok && raw != ""
}

func (e *envReader) warn(key, raw string, err error) {
	e.warnings = append(e.warnings, fmt.Sprintf("%s=%q ignored: %v", key, raw, err))
}

func (e *envReader) str(key string, dst *string) {
	if raw, ok := e.get(key); ok {
		*dst = raw
	}
}

func (e *envReader) integer(key string, dst *int) {
	raw, ok := e.get(key)
	if !ok {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		e.warn(key, raw, errors.New("expected positive integer"))
		return
	}
	*dst = v
}

func (e *envReader) boolean(key string, dst *bool) {
	raw, ok := e.get(key)
	if !ok {
		return
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.warn(key, raw, err)
		return
	}
	*dst = v
}

// seconds принимает "10" (секунды) или "1m30s".
func (e *envReader) seconds(key string, dst *time.Duration) {
	raw, ok := e.get(key)
	if !ok {
		return
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
		*dst = time.Duration(v * float64(time.Second))
		return
	}
	e.duration(key, dst)
}

func (e *envReader) duration(key string, dst *time.Duration) {
	raw, ok := e.get(key)
	if !ok {
		return
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		e.warn(key, raw, errors.New("expected positive duration"))
		return
	}
	*dst = v
}
