package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// storage — репозитории выбранного драйвера.
type storage struct {
	orders   domain.OrderRepository
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
	products domain.ProductRepository
	// pg заполнен только для драйвера postgres.
	pg *postgres.Store
}

func (s *storage) ping(ctx context.Context) error {
	if s.pg == nil {
		return nil
	}
	return s.pg.Ping(ctx)
}

func (s *storage) close() error {
	if s.pg == nil {
		return nil
	}
	return s.pg.Close()
}

func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storage, error) {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		logger.Info("using in-memory storage, data is lost on restart")
		return &storage{
			orders:   memory.NewOrderRepository(),
			timeline: memory.NewTimelineRepository(),
			outbox:   memory.NewOutboxRepository(),
			products: memory.NewProductRepository(),
		}, nil
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires a DSN")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			version, applied, err := store.MigrationStatus(ctx)
			if err == nil {
				logger.WithFields(log.Fields{"version": version, "applied": applied}).Info("postgres schema is up to date")
			}
		}
		return &storage{
			orders:   postgres.NewOrderRepository(store),
			timeline: postgres.NewTimelineRepository(store),
			outbox:   postgres.NewOutboxRepository(store),
			products: postgres.NewProductRepository(store),
			pg:       store,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
