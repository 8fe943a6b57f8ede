// Package admin — запросы статистики и ручное управление заказами и каталогом.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
	weekWindow       = 7 * 24 * time.Hour
)

// CatalogReloader перечитывает витрину после правок товаров.
type CatalogReloader interface {
	Reload(ctx context.Context, repo domain.ProductRepository) error
}

// Stats — сводка для панели администратора.
type Stats struct {
	Today    domain.OrderStats
	Weekly   domain.OrderStats
	Statuses map[domain.OrderStatus]int
}

// Dependencies — зависимости сервиса; Timeline, Outbox, Products и Catalog необязательны.
type Dependencies struct {
	Orders   domain.OrderRepository
	Timeline domain.TimelineRepository
	Outbox   domain.OutboxRepository
	Products domain.ProductRepository
	Catalog  CatalogReloader
	Location *time.Location
	Logger   *log.Entry
	Now      func() time.Time
}

// Service обслуживает панель администратора.
type Service struct {
	orders   domain.OrderRepository
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
	products domain.ProductRepository
	catalog  CatalogReloader
	loc      *time.Location
	logger   *log.Entry
	now      func() time.Time
}

// ErrProductsDisabled — хранилище товаров не подключено.
var ErrProductsDisabled = errors.New("product management is not configured")

// NewService создаёт сервис.
func NewService(deps Dependencies) *Service {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Logger == nil {
		deps.Logger = log.WithField("component", "admin")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		orders:   deps.Orders,
		timeline: deps.Timeline,
		outbox:   deps.Outbox,
		products: deps.Products,
		catalog:  deps.Catalog,
		loc:      deps.Location,
		logger:   deps.Logger,
		now:      deps.Now,
	}
}

// Location возвращает зону отображения времени.
func (s *Service) Location() *time.Location {
	return s.loc
}

// ListOrders возвращает заказы от новых к старым; пустой status — все заказы.
func (s *Service) ListOrders(ctx context.Context, status string, limit int) ([]domain.Order, error) {
	filter := domain.ListFilter{Limit: limit}
	if status != "" {
		parsed, err := domain.ParseOrderStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, status)
		}
		filter.Status = parsed
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	return s.orders.List(ctx, filter)
}

// Order возвращает заказ по идентификатору.
func (s *Service) Order(ctx context.Context, id int64) (domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// TodayStats считает заказы с начала текущих суток в зоне отображения.
func (s *Service) TodayStats(ctx context.Context) (domain.OrderStats, error) {
	return s.orders.Summarize(ctx, domain.StartOfDay(s.now(), s.loc))
}

// Stats собирает сводку: сегодня, последние 7 суток и статусы по всем заказам.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	now := s.now()

	today, err := s.orders.Summarize(ctx, domain.StartOfDay(now, s.loc))
	if err != nil {
		return Stats{}, fmt.Errorf("today stats: %w", err)
	}
	weekly, err := s.orders.Summarize(ctx, now.Add(-weekWindow).UTC())
	if err != nil {
		return Stats{}, fmt.Errorf("weekly stats: %w", err)
	}
	all, err := s.orders.Summarize(ctx, time.Time{})
	if err != nil {
		return Stats{}, fmt.Errorf("status stats: %w", err)
	}

	return Stats{Today: today, Weekly: weekly, Statuses: all.ByStatus}, nil
}

// UpdateStatus — ручная правка статуса: разрешён любой из четырёх статусов,
// таблица переходов не применяется. Правка попадает в журнал как status_override.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error) {
	target, err := domain.ParseOrderStatus(status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: %q", err, status)
	}

	current, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	updated, err := s.orders.UpdateStatus(ctx, id, target, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}
	if !updated {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	reason := fmt.Sprintf("%s -> %s", current.Status, target)
	s.logger.WithFields(log.Fields{
		"order_id": id,
		"from":     current.Status,
		"to":       target,
	}).Info("order status overridden from admin panel")

	if s.timeline != nil {
		if err := s.timeline.Append(ctx, domain.TimelineEvent{
			OrderID:  id,
			Type:     domain.TimelineStatusOverride,
			Reason:   reason,
			Occurred: s.now().UTC(),
		}); err != nil {
			s.logger.WithError(err).WithField("order_id", id).Warn("failed to append timeline event")
		}
	}
	s.enqueueStatusChanged(ctx, order)

	return order, nil
}

func (s *Service) enqueueStatusChanged(ctx context.Context, order domain.Order) {
	if s.outbox == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"status":      order.Status,
		"total":       order.Total,
		"source":      "admin",
		"occurred_at": s.now().UTC(),
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to marshal status change event")
		return
	}
	if _, err := s.outbox.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     domain.EventOrderStatusChanged,
		Payload:       payload,
	}); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to enqueue outbox message")
	}
}

// Timeline возвращает журнал заказа.
func (s *Service) Timeline(ctx context.Context, id int64) ([]domain.TimelineEvent, error) {
	if _, err := s.orders.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.timeline == nil {
		return nil, nil
	}
	return s.timeline.List(ctx, id)
}

// Products возвращает товары; availableOnly скрывает снятые с продажи.
func (s *Service) Products(ctx context.Context, availableOnly bool) ([]domain.Product, error) {
	if s.products == nil {
		return nil, ErrProductsDisabled
	}
	return s.products.List(ctx, availableOnly)
}

// CreateProduct добавляет товар; пустой идентификатор генерируется.
func (s *Service) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if s.products == nil {
		return domain.Product{}, ErrProductsDisabled
	}
	product.ID = strings.TrimSpace(product.ID)
	if product.ID == "" {
		product.ID = "item_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	created, err := s.products.Create(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.reloadCatalog(ctx)
	return created, nil
}

// UpdateProduct применяет частичное обновление.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	if s.products == nil {
		return domain.Product{}, ErrProductsDisabled
	}
	updated, err := s.products.Update(ctx, id, patch)
	if err != nil {
		return domain.Product{}, err
	}
	s.reloadCatalog(ctx)
	return updated, nil
}

// DeleteProduct удаляет товар. Уже оформленные заказы хранят свой снимок позиции.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if s.products == nil {
		return ErrProductsDisabled
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.reloadCatalog(ctx)
	return nil
}

// ToggleProduct переключает доступность товара.
func (s *Service) ToggleProduct(ctx context.Context, id string) (domain.Product, error) {
	if s.products == nil {
		return domain.Product{}, ErrProductsDisabled
	}
	product, err := s.products.ToggleAvailability(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	s.reloadCatalog(ctx)
	return product, nil
}

func (s *Service) reloadCatalog(ctx context.Context) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.Reload(ctx, s.products); err != nil {
		s.logger.WithError(err).Warn("failed to reload catalog after product change")
	}
}
