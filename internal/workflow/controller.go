// Package workflow связывает корзину, заказы, канал персонала и печать чеков.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/receipt"
)

// Dependencies — зависимости контроллера. Timeline, Outbox и Metrics необязательны.
type Dependencies struct {
	Orders   domain.OrderRepository
	Timeline domain.TimelineRepository
	Outbox   domain.OutboxRepository
	Carts    CartStore
	Catalog  domain.Catalog
	Notifier Notifier
	Printer  PrintService
	Staff    StaffList
	Shop     receipt.Shop
	Location *time.Location
	Metrics  *metrics.OrderMetrics
	Logger   *log.Entry
	Now      func() time.Time
}

// Controller реализует оформление заказа и действия персонала.
type Controller struct {
	orders   domain.OrderRepository
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
	carts    CartStore
	catalog  domain.Catalog
	notifier Notifier
	printer  PrintService
	staff    StaffList
	shop     receipt.Shop
	loc      *time.Location
	metrics  *metrics.OrderMetrics
	logger   *log.Entry
	now      func() time.Time
}

// NewController проверяет обязательные зависимости и создаёт контроллер.
func NewController(deps Dependencies) (*Controller, error) {
	switch {
	case deps.Orders == nil:
		return nil, errors.New("workflow: order repository is required")
	case deps.Carts == nil:
		return nil, errors.New("workflow: cart store is required")
	case deps.Catalog == nil:
		return nil, errors.New("workflow: catalog is required")
	case deps.Notifier == nil:
		return nil, errors.New("workflow: notifier is required")
	case deps.Printer == nil:
		return nil, errors.New("workflow: print service is required")
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Logger == nil {
		deps.Logger = log.WithField("component", "workflow")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Staff.Len() == 0 {
		deps.Logger.Warn("staff list is empty: every staff action will be rejected")
	}

	return &Controller{
		orders:   deps.Orders,
		timeline: deps.Timeline,
		outbox:   deps.Outbox,
		carts:    deps.Carts,
		catalog:  deps.Catalog,
		notifier: deps.Notifier,
		printer:  deps.Printer,
		staff:    deps.Staff,
		shop:     deps.Shop,
		loc:      deps.Location,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		now:      deps.Now,
	}, nil
}

// IsStaff сообщает, входит ли пользователь в список персонала.
func (c *Controller) IsStaff(id int64) bool {
	return c.staff.Allowed(id)
}

// AddToCart проверяет товар по каталогу и кладёт одну штуку в корзину.
func (c *Controller) AddToCart(_ context.Context, customerID int64, productID string) (domain.Product, error) {
	product, ok := c.catalog.Product(productID)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrUnknownProduct, productID)
	}
	if !c.carts.Add(customerID, productID) {
		// Товар пропал из каталога между проверкой и добавлением.
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrUnknownProduct, productID)
	}
	if c.metrics != nil {
		c.metrics.RecordCartAdd()
	}
	return product, nil
}

// Checkout превращает корзину в заказ и публикует его в канал персонала.
// Неудачный анонс не отменяет заказ: он уходит в outbox на повторную публикацию.
func (c *Controller) Checkout(ctx context.Context, customer domain.Customer) (domain.Order, error) {
	contents := c.carts.Take(customer.ID)
	if len(contents) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}
	items := c.carts.Price(contents)
	if len(items) == 0 {
		c.carts.Restore(customer.ID, contents)
		return domain.Order{}, domain.ErrUnknownProduct
	}

	newOrder := domain.NewOrder{
		Customer: customer,
		Items:    items,
		Total:    domain.SumLineItems(items),
	}
	if errs := newOrder.Validate(); len(errs) > 0 {
		c.carts.Restore(customer.ID, contents)
		return domain.Order{}, errors.Join(errs...)
	}

	id, err := c.orders.Create(ctx, newOrder)
	if err != nil {
		c.carts.Restore(customer.ID, contents)
		c.logger.WithError(err).WithField("customer_id", customer.ID).Error("failed to create order")
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	order, err := c.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load created order: %w", err)
	}

	logger := c.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"total":       order.Total.String(),
	})
	logger.Info("order created")
	if c.metrics != nil {
		c.metrics.RecordOrderCreated()
	}

	c.recordTimeline(ctx, order.ID, domain.TimelineCreated, 0, "")
	c.enqueue(ctx, order, domain.EventOrderCreated, 0)

	if _, err := c.notifier.Announce(ctx, order); err != nil {
		logger.WithError(err).Warn("order announcement failed, scheduling reconciliation")
		if c.metrics != nil {
			c.metrics.RecordAnnounceFailure()
		}
		c.recordTimeline(ctx, order.ID, domain.TimelineAnnounceFailed, 0, err.Error())
		c.enqueue(ctx, order, domain.EventOrderAnnounce, 0)
	}

	return order, nil
}

// Announce повторно публикует заказ в канал персонала.
func (c *Controller) Announce(ctx context.Context, orderID int64) error {
	order, err := c.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if _, err := c.notifier.Announce(ctx, order); err != nil {
		if c.metrics != nil {
			c.metrics.RecordAnnounceFailure()
		}
		return fmt.Errorf("%w: %w", domain.ErrAnnounceFailed, err)
	}
	c.recordTimeline(ctx, order.ID, domain.TimelineAnnounced, 0, "")
	c.logger.WithField("order_id", order.ID).Info("order announced after reconciliation")
	return nil
}

// HandleAction выполняет действие персонала. Список персонала проверяется до любых
// изменений; при неудачной печати статус заказа не меняется.
func (c *Controller) HandleAction(ctx context.Context, action StaffAction) (domain.Order, error) {
	logger := c.logger.WithFields(log.Fields{
		"action":   string(action.Kind),
		"order_id": action.OrderID,
		"actor_id": action.ActorID,
	})

	order, err := c.handleAction(ctx, action, logger)
	if c.metrics != nil {
		c.metrics.RecordStaffAction(string(action.Kind), actionResult(err))
	}
	return order, err
}

func (c *Controller) handleAction(ctx context.Context, action StaffAction, logger *log.Entry) (domain.Order, error) {
	if !c.staff.Allowed(action.ActorID) {
		logger.Warn("staff action rejected: actor is not in the staff list")
		return domain.Order{}, domain.ErrUnauthorized
	}

	target := action.Kind.Target()
	if target == "" {
		return domain.Order{}, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidTransition, action.Kind)
	}

	order, err := c.orders.Get(ctx, action.OrderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !domain.CanTransition(order.Status, target) {
		logger.WithField("status", order.Status).Info("staff action rejected by transition table")
		return order, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, target)
	}

	var printedBy *int64
	if action.Kind == ActionPrint {
		if err := c.print(ctx, order); err != nil {
			logger.WithError(err).Error("receipt printing failed")
			return order, fmt.Errorf("%w: %w", domain.ErrPrintFailed, err)
		}
		actor := action.ActorID
		printedBy = &actor
	}

	updated, err := c.orders.UpdateStatus(ctx, order.ID, target, printedBy)
	if err != nil {
		logger.WithError(err).Error("failed to persist order status")
		return order, fmt.Errorf("update order status: %w", err)
	}
	if !updated {
		return order, domain.ErrOrderNotFound
	}

	if fresh, err := c.orders.Get(ctx, order.ID); err == nil {
		order = fresh
	} else {
		order.Status = target
	}

	logger.WithField("status", order.Status).Info("order status changed by staff")
	if c.metrics != nil {
		c.metrics.RecordStatusChange(string(target))
	}
	c.recordTimeline(ctx, order.ID, string(target), action.ActorID, "")
	c.enqueue(ctx, order, "order."+string(target), action.ActorID)

	if !action.Message.IsZero() {
		if err := c.notifier.MarkActioned(ctx, action.Message, order, action.Kind); err != nil {
			logger.WithError(err).Warn("failed to update staff channel message")
		}
	}

	return order, nil
}

// Receipt строит чек заказа с реквизитами магазина.
func (c *Controller) Receipt(order domain.Order) receipt.Receipt {
	return receipt.FromOrder(order, c.shop, c.loc)
}

func (c *Controller) print(ctx context.Context, order domain.Order) error {
	start := c.now()
	err := c.printer.Print(ctx, c.Receipt(order))
	if c.metrics != nil {
		c.metrics.RecordPrint(c.now().Sub(start), err)
	}
	return err
}

func (c *Controller) recordTimeline(ctx context.Context, orderID int64, eventType string, actor int64, reason string) {
	if c.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Actor:    actor,
		Reason:   reason,
		Occurred: c.now().UTC(),
	}
	if err := c.timeline.Append(ctx, event); err != nil {
		c.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"type":     eventType,
		}).Warn("failed to append timeline event")
		return
	}
	if c.metrics != nil {
		c.metrics.RecordTimelineEvent()
	}
}

// OrderEvent — полезная нагрузка событий заказа в outbox.
type OrderEvent struct {
	OrderID    int64              `json:"order_id"`
	CustomerID int64              `json:"customer_id"`
	Status     domain.OrderStatus `json:"status"`
	Total      domain.Money       `json:"total"`
	Actor      int64              `json:"actor,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

func (c *Controller) enqueue(ctx context.Context, order domain.Order, eventType string, actor int64) {
	if c.outbox == nil {
		return
	}
	payload, err := json.Marshal(OrderEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Status:     order.Status,
		Total:      order.Total,
		Actor:      actor,
		OccurredAt: c.now().UTC(),
	})
	if err != nil {
		c.logger.WithError(err).Error("failed to marshal order event")
		return
	}
	_, err = c.outbox.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     eventType,
		Payload:       payload,
	})
	if err != nil {
		c.logger.WithError(err).WithFields(log.Fields{
			"order_id":   order.ID,
			"event_type": eventType,
		}).Error("failed to enqueue outbox message")
	}
}

func actionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnauthorized):
		return "denied"
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrOrderNotFound):
		return "invalid"
	default:
		return "failed"
	}
}
