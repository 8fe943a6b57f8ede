package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.Order
	now    func() time.Time
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return NewOrderRepositoryWithClock(time.Now)
}

// NewOrderRepositoryWithClock позволяет подменить часы (время создания и печати).
func NewOrderRepositoryWithClock(now func() time.Time) domain.OrderRepository {
	if now == nil {
		now = time.Now
	}
	return &orderRepositoryInMemory{
		items: make(map[int64]domain.Order),
		now:   now,
	}
}

// Create сохраняет новый заказ и присваивает ему следующий идентификатор.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.NewOrder) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.items[r.nextID] = domain.Order{
		ID:           r.nextID,
		CustomerID:   order.Customer.ID,
		CustomerName: order.Customer.Name,
		Username:     order.Customer.Username,
		Phone:        order.Customer.Phone,
		Address:      order.Customer.Address,
		Items:        cloneItems(order.Items),
		Total:        order.Total,
		Status:       domain.OrderStatusNew,
		CreatedAt:    r.now().UTC(),
	}
	return r.nextID, nil
}

// Get возвращает копию заказа или ErrOrderNotFound.
func (r *orderRepositoryInMemory) Get(_ context.Context, id int64) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// UpdateStatus меняет статус; для printed проставляет время и автора печати.
func (r *orderRepositoryInMemory) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus, printedBy *int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.items[id]
	if !ok {
		return false, nil
	}
	order.Status = status
	if status == domain.OrderStatusPrinted {
		printedAt := r.now().UTC()
		order.PrintedAt = &printedAt
		order.PrintedBy = nil
		if printedBy != nil {
			by := *printedBy
			order.PrintedBy = &by
		}
	}
	r.items[id] = order
	return true, nil
}

// List возвращает заказы от новых к старым с фильтром по статусу.
func (r *orderRepositoryInMemory) List(_ context.Context, filter domain.ListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Summarize считает количество, выручку и разбивку по статусам.
func (r *orderRepositoryInMemory) Summarize(_ context.Context, since time.Time) (domain.OrderStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := domain.OrderStats{ByStatus: make(map[domain.OrderStatus]int)}
	for _, order := range r.items {
		if !since.IsZero() && order.CreatedAt.Before(since) {
			continue
		}
		stats.Orders++
		stats.Revenue += order.Total
		stats.ByStatus[order.Status]++
	}
	return stats, nil
}

func cloneItems(items []domain.LineItem) []domain.LineItem {
	if items == nil {
		return nil
	}
	result := make([]domain.LineItem, len(items))
	copy(result, items)
	return result
}

func cloneOrder(order domain.Order) domain.Order {
	order.Items = cloneItems(order.Items)
	if order.PrintedAt != nil {
		at := *order.PrintedAt
		order.PrintedAt = &at
	}
	if order.PrintedBy != nil {
		by := *order.PrintedBy
		order.PrintedBy = &by
	}
	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
