package domain

import (
	"context"
	"time"
)

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ со статусом new и возвращает присвоенный идентификатор.
	Create(ctx context.Context, order NewOrder) (int64, error)
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(ctx context.Context, id int64) (Order, error)
	// UpdateStatus меняет статус без проверки переходов. Возвращает false, если заказа нет.
	// Для статуса printed также проставляет время печати и printedBy.
	UpdateStatus(ctx context.Context, id int64, status OrderStatus, printedBy *int64) (bool, error)
	// List возвращает заказы от новых к старым.
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	// Summarize агрегирует заказы, созданные не раньше since (нулевое since — все заказы).
	Summarize(ctx context.Context, since time.Time) (OrderStats, error)
}

// ProductRepository хранит редактируемый каталог.
type ProductRepository interface {
	List(ctx context.Context, availableOnly bool) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id string, patch ProductPatch) (Product, error)
	Delete(ctx context.Context, id string) error
	ToggleAvailability(ctx context.Context, id string) (Product, error)
}
