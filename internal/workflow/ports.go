package workflow

import (
	"context"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/receipt"
)

// ActionKind — действие персонала над заказом.
type ActionKind string

const (
	ActionPrint   ActionKind = "print"
	ActionConfirm ActionKind = "confirm"
	ActionCancel  ActionKind = "cancel"
)

// ParseActionKind проверяет название действия.
func ParseActionKind(raw string) (ActionKind, bool) {
	switch kind := ActionKind(raw); kind {
	case ActionPrint, ActionConfirm, ActionCancel:
		return kind, true
	default:
		return "", false
	}
}

// Target возвращает статус, в который действие переводит заказ.
func (k ActionKind) Target() domain.OrderStatus {
	switch k {
	case ActionPrint:
		return domain.OrderStatusPrinted
	case ActionConfirm:
		return domain.OrderStatusConfirmed
	case ActionCancel:
		return domain.OrderStatusCancelled
	default:
		return ""
	}
}

// MessageRef указывает на сообщение о заказе в канале персонала.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// IsZero сообщает, что ссылка не задана.
func (r MessageRef) IsZero() bool {
	return r.ChatID == 0 && r.MessageID == 0
}

// StaffAction — нажатие кнопки под сообщением о заказе.
type StaffAction struct {
	Kind    ActionKind
	OrderID int64
	ActorID int64
	Message MessageRef
}

// Notifier публикует заказы в канал персонала.
type Notifier interface {
	Announce(ctx context.Context, order domain.Order) (MessageRef, error)
	// MarkActioned заменяет строку аудита под исходным текстом сообщения.
	MarkActioned(ctx context.Context, ref MessageRef, order domain.Order, action ActionKind) error
}

// PrintService отправляет чек на печать.
type PrintService interface {
	Print(ctx context.Context, r receipt.Receipt) error
}

// CartStore — корзины покупателей.
type CartStore interface {
	Add(customerID int64, productID string) bool
	Clear(customerID int64)
	Snapshot(customerID int64) map[string]int
	LineItems(customerID int64) []domain.LineItem
	// Take забирает корзину целиком под блокировкой покупателя.
	Take(customerID int64) map[string]int
	Restore(customerID int64, items map[string]int)
	Price(contents map[string]int) []domain.LineItem
}
