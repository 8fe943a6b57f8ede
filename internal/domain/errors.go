package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("order total must be non-negative")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order total does not match items sum")

	// ErrEmptyCart — оформление пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrUnknownProduct — товара нет в каталоге.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrInvalidStatus — значение статуса вне перечня.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrInvalidTransition — переход статуса запрещён таблицей переходов.
	ErrInvalidTransition = errors.New("status transition is not allowed")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается, если товар не найден в репозитории.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductExists — товар с таким идентификатором уже есть.
	ErrProductExists = errors.New("product already exists")
	// ErrCorruptLineItems — сохранённые позиции заказа не проходят строгий разбор.
	ErrCorruptLineItems = errors.New("stored line items are malformed")

	// ErrUnauthorized — пользователь не входит в список персонала.
	ErrUnauthorized = errors.New("actor is not allowed to manage orders")
	// ErrPrintFailed — печать чека не удалась, статус заказа не изменён.
	ErrPrintFailed = errors.New("receipt printing failed")
	// ErrAnnounceFailed — не удалось опубликовать заказ в канале персонала.
	ErrAnnounceFailed = errors.New("order announcement failed")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// StorageError сигнализирует о недоступности или сбое хранилища.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError оборачивает ошибку драйвера.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorage проверяет, является ли ошибка сбоем хранилища.
func IsStorage(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// IsValidation проверяет, что ошибка вызвана некорректным вводом и отклонена до записи.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrUnknownProduct),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrItemsRequired),
		errors.Is(err, ErrItemQtyInvalid),
		errors.Is(err, ErrItemPriceInvalid),
		errors.Is(err, ErrAmountMismatch),
		errors.Is(err, ErrAmountNegative),
		errors.Is(err, ErrCustomerRequired):
		return true
	default:
		return false
	}
}
