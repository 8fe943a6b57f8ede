package domain

import (
	"time"
)

// OrderStatus описывает жизненный цикл заказа витрины.
type OrderStatus string

const (
	// OrderStatusNew — заказ оформлен клиентом и ждёт реакции персонала.
	OrderStatusNew OrderStatus = "new"
	// OrderStatusConfirmed — персонал подтвердил заказ.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusPrinted — чек по заказу напечатан.
	OrderStatusPrinted OrderStatus = "printed"
	// OrderStatusCancelled — заказ отменён, дальнейших переходов нет.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses перечисляет допустимые статусы в порядке жизненного цикла.
var OrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusConfirmed,
	OrderStatusPrinted,
	OrderStatusCancelled,
}

// ParseOrderStatus проверяет строковое значение статуса.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	for _, status := range OrderStatuses {
		if string(status) == raw {
			return status, nil
		}
	}
	return "", ErrInvalidStatus
}

// Terminal сообщает, что из статуса нет переходов.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled
}

// transitions — таблица переходов для действий персонала.
// Статус "new" достижим только ручной правкой через админку.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:       {OrderStatusConfirmed, OrderStatusPrinted, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusConfirmed, OrderStatusPrinted, OrderStatusCancelled},
	OrderStatusPrinted:   {OrderStatusConfirmed, OrderStatusPrinted, OrderStatusCancelled},
	OrderStatusCancelled: nil,
}

// CanTransition проверяет, разрешён ли переход from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LineItem — снимок позиции каталога на момент оформления заказа.
type LineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"price"`
	Quantity  int    `json:"quantity"`
	Total     Money  `json:"total"`
}

// NewLineItem строит позицию и считает её сумму.
func NewLineItem(product Product, qty int) LineItem {
	return LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  qty,
		Total:     product.Price.Mul(qty),
	}
}

// SumLineItems возвращает итог по позициям.
func SumLineItems(items []LineItem) Money {
	var total Money
	for _, item := range items {
		total += item.Total
	}
	return total
}

// Customer — данные клиента из чата.
type Customer struct {
	ID       int64
	Name     string
	Username string
	Phone    string
	Address  string
}

// NewOrder — входные данные для создания заказа в репозитории.
type NewOrder struct {
	Customer Customer
	Items    []LineItem
	Total    Money
}

// Order агрегирует сохранённый заказ.
type Order struct {
	ID           int64
	CustomerID   int64
	CustomerName string
	Username     string
	Phone        string
	Address      string
	Items        []LineItem
	Total        Money
	Status       OrderStatus
	CreatedAt    time.Time
	PrintedAt    *time.Time
	PrintedBy    *int64
}

// Customer возвращает данные клиента заказа.
func (o Order) Customer() Customer {
	return Customer{
		ID:       o.CustomerID,
		Name:     o.CustomerName,
		Username: o.Username,
		Phone:    o.Phone,
		Address:  o.Address,
	}
}

// Validate проверяет инварианты нового заказа и возвращает список замечаний.
func (n NewOrder) Validate() []error {
	var errs []error

	if n.Customer.ID == 0 {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(n.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if n.Total < 0 {
		errs = append(errs, ErrAmountNegative)
	}
	if err := ValidateLineItems(n.Items); err != nil {
		errs = append(errs, err)
	}
	if SumLineItems(n.Items) != n.Total {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}

// ValidateLineItems сверяет количество, цены и суммы позиций.
func ValidateLineItems(items []LineItem) error {
	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrItemQtyInvalid
		}
		if item.UnitPrice < 0 {
			return ErrItemPriceInvalid
		}
		if item.UnitPrice.Mul(item.Quantity) != item.Total {
			return ErrAmountMismatch
		}
	}
	return nil
}

// StartOfDay возвращает начало календарных суток now в зоне loc, приведённое к UTC.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return midnight.UTC()
}

// OrderStats — агрегат по заказам за период.
type OrderStats struct {
	Orders   int
	Revenue  Money
	ByStatus map[OrderStatus]int
}

// ListFilter ограничивает выборку заказов.
type ListFilter struct {
	Status OrderStatus
	Limit  int
}
