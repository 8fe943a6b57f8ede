package domain

import "time"

// Product — позиция каталога.
type Product struct {
	ID          string
	Name        string
	Price       Money
	PhotoURL    string
	Category    string
	Description string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate проверяет обязательные поля товара.
func (p Product) Validate() error {
	if p.ID == "" || p.Name == "" {
		return ErrUnknownProduct
	}
	if p.Price < 0 {
		return ErrItemPriceInvalid
	}
	return nil
}

// ProductPatch — частичное обновление товара из админки.
type ProductPatch struct {
	Name        *string
	Price       *Money
	PhotoURL    *string
	Category    *string
	Description *string
	Available   *bool
}

// Apply применяет непустые поля патча.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.PhotoURL != nil {
		product.PhotoURL = *p.PhotoURL
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Available != nil {
		product.Available = *p.Available
	}
}

// Catalog отдаёт актуальные товары витрины.
type Catalog interface {
	// Product ищет доступный товар по идентификатору.
	Product(id string) (Product, bool)
	// Products возвращает доступные товары в порядке показа.
	Products() []Product
}
