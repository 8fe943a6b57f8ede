// Package cart хранит корзины покупателей в памяти процесса.
package cart

import (
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// cart — корзина одного покупателя со своей блокировкой.
// Отсоединённая корзина уже убрана из Store и изменяться не должна.
type cart struct {
	mu       sync.Mutex
	items    map[string]int
	detached bool
}

// Store — корзины по идентификатору покупателя. Изменения одной корзины
// сериализуются её мьютексом, разные покупатели друг друга не блокируют.
type Store struct {
	catalog domain.Catalog

	mu    sync.Mutex
	carts map[int64]*cart
}

// NewStore создаёт пустое хранилище корзин поверх каталога.
func NewStore(catalog domain.Catalog) *Store {
	return &Store{
		catalog: catalog,
		carts:   make(map[int64]*cart),
	}
}

func (s *Store) get(customerID int64, create bool) *cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[customerID]
	if !ok && create {
		c = &cart{items: make(map[string]int)}
		s.carts[customerID] = c
	}
	return c
}

// Add увеличивает количество товара на 1. Неизвестный товар молча игнорируется,
// проверка остаётся за вызывающим.
func (s *Store) Add(customerID int64, productID string) bool {
	if _, ok := s.catalog.Product(productID); !ok {
		return false
	}

	for {
		c := s.get(customerID, true)
		c.mu.Lock()
		if c.detached {
			// Корзину забрали на оформление, пока ждали блокировку.
			c.mu.Unlock()
			continue
		}
		c.items[productID]++
		c.mu.Unlock()
		return true
	}
}

// detach убирает корзину из Store и возвращает её содержимое.
func (s *Store) detach(customerID int64) map[string]int {
	s.mu.Lock()
	c, ok := s.carts[customerID]
	delete(s.carts, customerID)
	s.mu.Unlock()
	if !ok {
		return map[string]int{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.detached = true
	items := c.items
	c.items = nil
	return items
}

// Clear удаляет корзину покупателя.
func (s *Store) Clear(customerID int64) {
	s.detach(customerID)
}

// Take атомарно забирает корзину на оформление: после вызова покупатель
// начинает с пустой корзины, а повторный Take вернёт пустую карту.
func (s *Store) Take(customerID int64) map[string]int {
	return s.detach(customerID)
}

// Restore возвращает позиции в корзину, складывая их с добавленными за время оформления.
func (s *Store) Restore(customerID int64, items map[string]int) {
	if len(items) == 0 {
		return
	}
	for {
		c := s.get(customerID, true)
		c.mu.Lock()
		if c.detached {
			c.mu.Unlock()
			continue
		}
		for id, qty := range items {
			if qty > 0 {
				c.items[id] += qty
			}
		}
		c.mu.Unlock()
		return
	}
}

// Snapshot возвращает копию корзины; пустую карту, если корзины нет.
func (s *Store) Snapshot(customerID int64) map[string]int {
	c := s.get(customerID, false)
	if c == nil {
		return map[string]int{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	result := make(map[string]int, len(c.items))
	for id, qty := range c.items {
		result[id] = qty
	}
	return result
}

// LineItems оценивает корзину по текущему каталогу.
func (s *Store) LineItems(customerID int64) []domain.LineItem {
	return s.Price(s.Snapshot(customerID))
}

// Price оценивает содержимое корзины по текущему каталогу. Позиции, которых больше нет
// в каталоге, отбрасываются. Порядок совпадает с порядком каталога.
func (s *Store) Price(contents map[string]int) []domain.LineItem {
	if len(contents) == 0 {
		return nil
	}

	items := make([]domain.LineItem, 0, len(contents))
	for _, product := range s.catalog.Products() {
		qty, ok := contents[product.ID]
		if !ok || qty <= 0 {
			continue
		}
		items = append(items, domain.NewLineItem(product, qty))
	}
	return items
}
