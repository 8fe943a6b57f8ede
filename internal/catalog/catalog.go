package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Catalog — потокобезопасный снимок товаров витрины.
type Catalog struct {
	mu       sync.RWMutex
	order    []string
	products map[string]domain.Product
}

// New строит каталог; порядок показа совпадает с порядком products.
func New(products []domain.Product) *Catalog {
	c := &Catalog{}
	c.replace(products)
	return c
}

func (c *Catalog) replace(products []domain.Product) {
	order := make([]string, 0, len(products))
	index := make(map[string]domain.Product, len(products))
	for _, p := range products {
		if _, dup := index[p.ID]; dup {
			continue
		}
		order = append(order, p.ID)
		index[p.ID] = p
	}

	c.mu.Lock()
	c.order = order
	c.products = index
	c.mu.Unlock()
}

// Product ищет доступный товар.
func (c *Catalog) Product(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok || !p.Available {
		return domain.Product{}, false
	}
	return p, true
}

// Products возвращает доступные товары в порядке показа.
func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]domain.Product, 0, len(c.order))
	for _, id := range c.order {
		if p := c.products[id]; p.Available {
			result = append(result, p)
		}
	}
	return result
}

// Sync заполняет пустую таблицу товаров значениями seed и перечитывает каталог из неё.
func (c *Catalog) Sync(ctx context.Context, repo domain.ProductRepository, seed []domain.Product) error {
	existing, err := repo.List(ctx, false)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	if len(existing) == 0 {
		for _, p := range seed {
			if _, err := repo.Create(ctx, p); err != nil {
				return fmt.Errorf("seed product %s: %w", p.ID, err)
			}
		}
	}
	return c.Reload(ctx, repo)
}

// Reload перечитывает каталог из репозитория.
func (c *Catalog) Reload(ctx context.Context, repo domain.ProductRepository) error {
	products, err := repo.List(ctx, false)
	if err != nil {
		return fmt.Errorf("reload catalog: %w", err)
	}
	c.replace(products)
	return nil
}

var _ domain.Catalog = (*Catalog)(nil)
