package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// productRepositoryInMemory хранит редактируемый каталог в памяти.
type productRepositoryInMemory struct {
	mu    sync.RWMutex
	seq   int64
	items map[string]productRecord
}

type productRecord struct {
	product domain.Product
	seq     int64
}

// NewProductRepository создаёт in-memory реализацию ProductRepository.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{items: make(map[string]productRecord)}
}

func (r *productRepositoryInMemory) List(_ context.Context, availableOnly bool) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]productRecord, 0, len(r.items))
	for _, rec := range r.items {
		if availableOnly && !rec.product.Available {
			continue
		}
		records = append(records, rec)
	}
	// Порядок вставки повторяет ORDER BY created_at, id в PostgreSQL.
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	result := make([]domain.Product, 0, len(records))
	for _, rec := range records {
		result = append(result, rec.product)
	}
	return result, nil
}

func (r *productRepositoryInMemory) Get(_ context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return rec.product, nil
}

func (r *productRepositoryInMemory) Create(_ context.Context, product domain.Product) (domain.Product, error) {
	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; exists {
		return domain.Product{}, domain.ErrProductExists
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.seq++
	r.items[product.ID] = productRecord{product: product, seq: r.seq}
	return product, nil
}

func (r *productRepositoryInMemory) Update(_ context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	updated := rec.product
	patch.Apply(&updated)
	if err := updated.Validate(); err != nil {
		return domain.Product{}, err
	}
	updated.UpdatedAt = time.Now().UTC()
	rec.product = updated
	r.items[id] = rec
	return updated, nil
}

func (r *productRepositoryInMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *productRepositoryInMemory) ToggleAvailability(_ context.Context, id string) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	rec.product.Available = !rec.product.Available
	rec.product.UpdatedAt = time.Now().UTC()
	r.items[id] = rec
	return rec.product, nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
