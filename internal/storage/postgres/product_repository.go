package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const productColumns = `id, name, price_minor, photo_url, category, description, available, created_at, updated_at`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) List(ctx context.Context, availableOnly bool) ([]domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products`
	if availableOnly {
		query += ` WHERE available`
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domain.NewStorageError("list products", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.NewStorageError("scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate products", err)
	}
	return products, nil
}

func (r *productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	return p, productErr("select product", err)
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// clock_timestamp() различает товары, созданные в одной транзакции сидирования.
	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		INSERT INTO products (id, name, price_minor, photo_url, category, description, available, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,clock_timestamp(),clock_timestamp())
		RETURNING `+productColumns,
		product.ID, product.Name, int64(product.Price), product.PhotoURL,
		product.Category, product.Description, product.Available,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Product{}, domain.ErrProductExists
		}
		return domain.Product{}, domain.NewStorageError("insert product", err)
	}
	return p, nil
}

func (r *productRepository) Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, domain.NewStorageError("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanProduct(tx.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.Product{}, productErr("lock product", err)
	}

	patch.Apply(&current)
	if err := current.Validate(); err != nil {
		return domain.Product{}, err
	}

	updated, err := scanProduct(tx.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, price_minor = $3, photo_url = $4, category = $5,
		    description = $6, available = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		id, current.Name, int64(current.Price), current.PhotoURL,
		current.Category, current.Description, current.Available,
	))
	if err != nil {
		return domain.Product{}, domain.NewStorageError("update product", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Product{}, domain.NewStorageError("commit product update", err)
	}
	return updated, nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return domain.NewStorageError("delete product", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.NewStorageError("rows affected", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) ToggleAvailability(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		UPDATE products
		SET available = NOT available, updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns, id))
	return p, productErr("toggle product", err)
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p     domain.Product
		price int64
	)
	if err := row.Scan(
		&p.ID, &p.Name, &price, &p.PhotoURL, &p.Category,
		&p.Description, &p.Available, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	p.Price = domain.Money(price)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func productErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrProductNotFound
	default:
		return domain.NewStorageError(op, err)
	}
}

var _ domain.ProductRepository = (*productRepository)(nil)
