package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const orderColumns = `
	id, customer_id, customer_name, customer_username, customer_phone, customer_address,
	items, amount_minor, status, created_at, printed_at, printed_by`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(ctx context.Context, order domain.NewOrder) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	items, err := json.Marshal(order.Items)
	if err != nil {
		return 0, fmt.Errorf("encode line items: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO orders (
			customer_id, customer_name, customer_username, customer_phone, customer_address,
			items, amount_minor, status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,'new',NOW())
		RETURNING id
	`,
		order.Customer.ID, order.Customer.Name, order.Customer.Username,
		order.Customer.Phone, order.Customer.Address, items, int64(order.Total),
	).Scan(&id)
	if err != nil {
		if isCheckViolation(err) {
			return 0, domain.ErrAmountNegative
		}
		return 0, domain.NewStorageError("insert order", err)
	}
	return id, nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		if errors.Is(err, domain.ErrCorruptLineItems) {
			return domain.Order{}, err
		}
		return domain.Order{}, domain.NewStorageError("select order", err)
	}
	return order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, printedBy *int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var (
		res sql.Result
		err error
	)
	if status == domain.OrderStatusPrinted {
		var by sql.NullInt64
		if printedBy != nil {
			by = sql.NullInt64{Int64: *printedBy, Valid: true}
		}
		res, err = r.db.ExecContext(ctx, `
			UPDATE orders
			SET status = $2, printed_at = NOW(), printed_by = $3
			WHERE id = $1
		`, id, string(status), by)
	} else {
		res, err = r.db.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	}
	if err != nil {
		if isCheckViolation(err) {
			return false, domain.ErrInvalidStatus
		}
		return false, domain.NewStorageError("update order status", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, domain.NewStorageError("rows affected", err)
	}
	return affected > 0, nil
}

func (r *orderRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders`
	args := make([]any, 0, 2)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStorageError("list orders", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			if errors.Is(err, domain.ErrCorruptLineItems) {
				return nil, err
			}
			return nil, domain.NewStorageError("scan order row", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate order rows", err)
	}
	return orders, nil
}

func (r *orderRepository) Summarize(ctx context.Context, since time.Time) (domain.OrderStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(amount_minor), 0)
		FROM orders
		WHERE created_at >= $1
		GROUP BY status
	`, since.UTC())
	if err != nil {
		return domain.OrderStats{}, domain.NewStorageError("summarize orders", err)
	}
	defer rows.Close()

	stats := domain.OrderStats{ByStatus: make(map[domain.OrderStatus]int)}
	for rows.Next() {
		var (
			status  string
			count   int
			revenue int64
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return domain.OrderStats{}, domain.NewStorageError("scan order stats", err)
		}
		stats.Orders += count
		stats.Revenue += domain.Money(revenue)
		stats.ByStatus[domain.OrderStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return domain.OrderStats{}, domain.NewStorageError("iterate order stats", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order     domain.Order
		items     []byte
		amount    int64
		status    string
		printedAt sql.NullTime
		printedBy sql.NullInt64
	)
	if err := row.Scan(
		&order.ID, &order.CustomerID, &order.CustomerName, &order.Username,
		&order.Phone, &order.Address, &items, &amount, &status,
		&order.CreatedAt, &printedAt, &printedBy,
	); err != nil {
		return domain.Order{}, err
	}

	decoded, err := decodeLineItems(items)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %d: %w", order.ID, err)
	}
	if domain.SumLineItems(decoded) != domain.Money(amount) {
		return domain.Order{}, fmt.Errorf("order %d: %w: amount %d does not match items sum",
			order.ID, domain.ErrCorruptLineItems, amount)
	}
	parsedStatus, err := domain.ParseOrderStatus(status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %d: %w: %q", order.ID, err, status)
	}
	order.Items = decoded
	order.Total = domain.Money(amount)
	order.Status = parsedStatus
	order.CreatedAt = order.CreatedAt.UTC()
	if printedAt.Valid {
		at := printedAt.Time.UTC()
		order.PrintedAt = &at
	}
	if printedBy.Valid {
		by := printedBy.Int64
		order.PrintedBy = &by
	}
	return order, nil
}

// decodeLineItems строго разбирает JSONB с позициями: лишние поля и неверные суммы отклоняются.
func decodeLineItems(raw []byte) ([]domain.LineItem, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var items []domain.LineItem
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptLineItems, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after items", domain.ErrCorruptLineItems)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptLineItems, domain.ErrItemsRequired)
	}
	if err := domain.ValidateLineItems(items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptLineItems, err)
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

var _ domain.OrderRepository = (*orderRepository)(nil)
