package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderRow отдаёт значения колонок orderColumns в порядке Scan.
type orderRow struct {
	items  string
	amount int64
	status string
}

func (r orderRow) Scan(dest ...any) error {
	values := []any{
		int64(10), int64(42), "Анна", "anna", "+998901234567", "ул. Садовая, 1",
		[]byte(r.items), r.amount, r.status,
		time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC), sql.NullTime{}, sql.NullInt64{},
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = values[i].(int64)
		case *string:
			*p = values[i].(string)
		case *[]byte:
			*p = values[i].([]byte)
		case *time.Time:
			*p = values[i].(time.Time)
		case *sql.NullTime:
			*p = values[i].(sql.NullTime)
		case *sql.NullInt64:
			*p = values[i].(sql.NullInt64)
		}
	}
	return nil
}

const oneCake = `[{"product_id":"item_1","name":"Торт","price":350,"quantity":1,"total":350}]`

func TestScanOrder_Valid(t *testing.T) {
	t.Parallel()

	order, err := scanOrder(orderRow{items: oneCake, amount: 35000, status: "printed"})
	require.NoError(t, err)
	require.Equal(t, int64(10), order.ID)
	require.Len(t, order.Items, 1)
	require.Equal(t, domain.Money(35000), order.Total)
	require.Equal(t, domain.OrderStatusPrinted, order.Status)
	require.Nil(t, order.PrintedAt)
}

func TestScanOrder_RejectsMalformedRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		row  orderRow
		want error
	}{
		{"trailing data", orderRow{items: oneCake + `{"x":1}`, amount: 35000, status: "new"}, domain.ErrCorruptLineItems},
		{"null items", orderRow{items: `null`, amount: 0, status: "new"}, domain.ErrCorruptLineItems},
		{"empty items", orderRow{items: `[]`, amount: 0, status: "new"}, domain.ErrCorruptLineItems},
		{"unknown field", orderRow{items: `[{"product_id":"item_1","name":"Торт","price":350,"quantity":1,"total":350,"discount":5}]`, amount: 35000, status: "new"}, domain.ErrCorruptLineItems},
		{"line total mismatch", orderRow{items: `[{"product_id":"item_1","name":"Торт","price":350,"quantity":2,"total":350}]`, amount: 35000, status: "new"}, domain.ErrCorruptLineItems},
		{"amount mismatch", orderRow{items: oneCake, amount: 999999, status: "new"}, domain.ErrCorruptLineItems},
		{"unknown status", orderRow{items: oneCake, amount: 35000, status: "shipped"}, domain.ErrInvalidStatus},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := scanOrder(tt.row)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
