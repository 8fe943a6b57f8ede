// Package receipt формирует чек заказа в байтовом потоке ESC/POS для термопринтера.
package receipt

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	// DateLayout — формат даты на чеке и в админке.
	DateLayout = "2006-01-02 15:04:05"

	// NoValue подставляется вместо отсутствующих контактов клиента.
	NoValue = "Не указан"
	// Pickup подставляется вместо пустого адреса.
	Pickup = "Самовывоз"
)

// Shop — реквизиты магазина в шапке чека.
type Shop struct {
	Name    string
	Address string
	Phone   string
}

// Item — строка товара в чеке.
type Item struct {
	Name     string       `json:"name"`
	Price    domain.Money `json:"price"`
	Quantity int          `json:"quantity"`
	Total    domain.Money `json:"total"`
}

// Receipt — данные чека; JSON-форма совпадает с телом POST /print.
type Receipt struct {
	OrderID          int64        `json:"order_id"`
	CustomerName     string       `json:"customer_name"`
	CustomerUsername string       `json:"customer_username"`
	Phone            string       `json:"phone"`
	Address          string       `json:"address"`
	Items            []Item       `json:"items"`
	TotalAmount      domain.Money `json:"total_amount"`
	Date             string       `json:"date"`
	ShopName         string       `json:"shop_name"`
	ShopAddress      string       `json:"shop_address"`
	ShopPhone        string       `json:"shop_phone"`
}

// FromOrder строит чек по сохранённому заказу; дата берётся из created_at в зоне loc.
func FromOrder(order domain.Order, shop Shop, loc *time.Location) Receipt {
	if loc == nil {
		loc = time.UTC
	}

	items := make([]Item, 0, len(order.Items))
	for _, li := range order.Items {
		items = append(items, Item{
			Name:     li.Name,
			Price:    li.UnitPrice,
			Quantity: li.Quantity,
			Total:    li.Total,
		})
	}

	username := NoValue
	if order.Username != "" {
		username = "@" + order.Username
	}

	r := Receipt{
		OrderID:          order.ID,
		CustomerName:     order.CustomerName,
		CustomerUsername: username,
		Phone:            order.Phone,
		Address:          order.Address,
		Items:            items,
		TotalAmount:      order.Total,
		ShopName:         shop.Name,
		ShopAddress:      shop.Address,
		ShopPhone:        shop.Phone,
	}
	if !order.CreatedAt.IsZero() {
		r.Date = order.CreatedAt.In(loc).Format(DateLayout)
	}
	return r
}

// WithShop дополняет пустые реквизиты магазина и дату.
func (r Receipt) WithShop(shop Shop, now time.Time) Receipt {
	if r.ShopName == "" {
		r.ShopName = shop.Name
	}
	if r.ShopAddress == "" {
		r.ShopAddress = shop.Address
	}
	if r.ShopPhone == "" {
		r.ShopPhone = shop.Phone
	}
	if r.Date == "" {
		r.Date = now.Format(DateLayout)
	}
	return r
}

// Sample — тестовый чек для POST /test-print.
func Sample(shop Shop, now time.Time) Receipt {
	return Receipt{
		OrderID:          999,
		CustomerName:     "Тестовый Клиент",
		CustomerUsername: "@testuser",
		Phone:            "+7 (999) 123-45-67",
		Address:          "Тестовый адрес",
		Items: []Item{
			{Name: "Тестовый товар 1", Price: 100000, Quantity: 2, Total: 200000},
			{Name: "Тестовый товар 2", Price: 50000, Quantity: 1, Total: 50000},
		},
		TotalAmount: 250000,
		Date:        now.Format(DateLayout),
		ShopName:    shop.Name,
		ShopAddress: shop.Address,
		ShopPhone:   shop.Phone,
	}
}
