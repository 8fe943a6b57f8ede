package admin

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/receipt"
)

type orderView struct {
	ID          int64             `json:"id"`
	CustomerID  int64             `json:"customer_id"`
	Customer    string            `json:"customer"`
	Phone       string            `json:"phone"`
	Address     string            `json:"address"`
	Items       []domain.LineItem `json:"items"`
	TotalAmount domain.Money      `json:"total_amount"`
	Status      string            `json:"status"`
	CreatedAt   string            `json:"created_at"`
	PrintedAt   *string           `json:"printed_at"`
	PrintedBy   *int64            `json:"printed_by"`
}

func newOrderView(order domain.Order, loc *time.Location) orderView {
	customer := order.CustomerName
	if order.Username != "" {
		customer += " (@" + order.Username + ")"
	}
	items := order.Items
	if items == nil {
		items = []domain.LineItem{}
	}

	view := orderView{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		Customer:    customer,
		Phone:       order.Phone,
		Address:     order.Address,
		Items:       items,
		TotalAmount: order.Total,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt.In(loc).Format(receipt.DateLayout),
		PrintedBy:   order.PrintedBy,
	}
	if order.PrintedAt != nil {
		printed := order.PrintedAt.In(loc).Format(receipt.DateLayout)
		view.PrintedAt = &printed
	}
	return view
}

type statsBlock struct {
	Orders   int            `json:"orders"`
	Revenue  domain.Money   `json:"revenue"`
	ByStatus map[string]int `json:"by_status,omitempty"`
}

type statsView struct {
	Today    statsBlock     `json:"today"`
	Weekly   statsBlock     `json:"weekly"`
	Statuses map[string]int `json:"statuses"`
}

func statusCounts(in map[domain.OrderStatus]int) map[string]int {
	out := make(map[string]int, len(in))
	for status, n := range in {
		out[string(status)] = n
	}
	return out
}

func newStatsView(stats Stats) statsView {
	today := statsBlock{
		Orders:   stats.Today.Orders,
		Revenue:  stats.Today.Revenue,
		ByStatus: statusCounts(stats.Today.ByStatus),
	}
	return statsView{
		Today:    today,
		Weekly:   statsBlock{Orders: stats.Weekly.Orders, Revenue: stats.Weekly.Revenue},
		Statuses: statusCounts(stats.Statuses),
	}
}

type timelineView struct {
	Type     string `json:"type"`
	Actor    int64  `json:"actor"`
	Reason   string `json:"reason,omitempty"`
	Occurred string `json:"occurred"`
}

func newTimelineViews(events []domain.TimelineEvent, loc *time.Location) []timelineView {
	out := make([]timelineView, 0, len(events))
	for _, e := range events {
		out = append(out, timelineView{
			Type:     e.Type,
			Actor:    e.Actor,
			Reason:   e.Reason,
			Occurred: e.Occurred.In(loc).Format(receipt.DateLayout),
		})
	}
	return out
}

type productView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Price       domain.Money `json:"price"`
	PhotoURL    string       `json:"photo_url,omitempty"`
	Category    string       `json:"category,omitempty"`
	Description string       `json:"description,omitempty"`
	Available   bool         `json:"available"`
	CreatedAt   string       `json:"created_at,omitempty"`
	UpdatedAt   string       `json:"updated_at,omitempty"`
}

func newProductView(p domain.Product, loc *time.Location) productView {
	view := productView{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		PhotoURL:    p.PhotoURL,
		Category:    p.Category,
		Description: p.Description,
		Available:   p.Available,
	}
	if !p.CreatedAt.IsZero() {
		view.CreatedAt = p.CreatedAt.In(loc).Format(receipt.DateLayout)
	}
	if !p.UpdatedAt.IsZero() {
		view.UpdatedAt = p.UpdatedAt.In(loc).Format(receipt.DateLayout)
	}
	return view
}

// productRequest — тело POST/PUT /api/products; отсутствующие поля не меняются.
type productRequest struct {
	ID          string        `json:"id"`
	Name        *string       `json:"name"`
	Price       *domain.Money `json:"price"`
	PhotoURL    *string       `json:"photo_url"`
	Category    *string       `json:"category"`
	Description *string       `json:"description"`
	Available   *bool         `json:"available"`
}

func (r productRequest) patch() domain.ProductPatch {
	return domain.ProductPatch{
		Name:        r.Name,
		Price:       r.Price,
		PhotoURL:    r.PhotoURL,
		Category:    r.Category,
		Description: r.Description,
		Available:   r.Available,
	}
}

func (r productRequest) product() domain.Product {
	product := domain.Product{ID: r.ID, Available: true}
	r.patch().Apply(&product)
	return product
}
