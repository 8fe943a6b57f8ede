package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Minute)
	return c.now
}

func newOrder(customerID int64) domain.NewOrder {
	items := []domain.LineItem{
		{ProductID: "item_1", Name: "Торт \"Наполеон\"", UnitPrice: 35000, Quantity: 1, Total: 35000},
		{ProductID: "item_3", Name: "Пирожное \"Картошка\"", UnitPrice: 8000, Quantity: 3, Total: 24000},
	}
	return domain.NewOrder{
		Customer: domain.Customer{ID: customerID, Name: "Анна", Username: "anna"},
		Items:    items,
		Total:    domain.SumLineItems(items),
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository()

	id, err := repo.Create(ctx, newOrder(42))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected first id 1, got %d", id)
	}

	stored, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Status != domain.OrderStatusNew {
		t.Fatalf("expected status new, got %s", stored.Status)
	}
	if stored.Total != 59000 || len(stored.Items) != 2 {
		t.Fatalf("unexpected order contents: %+v", stored)
	}
	if stored.PrintedAt != nil || stored.PrintedBy != nil {
		t.Fatal("printed fields must be empty for a new order")
	}

	if _, err := repo.Get(ctx, 99); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository()
	id, _ := repo.Create(ctx, newOrder(1))

	first, _ := repo.Get(ctx, id)
	first.Items[0].Quantity = 100

	second, _ := repo.Get(ctx, id)
	if second.Items[0].Quantity != 1 {
		t.Fatalf("stored items were mutated through a returned copy")
	}
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	repo := memory.NewOrderRepositoryWithClock(clock.Now)
	id, _ := repo.Create(ctx, newOrder(1))

	ok, err := repo.UpdateStatus(ctx, id, domain.OrderStatusConfirmed, nil)
	if err != nil || !ok {
		t.Fatalf("confirm failed: ok=%v err=%v", ok, err)
	}

	staff := int64(777)
	ok, err = repo.UpdateStatus(ctx, id, domain.OrderStatusPrinted, &staff)
	if err != nil || !ok {
		t.Fatalf("print failed: ok=%v err=%v", ok, err)
	}

	stored, _ := repo.Get(ctx, id)
	if stored.Status != domain.OrderStatusPrinted {
		t.Fatalf("expected printed, got %s", stored.Status)
	}
	if stored.PrintedBy == nil || *stored.PrintedBy != staff {
		t.Fatalf("expected printed_by %d, got %v", staff, stored.PrintedBy)
	}
	if stored.PrintedAt == nil || !stored.PrintedAt.After(stored.CreatedAt) {
		t.Fatalf("expected printed_at after created_at, got %v", stored.PrintedAt)
	}

	ok, err = repo.UpdateStatus(ctx, 404, domain.OrderStatusCancelled, nil)
	if err != nil || ok {
		t.Fatalf("expected (false, nil) for a missing order, got ok=%v err=%v", ok, err)
	}
}

func TestOrderRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	repo := memory.NewOrderRepositoryWithClock(clock.Now)

	for i := int64(1); i <= 5; i++ {
		if _, err := repo.Create(ctx, newOrder(i)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if _, err := repo.UpdateStatus(ctx, 2, domain.OrderStatusCancelled, nil); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	all, err := repo.List(ctx, domain.ListFilter{Limit: 3})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != 5 || all[2].ID != 3 {
		t.Fatalf("unexpected order of results: %+v", all)
	}

	cancelled, err := repo.List(ctx, domain.ListFilter{Status: domain.OrderStatusCancelled})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(cancelled) != 1 || cancelled[0].ID != 2 {
		t.Fatalf("expected only order 2, got %+v", cancelled)
	}
}

func TestOrderRepository_Summarize(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	repo := memory.NewOrderRepositoryWithClock(clock.Now)

	for i := int64(1); i <= 3; i++ {
		if _, err := repo.Create(ctx, newOrder(i)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if _, err := repo.UpdateStatus(ctx, 3, domain.OrderStatusConfirmed, nil); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	stats, err := repo.Summarize(ctx, time.Time{})
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if stats.Orders != 3 || stats.Revenue != 3*59000 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.ByStatus[domain.OrderStatusNew] != 2 || stats.ByStatus[domain.OrderStatusConfirmed] != 1 {
		t.Fatalf("unexpected status breakdown: %+v", stats.ByStatus)
	}

	// Заказы создавались в 9:01, 9:02, 9:03; первый не попадает в окно.
	since := time.Date(2026, 3, 1, 9, 2, 0, 0, time.UTC)
	windowed, err := repo.Summarize(ctx, since)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if windowed.Orders != 2 {
		t.Fatalf("expected 2 orders since %s, got %d", since, windowed.Orders)
	}
}

func TestProductRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProductRepository()

	created, err := repo.Create(ctx, domain.Product{ID: "item_9", Name: "Штрудель", Price: 19000, Available: true})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
	if _, err := repo.Create(ctx, created); !errors.Is(err, domain.ErrProductExists) {
		t.Fatalf("expected ErrProductExists, got %v", err)
	}

	price := domain.Money(21000)
	updated, err := repo.Update(ctx, "item_9", domain.ProductPatch{Price: &price})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Price != price || updated.Name != "Штрудель" {
		t.Fatalf("unexpected product after patch: %+v", updated)
	}

	toggled, err := repo.ToggleAvailability(ctx, "item_9")
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if toggled.Available {
		t.Fatal("expected product to become unavailable")
	}

	available, _ := repo.List(ctx, true)
	if len(available) != 0 {
		t.Fatalf("expected no available products, got %d", len(available))
	}

	if err := repo.Delete(ctx, "item_9"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, "item_9"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestTimelineRepository_Chronological(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTimelineRepository()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_ = repo.Append(ctx, domain.TimelineEvent{OrderID: 1, Type: domain.TimelinePrinted, Occurred: base.Add(2 * time.Minute)})
	_ = repo.Append(ctx, domain.TimelineEvent{OrderID: 1, Type: domain.TimelineCreated, Occurred: base})
	_ = repo.Append(ctx, domain.TimelineEvent{OrderID: 2, Type: domain.TimelineCreated, Occurred: base})

	events, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(events) != 2 || events[0].Type != domain.TimelineCreated {
		t.Fatalf("unexpected timeline: %+v", events)
	}
}
