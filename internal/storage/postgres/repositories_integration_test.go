package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestOrderRepository_PostgresLifecycle(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()

	first, err := repo.Create(ctx, sampleNewOrder(100))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := repo.Create(ctx, sampleNewOrder(200))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second <= first {
		t.Fatalf("expected increasing ids, got %d then %d", first, second)
	}

	got, err := repo.Get(ctx, first)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.OrderStatusNew || got.Total != 52000 || len(got.Items) != 2 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got.Phone != "+79990000000" || got.Username != "ivan" {
		t.Fatalf("customer fields were not stored: %+v", got.Customer())
	}

	staff := int64(555)
	ok, err := repo.UpdateStatus(ctx, first, domain.OrderStatusPrinted, &staff)
	if err != nil || !ok {
		t.Fatalf("update status: ok=%v err=%v", ok, err)
	}
	got, _ = repo.Get(ctx, first)
	if got.PrintedAt == nil || got.PrintedBy == nil || *got.PrintedBy != staff {
		t.Fatalf("printed fields not set: %+v", got)
	}

	ok, err = repo.UpdateStatus(ctx, 987654, domain.OrderStatusCancelled, nil)
	if err != nil || ok {
		t.Fatalf("expected (false, nil) for a missing order, got ok=%v err=%v", ok, err)
	}

	if _, err := repo.Get(ctx, 987654); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	listed, err := repo.List(ctx, domain.ListFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != second {
		t.Fatalf("expected newest order first, got %+v", listed)
	}

	printed, err := repo.List(ctx, domain.ListFilter{Status: domain.OrderStatusPrinted})
	if err != nil {
		t.Fatalf("list printed: %v", err)
	}
	if len(printed) != 1 || printed[0].ID != first {
		t.Fatalf("unexpected printed list: %+v", printed)
	}

	stats, err := repo.Summarize(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if stats.Orders != 2 || stats.Revenue != 104000 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.ByStatus[domain.OrderStatusPrinted] != 1 || stats.ByStatus[domain.OrderStatusNew] != 1 {
		t.Fatalf("unexpected breakdown: %+v", stats.ByStatus)
	}

	future, err := repo.Summarize(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("summarize future: %v", err)
	}
	if future.Orders != 0 || future.Revenue != 0 {
		t.Fatalf("expected empty stats, got %+v", future)
	}
}

func TestOrderRepository_PostgresRejectsCorruptItems(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()

	var id int64
	if err := store.DB().QueryRowContext(ctx, `
		INSERT INTO orders (customer_id, items, amount_minor)
		VALUES (1, '[{"product_id":"x","name":"x","price":1,"quantity":1,"total":1,"extra":true}]', 100)
		RETURNING id
	`).Scan(&id); err != nil {
		t.Fatalf("insert raw order: %v", err)
	}

	if _, err := repo.Get(ctx, id); !errors.Is(err, domain.ErrCorruptLineItems) {
		t.Fatalf("expected ErrCorruptLineItems, got %v", err)
	}
}

func TestProductRepository_PostgresCRUD(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewProductRepository(store)
	ctx := context.Background()

	for _, p := range []domain.Product{
		{ID: "item_1", Name: "Торт", Price: 35000, Available: true},
		{ID: "item_2", Name: "Эклер", Price: 12000, Available: true},
	} {
		if _, err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create %s: %v", p.ID, err)
		}
	}
	if _, err := repo.Create(ctx, domain.Product{ID: "item_1", Name: "dup", Price: 1}); !errors.Is(err, domain.ErrProductExists) {
		t.Fatalf("expected ErrProductExists, got %v", err)
	}

	all, err := repo.List(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "item_1" {
		t.Fatalf("unexpected products: %+v", all)
	}

	name := "Эклер ванильный"
	updated, err := repo.Update(ctx, "item_2", domain.ProductPatch{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name || updated.Price != 12000 {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	toggled, err := repo.ToggleAvailability(ctx, "item_1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.Available {
		t.Fatal("expected product to become unavailable")
	}
	available, err := repo.List(ctx, true)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(available) != 1 || available[0].ID != "item_2" {
		t.Fatalf("unexpected available products: %+v", available)
	}

	if err := repo.Delete(ctx, "item_2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "item_2"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := repo.ToggleAvailability(ctx, "missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestTimelineRepository_PostgresAppendAndList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	orders := NewOrderRepository(store)
	timeline := NewTimelineRepository(store)
	ctx := context.Background()

	id, err := orders.Create(ctx, sampleNewOrder(1))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	occurred := time.Now().UTC().Add(-time.Minute).Round(time.Microsecond)
	if err := timeline.Append(ctx, domain.TimelineEvent{OrderID: id, Type: domain.TimelineCreated, Occurred: occurred}); err != nil {
		t.Fatalf("append created: %v", err)
	}
	if err := timeline.Append(ctx, domain.TimelineEvent{OrderID: id, Type: domain.TimelinePrinted, Actor: 42}); err != nil {
		t.Fatalf("append printed: %v", err)
	}

	events, err := timeline.List(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != domain.TimelineCreated || !events[0].Occurred.Equal(occurred) {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Actor != 42 || events[1].Occurred.IsZero() {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestOutboxRepository_PostgresFlow(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)
	ctx := context.Background()

	first, err := repo.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   "1",
		EventType:     domain.EventOrderCreated,
		Payload:       []byte(`{"order_id":1}`),
	})
	if err != nil {
		t.Fatalf("enqueue first: %v", err)
	}
	second, err := repo.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   "2",
		EventType:     domain.EventOrderAnnounce,
	})
	if err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	pending, err := repo.PullPending(ctx, 0)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID {
		t.Fatalf("unexpected pending: %+v", pending)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 2 || stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := repo.MarkSent(ctx, first.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if err := repo.MarkFailed(ctx, second.ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	after, err := repo.PullPending(ctx, 10)
	if err != nil {
		t.Fatalf("pull after marks: %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("expected no pending messages, got %d", len(after))
	}

	if err := repo.MarkSent(ctx, "missing"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
}
