package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/workflow"
)

const (
	testSecret        = "s3cret"
	testStaff   int64 = 777
	testChannel int64 = -100500
)

type fakeBotAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	edits   []tgbotapi.Chattable
	updates chan tgbotapi.Update
}

func (f *fakeBotAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent), Chat: &tgbotapi.Chat{ID: testChannel}}, nil
}

func (f *fakeBotAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBotAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeBotAPI) StopReceivingUpdates() {}

// fakePrinterPort принимает одно подключение и отдаёт прочитанные байты.
func fakePrinterPort(t *testing.T) (int, <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()
	return ln.Addr().(*net.TCPAddr).Port, received
}

func newTestRuntime(t *testing.T, printerURL string) (*runtime, *fakeBotAPI) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BotToken = "123:abc"
	cfg.Channel = strconv.FormatInt(testChannel, 10)
	cfg.Staff = workflow.NewStaffList(testStaff)
	cfg.PrinterAPIURL = printerURL
	cfg.APISecret = testSecret
	cfg.PrintTimeout = 2 * time.Second

	api := &fakeBotAPI{updates: make(chan tgbotapi.Update)}
	rt, err := newRuntime(context.Background(), cfg, api, nil, log.WithField("test", t.Name()))
	require.NoError(t, err)
	t.Cleanup(rt.close)
	return rt, api
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRuntime_CheckoutAndPrintEndToEnd(t *testing.T) {
	port, received := fakePrinterPort(t)

	cfg := DefaultConfig()
	cfg.APISecret = testSecret
	cfg.PrinterHost = "127.0.0.1"
	cfg.PrinterPort = port
	cfg.PrintTimeout = 2 * time.Second
	printSrv, _ := newPrintServer(cfg, log.WithField("test", "print-server"))
	ts := httptest.NewServer(printSrv.Routes())
	defer ts.Close()

	rt, api := newTestRuntime(t, ts.URL)
	ctx := context.Background()

	_, err := rt.controller.AddToCart(ctx, 1001, "item_1")
	require.NoError(t, err)
	_, err = rt.controller.AddToCart(ctx, 1001, "item_2")
	require.NoError(t, err)

	order, err := rt.controller.Checkout(ctx, domain.Customer{ID: 1001, Name: "Анна", Username: "anna"})
	require.NoError(t, err)
	assert.Equal(t, domain.Money(47000), order.Total)
	assert.Equal(t, domain.OrderStatusNew, order.Status)

	api.mu.Lock()
	require.Len(t, api.sent, 1)
	announcement, ok := api.sent[0].(tgbotapi.MessageConfig)
	api.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, testChannel, announcement.ChatID)
	assert.Contains(t, announcement.Text, "НОВЫЙ ЗАКАЗ #"+strconv.FormatInt(order.ID, 10))

	printed, err := rt.controller.HandleAction(ctx, workflow.StaffAction{
		Kind:    workflow.ActionPrint,
		OrderID: order.ID,
		ActorID: testStaff,
		Message: workflow.MessageRef{ChatID: testChannel, MessageID: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPrinted, printed.Status)
	require.NotNil(t, printed.PrintedBy)
	assert.Equal(t, testStaff, *printed.PrintedBy)

	select {
	case data := <-received:
		require.True(t, bytes.HasPrefix(data, []byte{0x1b, 0x40}))
		assert.True(t, bytes.HasSuffix(data, []byte{0x1d, 0x56, 0x00}))
	case <-time.After(2 * time.Second):
		t.Fatal("printer did not receive the receipt")
	}

	w := get(t, rt.handler, "/api/orders/"+strconv.FormatInt(order.ID, 10))
	require.Equal(t, http.StatusOK, w.Code)
	var view map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "printed", view["status"])
	assert.Equal(t, "Анна (@anna)", view["customer"])

	w = get(t, rt.handler, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storefront_orders_created_total 1")
	assert.Contains(t, w.Body.String(), `storefront_staff_actions_total{action="print",result="ok"} 1`)

	// События created/printed без Kafka просто помечаются отправленными.
	rt.worker.ProcessOnce(ctx)
	stats, err := rt.storage.outbox.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.PendingCount)
}

func TestRuntime_HealthEndpoints(t *testing.T) {
	rt, _ := newTestRuntime(t, "http://127.0.0.1:1")

	w := get(t, rt.handler, "/livez")
	assert.Equal(t, http.StatusOK, w.Code)

	// Сервис печати недоступен, но проверка необязательная.
	w = get(t, rt.handler, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(t, rt.handler, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"print_service"`))
}

func TestRuntime_AdminTokenRequired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channel = "@sweet_orders"
	cfg.AdminAPIToken = "admin-token"

	api := &fakeBotAPI{updates: make(chan tgbotapi.Update)}
	rt, err := newRuntime(context.Background(), cfg, api, nil, log.WithField("test", t.Name()))
	require.NoError(t, err)
	defer rt.close()

	w := get(t, rt.handler, "/api/orders")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	rt.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "item_1")
}

func TestNewRuntime_RejectsBadChannel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channel = "orders"
	_, err := newRuntime(context.Background(), cfg, &fakeBotAPI{}, nil, log.WithField("test", t.Name()))
	require.Error(t, err)
}

func TestRuntime_ServeStopsOnCancel(t *testing.T) {
	rt, _ := newTestRuntime(t, "http://127.0.0.1:1")
	rt.cfg.AdminAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not stop")
	}
}
