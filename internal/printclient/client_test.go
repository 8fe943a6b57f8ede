package printclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/printclient"
	"github.com/vladislavdragonenkov/storefront/internal/receipt"
)

func quietLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}

func sample() receipt.Receipt {
	return receipt.Receipt{
		OrderID:      42,
		CustomerName: "Анна",
		Items:        []receipt.Item{{Name: "Эклер", Price: 12000, Quantity: 1, Total: 12000}},
		TotalAmount:  12000,
	}
}

func TestClient_PrintSendsBearerAndContract(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/print", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","message":"ok","order_id":42}`))
	}))
	defer srv.Close()

	client := printclient.New(printclient.Config{BaseURL: srv.URL + "/", Secret: "secret"}, nil, quietLogger())
	require.NoError(t, client.Print(context.Background(), sample()))

	require.Equal(t, 42.0, got["order_id"])
	require.Equal(t, 120.0, got["total_amount"])
	items := got["items"].([]any)
	require.Len(t, items, 1)
	require.Equal(t, 120.0, items[0].(map[string]any)["price"])
}

func TestClient_PrintNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"Ошибка печати"}`))
	}))
	defer srv.Close()

	client := printclient.New(printclient.Config{BaseURL: srv.URL, Secret: "s"}, nil, quietLogger())
	err := client.Print(context.Background(), sample())

	var respErr *printclient.Error
	require.True(t, errors.As(err, &respErr))
	require.Equal(t, http.StatusInternalServerError, respErr.StatusCode)
	require.Equal(t, "Ошибка печати", respErr.Message)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := printclient.New(printclient.Config{
		BaseURL:          srv.URL,
		Secret:           "s",
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}, nil, quietLogger())

	for i := 0; i < 2; i++ {
		require.Error(t, client.Print(context.Background(), sample()))
	}
	require.Equal(t, gobreaker.StateOpen, client.State())

	err := client.Print(context.Background(), sample())
	require.ErrorIs(t, err, printclient.ErrCircuitOpen)
	require.Equal(t, int32(2), calls.Load(), "open breaker must not reach the service")
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := printclient.New(printclient.Config{BaseURL: srv.URL, FailureThreshold: 1}, nil, quietLogger())
	for i := 0; i < 3; i++ {
		require.Error(t, client.Print(context.Background(), sample()))
	}
	require.Equal(t, gobreaker.StateClosed, client.State())
}

func TestClient_Health(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"error","printer":"disconnected","error":"dial tcp: refused"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","printer":"connected"}`))
	}))
	defer srv.Close()

	client := printclient.New(printclient.Config{BaseURL: srv.URL}, nil, quietLogger())
	require.NoError(t, client.Health(context.Background()))

	healthy.Store(false)
	err := client.Health(context.Background())
	var respErr *printclient.Error
	require.True(t, errors.As(err, &respErr))
	require.Equal(t, "dial tcp: refused", respErr.Message)
}
