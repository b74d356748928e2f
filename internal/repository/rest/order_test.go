package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanJosePl/new-killaVibe-sub001/internal/domain"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/repository"
	apperrors "github.com/JuanJosePl/new-killaVibe-sub001/pkg/errors"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/httpclient"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/pagination"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestRepo spins up a fake backend and a repository pointed at it.
func newTestRepo(t *testing.T, handler http.Handler) *OrderRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := httpclient.New(httpclient.Config{
		Timeout:         5 * time.Second,
		MaxRetries:      0,
		MaxConnsPerHost: 10,
	})
	return NewOrderRepository(client, srv.URL, testLogger())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func okEnvelope(data any) map[string]any {
	return map[string]any{"success": true, "data": data}
}

func orderFixture(id, status string) domain.OrderPayload {
	return domain.OrderPayload{
		ID:          id,
		OrderNumber: "ORD-" + id,
		Status:      status,
		Items: []domain.OrderItem{
			{ProductID: "prod-1", Name: "Widget", Quantity: 2, Price: 19.99},
		},
		TotalAmount: 44.98,
	}
}

func validCreateRequest() repository.CreateOrderRequest {
	return repository.CreateOrderRequest{
		ShippingAddress: &domain.Address{
			FirstName: "Alice",
			LastName:  "Smith",
			Street:    "123 Main Street",
			City:      "Springfield",
			State:     "IL",
			ZipCode:   "62701",
			Phone:     "5551234567",
		},
		PaymentMethod: "credit_card",
	}
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/orders", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", req.Header.Get("Accept"))

		var got repository.CreateOrderRequest
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		assert.Equal(t, "credit_card", got.PaymentMethod)
		if assert.NotNil(t, got.ShippingAddress) {
			assert.Equal(t, "Springfield", got.ShippingAddress.City)
		}

		writeJSON(w, http.StatusCreated, okEnvelope(orderFixture("ord-1", "pending")))
	})
	repo := newTestRepo(t, r)

	order, err := repo.Create(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)
	assert.Equal(t, "ORD-ord-1", order.OrderNumber)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, 2, order.ItemsCount)
}

func TestCreate_BackendRejects(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/orders", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Your cart is empty",
		})
	})
	repo := newTestRepo(t, r)

	_, err := repo.Create(context.Background(), validCreateRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Your cart is empty", appErr.Message)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

// --- List ---

func TestList_Success(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "delivered", q.Get("status"))
		assert.Equal(t, "createdAt", q.Get("sortBy"))
		assert.Equal(t, "desc", q.Get("sortOrder"))

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []domain.OrderPayload{
				orderFixture("ord-1", "delivered"),
				orderFixture("ord-2", "delivered"),
			},
			"pagination": pagination.Meta{Current: 2, Pages: 5, Total: 42, Limit: 10},
		})
	})
	repo := newTestRepo(t, r)

	orders, meta, err := repo.List(context.Background(), repository.ListQuery{
		Page:      2,
		Limit:     10,
		Status:    "delivered",
		SortBy:    "createdAt",
		SortOrder: "desc",
	})

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ord-1", orders[0].ID)
	assert.Equal(t, domain.OrderStatusDelivered, orders[1].Status)
	assert.Equal(t, 2, meta.Current)
	assert.Equal(t, 42, meta.Total)
	assert.Equal(t, 5, meta.Pages)
}

func TestList_OmitsUnsetFilters(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.False(t, q.Has("status"))
		assert.False(t, q.Has("sortBy"))
		assert.False(t, q.Has("sortOrder"))

		writeJSON(w, http.StatusOK, okEnvelope([]domain.OrderPayload{}))
	})
	repo := newTestRepo(t, r)

	_, _, err := repo.List(context.Background(), repository.ListQuery{Page: 1, Limit: 10})

	require.NoError(t, err)
}

func TestList_FallbackMetaWhenBackendOmitsPagination(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, okEnvelope([]domain.OrderPayload{
			orderFixture("ord-1", "pending"),
			orderFixture("ord-2", "shipped"),
		}))
	})
	repo := newTestRepo(t, r)

	orders, meta, err := repo.List(context.Background(), repository.ListQuery{Page: 1, Limit: 10})

	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, 1, meta.Current)
	assert.Equal(t, 2, meta.Total)
	assert.Equal(t, 1, meta.Pages)
	assert.Equal(t, 10, meta.Limit)
}

func TestList_MalformedData(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, okEnvelope("not-an-array"))
	})
	repo := newTestRepo(t, r)

	_, _, err := repo.List(context.Background(), repository.ListQuery{Page: 1, Limit: 10})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBackend)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "could not decode the order list response")
}

// --- GetByID ---

func TestGetByID_Success(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders/{id}", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "ord-9", chi.URLParam(req, "id"))
		writeJSON(w, http.StatusOK, okEnvelope(orderFixture("ord-9", "shipped")))
	})
	repo := newTestRepo(t, r)

	order, err := repo.GetByID(context.Background(), "ord-9")

	require.NoError(t, err)
	assert.Equal(t, "ord-9", order.ID)
	assert.Equal(t, domain.OrderStatusShipped, order.Status)
}

func TestGetByID_EscapesID(t *testing.T) {
	var gotPath string
	h := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.EscapedPath()
		writeJSON(w, http.StatusOK, okEnvelope(orderFixture("ord 9", "pending")))
	})
	repo := newTestRepo(t, h)

	_, err := repo.GetByID(context.Background(), "ord 9")

	require.NoError(t, err)
	assert.Equal(t, "/orders/ord%209", gotPath)
}

func TestGetByID_NotFound(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": "Order not found",
		})
	})
	repo := newTestRepo(t, r)

	_, err := repo.GetByID(context.Background(), "ord-missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Order not found", appErr.Message)
}

func TestGetByID_Unauthorized(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Not authorized, token failed",
		})
	})
	repo := newTestRepo(t, r)

	_, err := repo.GetByID(context.Background(), "ord-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// --- GetTracking ---

func TestGetTracking_Success(t *testing.T) {
	shipped := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	r := chi.NewRouter()
	r.Get("/orders/{id}/tracking", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "ord-3", chi.URLParam(req, "id"))
		writeJSON(w, http.StatusOK, okEnvelope(domain.TrackingInfo{
			OrderID:        "ord-3",
			Carrier:        "UPS",
			TrackingNumber: "1Z999",
			Status:         "shipped",
			Events: []domain.TrackingEvent{
				{Status: "shipped", Location: "Chicago, IL", Timestamp: shipped},
			},
		}))
	})
	repo := newTestRepo(t, r)

	info, err := repo.GetTracking(context.Background(), "ord-3")

	require.NoError(t, err)
	assert.Equal(t, "ord-3", info.OrderID)
	assert.Equal(t, "UPS", info.Carrier)
	require.Len(t, info.Events, 1)
	assert.Equal(t, "Chicago, IL", info.Events[0].Location)
	assert.True(t, shipped.Equal(info.Events[0].Timestamp))
}

func TestGetTracking_BackfillsOrderID(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders/{id}/tracking", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, okEnvelope(map[string]any{
			"status": "processing",
			"events": []any{},
		}))
	})
	repo := newTestRepo(t, r)

	info, err := repo.GetTracking(context.Background(), "ord-7")

	require.NoError(t, err)
	assert.Equal(t, "ord-7", info.OrderID)
}

// --- Cancel ---

func TestCancel_Success(t *testing.T) {
	r := chi.NewRouter()
	r.Put("/orders/{id}/cancel", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "ord-5", chi.URLParam(req, "id"))
		writeJSON(w, http.StatusOK, okEnvelope(orderFixture("ord-5", "cancelled")))
	})
	repo := newTestRepo(t, r)

	order, err := repo.Cancel(context.Background(), "ord-5")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
}

func TestCancel_BackendRefuses(t *testing.T) {
	r := chi.NewRouter()
	r.Put("/orders/{id}/cancel", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Order cannot be cancelled at this stage",
		})
	})
	repo := newTestRepo(t, r)

	_, err := repo.Cancel(context.Background(), "ord-5")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Order cannot be cancelled at this stage", appErr.Message)
}

// --- RequestReturn ---

func TestRequestReturn_SendsReason(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/orders/{id}/return", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "ord-6", chi.URLParam(req, "id"))

		var body struct {
			Reason string `json:"reason"`
		}
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "The stitching came apart after two days.", body.Reason)

		writeJSON(w, http.StatusOK, okEnvelope(orderFixture("ord-6", "returned")))
	})
	repo := newTestRepo(t, r)

	order, err := repo.RequestReturn(context.Background(), "ord-6", "The stitching came apart after two days.")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReturned, order.Status)
}

// --- Envelope and transport failures ---

func TestDo_EnvelopeFailureOn200(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "order snapshot is stale",
		})
	})
	repo := newTestRepo(t, h)

	_, err := repo.GetByID(context.Background(), "ord-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBackend)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "order snapshot is stale", appErr.Message)
}

func TestDo_MalformedResponseBody(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>not json</html>"))
	})
	repo := newTestRepo(t, h)

	_, err := repo.GetByID(context.Background(), "ord-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBackend)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "could not decode the order response")
}

func TestDo_ServerErrorMapsToBackend(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal server error"))
	})
	repo := newTestRepo(t, h)

	_, err := repo.GetByID(context.Background(), "ord-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBackend)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	srv.Close() // Kill the server so the dial fails.

	client := httpclient.New(httpclient.Config{
		Timeout:         time.Second,
		MaxRetries:      0,
		MaxConnsPerHost: 10,
	})
	repo := NewOrderRepository(client, srv.URL, testLogger())

	_, err := repo.GetByID(context.Background(), "ord-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBackend)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "the order service is unreachable", appErr.Message)
}

// --- Ping ---

func TestPing_AnyResponseCountsAsReachable(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	repo := newTestRepo(t, h)

	assert.NoError(t, repo.Ping(context.Background()))
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	srv.Close()

	client := httpclient.New(httpclient.Config{
		Timeout:         time.Second,
		MaxRetries:      0,
		MaxConnsPerHost: 10,
	})
	repo := NewOrderRepository(client, srv.URL, testLogger())

	err := repo.Ping(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unreachable")
}

func TestNewOrderRepository_TrimsTrailingSlash(t *testing.T) {
	client := httpclient.New(httpclient.Config{Timeout: time.Second, MaxConnsPerHost: 1})
	repo := NewOrderRepository(client, "http://localhost:5000/api/", testLogger())

	assert.Equal(t, "http://localhost:5000/api", repo.baseURL)
}
