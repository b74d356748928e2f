package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/JuanJosePl/new-killaVibe-sub001/internal/domain"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/repository"
	apperrors "github.com/JuanJosePl/new-killaVibe-sub001/pkg/errors"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/httpclient"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/pagination"
)

const tracerName = "github.com/JuanJosePl/new-killaVibe-sub001/internal/repository/rest"

// Doer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy this.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// envelope is the backend's standard response wrapper:
// {success, data, pagination?} with a message on failures.
type envelope struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	Data       json.RawMessage  `json:"data"`
	Pagination *pagination.Meta `json:"pagination"`
}

// OrderRepository calls the commerce backend's order endpoints. It is the
// sole caller of the transport client: every successful response is
// converted into a domain entity here, and every failure is funnelled
// through the domain error mapper before it reaches a caller.
type OrderRepository struct {
	client  Doer
	baseURL string
	logger  *slog.Logger
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository creates a repository talking to the backend at baseURL.
func NewOrderRepository(client Doer, baseURL string, logger *slog.Logger) *OrderRepository {
	return &OrderRepository{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Create places a new order built from the customer's cart.
func (r *OrderRepository) Create(ctx context.Context, req repository.CreateOrderRequest) (domain.Order, error) {
	ctx, end := traceCall(ctx, "create", http.MethodPost, "/orders")
	var err error
	defer func() { end(err) }()

	env, err := r.do(ctx, http.MethodPost, "/orders", req)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := decodeOrder(env.Data)
	if err != nil {
		return domain.Order{}, err
	}

	r.logger.DebugContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
	)

	return order, nil
}

// List returns one page of the customer's orders plus the backend's
// pagination metadata.
func (r *OrderRepository) List(ctx context.Context, q repository.ListQuery) ([]domain.Order, pagination.Meta, error) {
	ctx, end := traceCall(ctx, "list", http.MethodGet, "/orders")
	var err error
	defer func() { end(err) }()

	env, err := r.do(ctx, http.MethodGet, "/orders?"+listValues(q).Encode(), nil)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	var payloads []domain.OrderPayload
	if uerr := json.Unmarshal(env.Data, &payloads); uerr != nil {
		err = apperrors.Backend("could not decode the order list response", uerr)
		return nil, pagination.Meta{}, err
	}

	orders := make([]domain.Order, len(payloads))
	for i, p := range payloads {
		orders[i] = domain.NewOrder(p)
	}

	meta := pagination.New(len(orders), q.Page, q.Limit)
	if env.Pagination != nil {
		meta = *env.Pagination
	}

	r.logger.DebugContext(ctx, "orders listed",
		slog.Int("count", len(orders)),
		slog.Int("page", meta.Current),
		slog.Int("total", meta.Total),
	)

	return orders, meta, nil
}

// GetByID retrieves a single order.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (domain.Order, error) {
	ctx, end := traceCall(ctx, "get", http.MethodGet, "/orders/{id}")
	var err error
	defer func() { end(err) }()

	env, err := r.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := decodeOrder(env.Data)
	if err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

// GetTracking retrieves the shipment timeline. The result stays a plain
// DTO and is never converted into an Order.
func (r *OrderRepository) GetTracking(ctx context.Context, id string) (domain.TrackingInfo, error) {
	ctx, end := traceCall(ctx, "tracking", http.MethodGet, "/orders/{id}/tracking")
	var err error
	defer func() { end(err) }()

	env, err := r.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id)+"/tracking", nil)
	if err != nil {
		return domain.TrackingInfo{}, err
	}

	var info domain.TrackingInfo
	if uerr := json.Unmarshal(env.Data, &info); uerr != nil {
		err = apperrors.Backend("could not decode the tracking response", uerr)
		return domain.TrackingInfo{}, err
	}
	if info.OrderID == "" {
		info.OrderID = id
	}

	return info, nil
}

// Cancel requests cancellation of an order and returns the updated entity.
func (r *OrderRepository) Cancel(ctx context.Context, id string) (domain.Order, error) {
	ctx, end := traceCall(ctx, "cancel", http.MethodPut, "/orders/{id}/cancel")
	var err error
	defer func() { end(err) }()

	env, err := r.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/cancel", nil)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := decodeOrder(env.Data)
	if err != nil {
		return domain.Order{}, err
	}

	r.logger.DebugContext(ctx, "order cancelled",
		slog.String("order_id", order.ID),
		slog.String("status", string(order.Status)),
	)

	return order, nil
}

// RequestReturn submits a return request and returns the updated entity.
func (r *OrderRepository) RequestReturn(ctx context.Context, id, reason string) (domain.Order, error) {
	ctx, end := traceCall(ctx, "return", http.MethodPost, "/orders/{id}/return")
	var err error
	defer func() { end(err) }()

	body := struct {
		Reason string `json:"reason"`
	}{Reason: reason}

	env, err := r.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(id)+"/return", body)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := decodeOrder(env.Data)
	if err != nil {
		return domain.Order{}, err
	}

	r.logger.DebugContext(ctx, "return requested",
		slog.String("order_id", order.ID),
		slog.String("status", string(order.Status)),
	)

	return order, nil
}

// Ping reports whether the backend answers HTTP at all. Any response,
// including an error status, counts as reachable; only transport failures
// do not.
func (r *OrderRepository) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
	_ = resp.Body.Close()

	return nil
}

// do executes one backend call and decodes the response envelope. Every
// failure comes back as a domain error; callers never see raw transport
// errors or status codes.
func (r *OrderRepository) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var req *http.Request
	var err error

	if body != nil {
		payload, merr := json.Marshal(body)
		if merr != nil {
			return nil, apperrors.Backend("could not encode the order request", merr)
		}
		req, err = http.NewRequestWithContext(ctx, method, r.baseURL+path, bytes.NewReader(payload))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, r.baseURL+path, nil)
	}
	if err != nil {
		return nil, apperrors.Backend("could not build the order request", err)
	}
	req.Header.Set("Accept", "application/json")

	// Propagate W3C trace context to the backend.
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Backend("the order service is unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, httpclient.ParseResponseError(resp)
	}

	var env envelope
	if derr := json.NewDecoder(resp.Body).Decode(&env); derr != nil {
		return nil, apperrors.Backend("could not decode the order response", derr)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "the order request was not successful"
		}
		return nil, apperrors.Backend(msg, nil)
	}

	return &env, nil
}

// decodeOrder converts a raw data block into a domain entity.
func decodeOrder(data json.RawMessage) (domain.Order, error) {
	var payload domain.OrderPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.Order{}, apperrors.Backend("could not decode the order response", err)
	}
	return domain.NewOrder(payload), nil
}

// listValues builds the query string for a sanitized list query.
func listValues(q repository.ListQuery) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	return v
}

// traceCall starts a client span for a backend call. The returned end
// function records the terminal error, if any, and closes the span.
func traceCall(ctx context.Context, operation, method, route string) (context.Context, func(error)) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "orders."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
