package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JuanJosePl/new-killaVibe-sub001/internal/domain"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/repository"
	apperrors "github.com/JuanJosePl/new-killaVibe-sub001/pkg/errors"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/pagination"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/validator"
)

// OrderService implements the business logic for order operations. Requests
// that fail validation or an eligibility rule are rejected locally with a
// typed error; the backend is only called with requests that can succeed.
// Errors coming back from the repository are already typed and pass through
// unchanged.
type OrderService struct {
	repo   repository.OrderRepository
	logger *slog.Logger

	// now stands in for time.Now so return-window checks are testable.
	now func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// CreateOrder validates the checkout form and places the order. The order
// lines come from the customer's server-side cart, so the request carries
// only addresses, the payment method, and notes.
func (s *OrderService) CreateOrder(ctx context.Context, req repository.CreateOrderRequest) (domain.Order, error) {
	if err := validator.Validate(req); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			return domain.Order{}, apperrors.Validation("order request failed validation", toFieldErrors(verr)...)
		}
		return domain.Order{}, apperrors.Validation(err.Error())
	}

	order, err := s.repo.Create(ctx, req)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create order",
			slog.String("error", err.Error()),
		)
		return domain.Order{}, err
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.Float64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// GetUserOrders returns one page of the customer's order history. Paging
// values are clamped into range; unknown status or sort values are rejected
// before any backend call.
func (s *OrderService) GetUserOrders(ctx context.Context, q repository.ListQuery) ([]domain.Order, pagination.Meta, error) {
	q, fields := sanitizeListQuery(q)
	if len(fields) > 0 {
		return nil, pagination.Meta{}, apperrors.Validation("invalid order list query", fields...)
	}

	orders, meta, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list orders",
			slog.Int("page", q.Page),
			slog.String("error", err.Error()),
		)
		return nil, pagination.Meta{}, err
	}

	return orders, meta, nil
}

// GetOrderByID retrieves a single order.
func (s *OrderService) GetOrderByID(ctx context.Context, id string) (domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Order{}, apperrors.Validation("order id is required")
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get order",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
		return domain.Order{}, err
	}

	return order, nil
}

// GetOrderTracking retrieves the shipment timeline for an order.
func (s *OrderService) GetOrderTracking(ctx context.Context, id string) (domain.TrackingInfo, error) {
	if strings.TrimSpace(id) == "" {
		return domain.TrackingInfo{}, apperrors.Validation("order id is required")
	}

	info, err := s.repo.GetTracking(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get order tracking",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
		return domain.TrackingInfo{}, err
	}

	return info, nil
}

// CancelOrder cancels an order after checking eligibility. Ineligible orders
// are rejected locally with the rule's reason and the backend is not called.
func (s *OrderService) CancelOrder(ctx context.Context, order *domain.Order) (domain.Order, error) {
	if decision := domain.CanCancelOrder(order); !decision.Allowed {
		return domain.Order{}, apperrors.CancelNotAllowed(decision.Reason)
	}

	updated, err := s.repo.Cancel(ctx, order.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to cancel order",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		return domain.Order{}, err
	}

	s.logger.InfoContext(ctx, "order cancelled",
		slog.String("order_id", updated.ID),
		slog.String("status", string(updated.Status)),
	)

	return updated, nil
}

// RequestReturn submits a return request after checking the reason text and
// the return window. Both checks happen locally before any backend call.
func (s *OrderService) RequestReturn(ctx context.Context, order *domain.Order, reason string) (domain.Order, error) {
	if decision := domain.ValidateReturnReason(reason); !decision.Allowed {
		return domain.Order{}, apperrors.Validation(decision.Reason, apperrors.FieldError{
			Field:   "reason",
			Message: decision.Reason,
		})
	}
	if decision := domain.CanReturnOrder(order, s.now()); !decision.Allowed {
		return domain.Order{}, apperrors.ReturnNotAllowed(decision.Reason)
	}

	updated, err := s.repo.RequestReturn(ctx, order.ID, strings.TrimSpace(reason))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to request return",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		return domain.Order{}, err
	}

	s.logger.InfoContext(ctx, "return requested",
		slog.String("order_id", updated.ID),
		slog.String("status", string(updated.Status)),
	)

	return updated, nil
}

// sanitizeListQuery normalizes paging and sorting and collects field errors
// for values that cannot be normalized.
func sanitizeListQuery(q repository.ListQuery) (repository.ListQuery, []apperrors.FieldError) {
	var fields []apperrors.FieldError

	q.Page = pagination.ClampPage(q.Page)
	q.Limit = pagination.ClampLimit(q.Limit)

	q.Status = strings.TrimSpace(q.Status)
	if q.Status != "" && !domain.IsValidOrderStatus(q.Status) {
		fields = append(fields, apperrors.FieldError{
			Field:   "status",
			Message: fmt.Sprintf("status must be one of: %s", statusNames()),
		})
	}

	q.SortBy = strings.TrimSpace(q.SortBy)
	if q.SortBy == "" {
		q.SortBy = repository.SortByCreatedAt
	} else if !repository.IsAllowedSortKey(q.SortBy) {
		fields = append(fields, apperrors.FieldError{
			Field:   "sortBy",
			Message: fmt.Sprintf("sortBy must be one of: %s", strings.Join(repository.AllowedSortKeys(), ", ")),
		})
	}

	switch strings.ToLower(strings.TrimSpace(q.SortOrder)) {
	case "", repository.SortDesc:
		q.SortOrder = repository.SortDesc
	case repository.SortAsc:
		q.SortOrder = repository.SortAsc
	default:
		fields = append(fields, apperrors.FieldError{
			Field:   "sortOrder",
			Message: "sortOrder must be asc or desc",
		})
	}

	return q, fields
}

func statusNames() string {
	statuses := domain.ValidOrderStatuses()
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func toFieldErrors(verr *validator.ValidationError) []apperrors.FieldError {
	converted := verr.FieldErrors()
	fields := make([]apperrors.FieldError, len(converted))
	for i, fe := range converted {
		fields[i] = apperrors.FieldError{Field: fe.Field, Message: fe.Message}
	}
	return fields
}
