package repository

import (
	"context"

	"github.com/JuanJosePl/new-killaVibe-sub001/internal/domain"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/pagination"
)

// Sort keys the backend accepts for order listings.
const (
	SortByCreatedAt   = "createdAt"
	SortByTotalAmount = "totalAmount"
	SortByStatus      = "status"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// AllowedSortKeys returns the sort keys the backend accepts.
func AllowedSortKeys() []string {
	return []string{SortByCreatedAt, SortByTotalAmount, SortByStatus}
}

// IsAllowedSortKey checks whether key is an accepted sort key.
func IsAllowedSortKey(key string) bool {
	for _, k := range AllowedSortKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// CreateOrderRequest is the payload for placing an order from the
// customer's cart. It carries no line items: the backend builds those
// from the server-side cart, so an empty cart is the backend's rejection
// to make, not ours.
type CreateOrderRequest struct {
	ShippingAddress *domain.Address `json:"shippingAddress" validate:"required"`
	BillingAddress  *domain.Address `json:"billingAddress,omitempty" validate:"omitempty"`
	ShippingMethod  string          `json:"shippingMethod,omitempty"`
	PaymentMethod   string          `json:"paymentMethod" validate:"required,oneof=credit_card debit_card paypal cash_on_delivery"`
	CustomerNotes   string          `json:"customerNotes,omitempty" validate:"max=500"`
	CouponCode      string          `json:"couponCode,omitempty"`
}

// ListQuery holds the filters for listing the customer's orders. The
// service sanitizes it before it reaches a repository: page and limit
// clamped, status and sort key checked against the known sets, sort
// order normalized.
type ListQuery struct {
	Page      int
	Limit     int
	Status    string
	SortBy    string
	SortOrder string
}

// OrderRepository is the anti-corruption boundary to the commerce
// backend: it converts raw transport payloads into domain entities and
// transport failures into domain errors. Implementations never retry; a
// failed call surfaces exactly once to the caller.
type OrderRepository interface {
	// Create places a new order built from the customer's cart.
	Create(ctx context.Context, req CreateOrderRequest) (domain.Order, error)

	// List returns one page of the customer's orders with the backend's
	// pagination metadata.
	List(ctx context.Context, q ListQuery) ([]domain.Order, pagination.Meta, error)

	// GetByID retrieves a single order.
	GetByID(ctx context.Context, id string) (domain.Order, error)

	// GetTracking retrieves the shipment timeline for an order. The
	// result is a plain DTO, never converted into an Order.
	GetTracking(ctx context.Context, id string) (domain.TrackingInfo, error)

	// Cancel requests cancellation and returns the updated order.
	Cancel(ctx context.Context, id string) (domain.Order, error)

	// RequestReturn submits a return request and returns the updated order.
	RequestReturn(ctx context.Context, id, reason string) (domain.Order, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
