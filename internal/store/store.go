// Package store holds the client-side order state: the cached history page,
// the selected order, tracking data, and per-operation loading and error
// slots. Actions call the service outside the lock and take the write lock
// only to commit, so concurrent actions interleave without blocking each
// other on the network.
package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JuanJosePl/new-killaVibe-sub001/internal/domain"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/repository"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/service"
	apperrors "github.com/JuanJosePl/new-killaVibe-sub001/pkg/errors"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/logger"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/pagination"
)

// Operation identifies a store action for loading and error slots.
type Operation string

// Store operations.
const (
	OpList     Operation = "list"
	OpDetail   Operation = "detail"
	OpCreate   Operation = "create"
	OpCancel   Operation = "cancel"
	OpReturn   Operation = "return"
	OpTracking Operation = "tracking"
)

// slotKey addresses one loading or error slot. List and create slots carry
// no order id; per-order operations are keyed by their target so concurrent
// actions on different orders never clobber each other's state.
type slotKey struct {
	Op Operation
	ID string
}

// Result reports the outcome of a store action. Err is set on failure;
// Order carries the affected entity when the action produced one.
type Result struct {
	Success bool
	Order   *domain.Order
	Err     error
}

// Store is the in-memory order state shared by the presentation layer. All
// exported methods are safe for concurrent use; read accessors return deep
// copies, so callers can never mutate cached state.
type Store struct {
	service *service.OrderService
	logger  *slog.Logger

	mu         sync.RWMutex
	orders     []domain.Order
	meta       pagination.Meta
	query      repository.ListQuery
	selected   *domain.Order
	tracking   *domain.TrackingInfo
	loading    map[slotKey]bool
	lastErr    map[slotKey]error
	cancelling map[string]struct{}
}

// New creates an empty store on top of the order service.
func New(svc *service.OrderService, log *slog.Logger) *Store {
	return &Store{
		service:    svc,
		logger:     log,
		loading:    make(map[slotKey]bool),
		lastErr:    make(map[slotKey]error),
		cancelling: make(map[string]struct{}),
	}
}

// LoadOrders fetches one page of the order history and replaces the cached
// page on success. The previous page stays visible while the load runs.
func (s *Store) LoadOrders(ctx context.Context, q repository.ListQuery) Result {
	ctx, log := s.begin(ctx, OpList, "")
	start := time.Now()

	orders, meta, err := s.service.GetUserOrders(ctx, q)
	if err != nil {
		s.fail(OpList, "", err)
		observe(OpList, start, err)
		log.WarnContext(ctx, "load orders failed", slog.String("error", err.Error()))
		return Result{Err: err}
	}

	s.mu.Lock()
	s.orders = orders
	s.meta = meta
	s.query = q
	count := len(s.orders)
	delete(s.loading, slotKey{Op: OpList})
	s.mu.Unlock()
	cachedOrders.Set(float64(count))

	observe(OpList, start, nil)
	log.DebugContext(ctx, "orders loaded",
		slog.Int("count", count),
		slog.Int("page", meta.Current),
	)
	return Result{Success: true}
}

// LoadOrder fetches a single order into the selected slot.
func (s *Store) LoadOrder(ctx context.Context, id string) Result {
	ctx, log := s.begin(ctx, OpDetail, id)
	start := time.Now()

	order, err := s.service.GetOrderByID(ctx, id)
	if err != nil {
		s.fail(OpDetail, id, err)
		observe(OpDetail, start, err)
		log.WarnContext(ctx, "load order failed", slog.String("error", err.Error()))
		return Result{Err: err}
	}

	s.mu.Lock()
	sel := order.Clone()
	s.selected = &sel
	delete(s.loading, slotKey{Op: OpDetail, ID: id})
	s.mu.Unlock()

	observe(OpDetail, start, nil)
	res := order.Clone()
	return Result{Success: true, Order: &res}
}

// Create places a new order. On success the order is prepended to the
// cached page and becomes the selected order.
func (s *Store) Create(ctx context.Context, req repository.CreateOrderRequest) Result {
	ctx, log := s.begin(ctx, OpCreate, "")
	start := time.Now()

	order, err := s.service.CreateOrder(ctx, req)
	if err != nil {
		s.fail(OpCreate, "", err)
		observe(OpCreate, start, err)
		log.WarnContext(ctx, "create order failed", slog.String("error", err.Error()))
		return Result{Err: err}
	}

	s.mu.Lock()
	sel := order.Clone()
	s.selected = &sel
	s.orders = append([]domain.Order{order.Clone()}, s.orders...)
	count := len(s.orders)
	delete(s.loading, slotKey{Op: OpCreate})
	s.mu.Unlock()
	cachedOrders.Set(float64(count))

	observe(OpCreate, start, nil)
	res := order.Clone()
	return Result{Success: true, Order: &res}
}

// Cancel cancels the order with the given id. The order must already be in
// the store; cancellation of an unknown id fails locally. While the call is
// in flight the id appears in the cancelling set, so the presentation layer
// can disable that one button and leave the others alive.
func (s *Store) Cancel(ctx context.Context, id string) Result {
	current := s.find(id)
	if current == nil {
		err := apperrors.OrderNotFound(id)
		s.recordErr(OpCancel, id, err)
		observe(OpCancel, time.Now(), err)
		return Result{Err: err}
	}

	ctx, log := s.begin(ctx, OpCancel, id)
	s.mu.Lock()
	s.cancelling[id] = struct{}{}
	s.mu.Unlock()
	start := time.Now()

	updated, err := s.service.CancelOrder(ctx, current)
	if err != nil {
		s.mu.Lock()
		delete(s.cancelling, id)
		s.mu.Unlock()
		s.fail(OpCancel, id, err)
		observe(OpCancel, start, err)
		log.WarnContext(ctx, "cancel order failed", slog.String("error", err.Error()))
		return Result{Err: err}
	}

	s.mu.Lock()
	s.replaceLocked(updated)
	delete(s.cancelling, id)
	delete(s.loading, slotKey{Op: OpCancel, ID: id})
	s.mu.Unlock()

	observe(OpCancel, start, nil)
	res := updated.Clone()
	return Result{Success: true, Order: &res}
}

// RequestReturn submits a return request for the order with the given id.
// The order must already be in the store.
func (s *Store) RequestReturn(ctx context.Context, id, reason string) Result {
	current := s.find(id)
	if current == nil {
		err := apperrors.OrderNotFound(id)
		s.recordErr(OpReturn, id, err)
		observe(OpReturn, time.Now(), err)
		return Result{Err: err}
	}

	ctx, log := s.begin(ctx, OpReturn, id)
	start := time.Now()

	updated, err := s.service.RequestReturn(ctx, current, reason)
	if err != nil {
		s.fail(OpReturn, id, err)
		observe(OpReturn, start, err)
		log.WarnContext(ctx, "return request failed", slog.String("error", err.Error()))
		return Result{Err: err}
	}

	s.mu.Lock()
	s.replaceLocked(updated)
	delete(s.loading, slotKey{Op: OpReturn, ID: id})
	s.mu.Unlock()

	observe(OpReturn, start, nil)
	res := updated.Clone()
	return Result{Success: true, Order: &res}
}

// LoadTracking fetches the shipment timeline for an order into the
// tracking slot.
func (s *Store) LoadTracking(ctx context.Context, id string) Result {
	ctx, log := s.begin(ctx, OpTracking, id)
	start := time.Now()

	info, err := s.service.GetOrderTracking(ctx, id)
	if err != nil {
		s.fail(OpTracking, id, err)
		observe(OpTracking, start, err)
		log.WarnContext(ctx, "load tracking failed", slog.String("error", err.Error()))
		return Result{Err: err}
	}

	s.mu.Lock()
	tr := info.Clone()
	s.tracking = &tr
	delete(s.loading, slotKey{Op: OpTracking, ID: id})
	s.mu.Unlock()

	observe(OpTracking, start, nil)
	return Result{Success: true}
}

// Orders returns a deep copy of the cached page.
func (s *Store) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, len(s.orders))
	for i := range s.orders {
		out[i] = s.orders[i].Clone()
	}
	return out
}

// Meta returns the pagination metadata of the last successful load.
func (s *Store) Meta() pagination.Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Query returns the list query behind the cached page.
func (s *Store) Query() repository.ListQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Selected returns a deep copy of the selected order, or nil when none is
// selected.
func (s *Store) Selected() *domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	o := s.selected.Clone()
	return &o
}

// Tracking returns a deep copy of the loaded tracking info, or nil.
func (s *Store) Tracking() *domain.TrackingInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tracking == nil {
		return nil
	}
	tr := s.tracking.Clone()
	return &tr
}

// IsLoading reports whether the given operation is in flight. Pass an empty
// id for list and create.
func (s *Store) IsLoading(op Operation, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[slotKey{Op: op, ID: id}]
}

// LastError returns the recorded error for an operation slot, or nil.
func (s *Store) LastError(op Operation, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr[slotKey{Op: op, ID: id}]
}

// IsCancelling reports whether a cancellation for this order is in flight.
func (s *Store) IsCancelling(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cancelling[id]
	return ok
}

// CancellingOrderIDs returns the ids with cancellations in flight, sorted.
func (s *Store) CancellingOrderIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.cancelling))
	for id := range s.cancelling {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClearErrors drops all recorded errors.
func (s *Store) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = make(map[slotKey]error)
}

// ClearSelected drops the selected order and its tracking info.
func (s *Store) ClearSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	s.tracking = nil
}

// Reset returns the store to its initial empty state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = nil
	s.meta = pagination.Meta{}
	s.query = repository.ListQuery{}
	s.selected = nil
	s.tracking = nil
	s.loading = make(map[slotKey]bool)
	s.lastErr = make(map[slotKey]error)
	s.cancelling = make(map[string]struct{})
	cachedOrders.Set(0)
}

// begin marks the operation as loading, clears its previous error, and
// attaches a fresh correlation id to the context.
func (s *Store) begin(ctx context.Context, op Operation, id string) (context.Context, *slog.Logger) {
	ctx = logger.WithCorrelationID(ctx, uuid.New().String())
	log := logger.WithContext(ctx, s.logger).With(slog.String("action", string(op)))
	if id != "" {
		log = log.With(slog.String("order_id", id))
	}

	key := slotKey{Op: op, ID: id}
	s.mu.Lock()
	s.loading[key] = true
	delete(s.lastErr, key)
	s.mu.Unlock()

	return ctx, log
}

// fail clears the loading flag and records the error for the slot.
func (s *Store) fail(op Operation, id string, err error) {
	key := slotKey{Op: op, ID: id}
	s.mu.Lock()
	delete(s.loading, key)
	s.lastErr[key] = err
	s.mu.Unlock()
}

// recordErr records an error for a slot that never started loading.
func (s *Store) recordErr(op Operation, id string, err error) {
	s.mu.Lock()
	s.lastErr[slotKey{Op: op, ID: id}] = err
	s.mu.Unlock()
}

// find returns a copy of the order with the given id from the selected slot
// or the cached page, or nil when the store does not hold it.
func (s *Store) find(id string) *domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected != nil && s.selected.ID == id {
		o := s.selected.Clone()
		return &o
	}
	for i := range s.orders {
		if s.orders[i].ID == id {
			o := s.orders[i].Clone()
			return &o
		}
	}
	return nil
}

// replaceLocked swaps the stored copies of an updated order in the cached
// page and the selected slot. The caller holds the write lock.
func (s *Store) replaceLocked(updated domain.Order) {
	for i := range s.orders {
		if s.orders[i].ID == updated.ID {
			s.orders[i] = updated.Clone()
			break
		}
	}
	if s.selected != nil && s.selected.ID == updated.ID {
		sel := updated.Clone()
		s.selected = &sel
	}
}
