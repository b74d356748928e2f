package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Return reason length bounds, mirroring the backend schema.
const (
	ReturnReasonMinLength = 10
	ReturnReasonMaxLength = 500
)

// Decision is the outcome of an eligibility rule. Reason is set only when
// the operation is not allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

// RefundDecision is the outcome of the refund rule. MaxAmount carries the
// largest refundable amount when a refund is allowed.
type RefundDecision struct {
	Allowed   bool
	MaxAmount float64
	Reason    string
}

// TransitionCheck is the outcome of a status-transition legality check.
type TransitionCheck struct {
	Valid  bool
	Reason string
}

// AllowedTransitions defines which order status changes are legal. Pairs
// not present in the table are invalid; cancelled and returned are
// terminal.
func AllowedTransitions() map[OrderStatus][]OrderStatus {
	return map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
		OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:    {OrderStatusDelivered},
		OrderStatusDelivered:  {OrderStatusReturned},
		OrderStatusCancelled:  {},
		OrderStatusReturned:   {},
	}
}

// IsValidStatusTransition checks current -> target against the transition
// table.
func IsValidStatusTransition(current, target OrderStatus) TransitionCheck {
	allowed, ok := AllowedTransitions()[current]
	if !ok {
		return TransitionCheck{Reason: fmt.Sprintf("unknown order status %q", current)}
	}
	for _, s := range allowed {
		if s == target {
			return TransitionCheck{Valid: true}
		}
	}
	if len(allowed) == 0 {
		return TransitionCheck{Reason: fmt.Sprintf("order status %q is terminal", current)}
	}
	return TransitionCheck{Reason: fmt.Sprintf("cannot change order status from %q to %q", current, target)}
}

// CanCancelOrder decides whether the customer may cancel the order right
// now. Only pending and confirmed orders qualify; paid orders must go
// through a refund instead.
func CanCancelOrder(o *Order) Decision {
	if o == nil {
		return Decision{Reason: "no order to cancel"}
	}

	switch o.Status {
	case OrderStatusPending, OrderStatusConfirmed:
		// Eligible statuses, payment checks below.
	case OrderStatusProcessing:
		return Decision{Reason: "order is already being processed and cannot be cancelled"}
	case OrderStatusShipped:
		return Decision{Reason: "order has already shipped and cannot be cancelled"}
	case OrderStatusDelivered:
		return Decision{Reason: "order has been delivered; request a return instead"}
	case OrderStatusCancelled:
		return Decision{Reason: "order is already cancelled"}
	case OrderStatusReturned:
		return Decision{Reason: "order has already been returned"}
	default:
		return Decision{Reason: fmt.Sprintf("order in status %q cannot be cancelled", o.Status)}
	}

	switch o.PaymentStatus {
	case PaymentStatusPaid:
		return Decision{Reason: "order has been paid; request a refund instead of cancelling"}
	case PaymentStatusRefunded:
		return Decision{Reason: "order has already been refunded"}
	}

	return Decision{Allowed: true}
}

// CanReturnOrder decides whether a return may be requested at the given
// instant. Only delivered orders with a recorded delivery date inside the
// return window qualify.
func CanReturnOrder(o *Order, now time.Time) Decision {
	if o == nil {
		return Decision{Reason: "no order to return"}
	}
	if o.Status != OrderStatusDelivered {
		return Decision{Reason: "only delivered orders can be returned"}
	}
	if o.DeliveredAt == nil {
		return Decision{Reason: "delivery date is not recorded for this order"}
	}
	if now.Sub(*o.DeliveredAt) > ReturnWindow {
		return Decision{Reason: fmt.Sprintf("the %d-day return window has expired", ReturnWindowDays)}
	}
	return Decision{Allowed: true}
}

// CanRefundOrder decides whether any amount can still be refunded and how
// much at most.
func CanRefundOrder(o *Order) RefundDecision {
	if o == nil {
		return RefundDecision{Reason: "no order to refund"}
	}
	if o.PaymentStatus != PaymentStatusPaid {
		return RefundDecision{Reason: "only paid orders can be refunded"}
	}
	max := o.TotalAmount - o.RefundAmount
	if max <= 0 {
		return RefundDecision{Reason: "order is already fully refunded"}
	}
	return RefundDecision{Allowed: true, MaxAmount: max}
}

// ValidateReturnReason checks the free-text reason a customer supplies
// with a return request: non-empty after trimming, between 10 and 500
// characters.
func ValidateReturnReason(reason string) Decision {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return Decision{Reason: "return reason is required"}
	}
	length := utf8.RuneCountInString(trimmed)
	if length < ReturnReasonMinLength {
		return Decision{Reason: fmt.Sprintf("return reason must be at least %d characters", ReturnReasonMinLength)}
	}
	if length > ReturnReasonMaxLength {
		return Decision{Reason: fmt.Sprintf("return reason must be at most %d characters", ReturnReasonMaxLength)}
	}
	return Decision{Allowed: true}
}

// ReturnWindowDaysRemaining returns the whole days left until the return
// window closes, negative once it has expired. It informs countdown
// displays only; eligibility is decided by CanReturnOrder.
func ReturnWindowDaysRemaining(deliveredAt, now time.Time) int {
	expiry := deliveredAt.Add(ReturnWindow)
	return int(expiry.Sub(now).Hours() / 24)
}
