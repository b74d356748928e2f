package domain

import "time"

// OrderStatus is the lifecycle stage of an order.
type OrderStatus string

// Order lifecycle statuses.
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
)

// PaymentStatus tracks the money flow of an order. It moves independently
// of the order status: a pending order can already be paid, and a
// delivered order can still await payment on cash-on-delivery.
type PaymentStatus string

// Payment statuses.
const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentMethod identifies how the customer pays for an order.
type PaymentMethod string

// Payment methods accepted by the backend.
const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodDebitCard      PaymentMethod = "debit_card"
	PaymentMethodPayPal         PaymentMethod = "paypal"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// ReturnWindowDays is the number of days after delivery during which a
// return may be requested. The window is inclusive: a return requested
// exactly 30 days after delivery is still accepted.
const ReturnWindowDays = 30

// ReturnWindow is the return window expressed as a duration.
const ReturnWindow = ReturnWindowDays * 24 * time.Hour

// ValidOrderStatuses returns all known order statuses.
func ValidOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusReturned,
	}
}

// IsValidOrderStatus checks whether a status string is a known order status.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses() {
		if string(s) == status {
			return true
		}
	}
	return false
}

// ValidPaymentMethods returns all payment methods the backend accepts.
func ValidPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCreditCard,
		PaymentMethodDebitCard,
		PaymentMethodPayPal,
		PaymentMethodCashOnDelivery,
	}
}

// IsValidPaymentMethod checks whether a method string is a known payment method.
func IsValidPaymentMethod(method string) bool {
	for _, m := range ValidPaymentMethods() {
		if string(m) == method {
			return true
		}
	}
	return false
}

// CustomerInfo is the contact snapshot captured when the order was placed.
// It never changes afterwards, even if the live user profile does.
type CustomerInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// Address is a shipping or billing address snapshot.
type Address struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
	Street    string `json:"street" validate:"required,min=5"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	ZipCode   string `json:"zipCode" validate:"required"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone" validate:"required,phone"`
}

// OrderItem is a frozen line-item snapshot. Product name, image, and unit
// price are copied at order-creation time and never re-fetched or
// re-priced.
type OrderItem struct {
	ProductID  string            `json:"product"`
	Name       string            `json:"name"`
	Image      string            `json:"image,omitempty"`
	SKU        string            `json:"sku,omitempty"`
	Quantity   int               `json:"quantity"`
	Price      float64           `json:"price"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Variant    string            `json:"variant,omitempty"`
}

// Coupon is the coupon snapshot applied to an order, if any.
type Coupon struct {
	Code           string  `json:"code"`
	DiscountType   string  `json:"discountType,omitempty"`
	DiscountAmount float64 `json:"discountAmount"`
}

// OrderPayload is the raw wire shape of an order as the backend sends it.
// It carries no behavior; NewOrder turns it into an Order.
type OrderPayload struct {
	ID              string        `json:"id"`
	OrderNumber     string        `json:"orderNumber"`
	UserID          string        `json:"user"`
	CustomerInfo    *CustomerInfo `json:"customerInfo,omitempty"`
	Items           []OrderItem   `json:"items"`
	Subtotal        float64       `json:"subtotal"`
	ShippingCost    float64       `json:"shippingCost"`
	TaxAmount       float64       `json:"taxAmount"`
	DiscountAmount  float64       `json:"discountAmount"`
	TotalAmount     float64       `json:"totalAmount"`
	RefundAmount    float64       `json:"refundAmount"`
	ShippingAddress *Address      `json:"shippingAddress,omitempty"`
	BillingAddress  *Address      `json:"billingAddress,omitempty"`
	ShippingMethod  string        `json:"shippingMethod,omitempty"`
	PaymentMethod   string        `json:"paymentMethod,omitempty"`
	Status          string        `json:"status"`
	PaymentStatus   string        `json:"paymentStatus"`
	TrackingNumber  string        `json:"trackingNumber,omitempty"`
	CustomerNotes   string        `json:"customerNotes,omitempty"`
	AdminNotes      string        `json:"adminNotes,omitempty"`
	Coupon          *Coupon       `json:"coupon,omitempty"`
	PaidAt          *time.Time    `json:"paidAt,omitempty"`
	ShippedAt       *time.Time    `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time    `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time    `json:"cancelledAt,omitempty"`
	RefundedAt      *time.Time    `json:"refundedAt,omitempty"`
	CreatedAt       *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time    `json:"updatedAt,omitempty"`
}

// Order is the in-memory representation of a backend order record. It is
// built from an OrderPayload exactly once: missing fields are defaulted
// so callers never branch on absent data, and the derived fields are
// computed at construction. A committed Order is never mutated in place;
// state changes always produce a new Order from a fresh payload, and the
// store only hands out deep copies.
type Order struct {
	ID          string
	OrderNumber string
	UserID      string

	CustomerInfo *CustomerInfo
	Items        []OrderItem

	// Monetary fields are backend-computed and treated as opaque values.
	Subtotal       float64
	ShippingCost   float64
	TaxAmount      float64
	DiscountAmount float64
	TotalAmount    float64
	RefundAmount   float64

	ShippingAddress *Address
	BillingAddress  *Address
	ShippingMethod  string
	PaymentMethod   PaymentMethod

	Status        OrderStatus
	PaymentStatus PaymentStatus

	TrackingNumber string
	CustomerNotes  string
	AdminNotes     string
	Coupon         *Coupon

	PaidAt      *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
	RefundedAt  *time.Time
	CreatedAt   *time.Time
	UpdatedAt   *time.Time

	// Derived fields, computed once by NewOrder.
	ItemsCount      int
	TotalRefundable float64
	CanBeCancelled  bool
	CanBeRefunded   bool
}

// NewOrder builds an Order from a raw backend payload. Missing fields are
// defaulted (numbers to 0, the item list to empty, objects to nil) and all
// nested data is copied, so the Order shares nothing with the payload.
func NewOrder(p OrderPayload) Order {
	o := Order{
		ID:              p.ID,
		OrderNumber:     p.OrderNumber,
		UserID:          p.UserID,
		CustomerInfo:    copyCustomerInfo(p.CustomerInfo),
		Items:           copyItems(p.Items),
		Subtotal:        p.Subtotal,
		ShippingCost:    p.ShippingCost,
		TaxAmount:       p.TaxAmount,
		DiscountAmount:  p.DiscountAmount,
		TotalAmount:     p.TotalAmount,
		RefundAmount:    p.RefundAmount,
		ShippingAddress: copyAddress(p.ShippingAddress),
		BillingAddress:  copyAddress(p.BillingAddress),
		ShippingMethod:  p.ShippingMethod,
		PaymentMethod:   PaymentMethod(p.PaymentMethod),
		Status:          OrderStatus(p.Status),
		PaymentStatus:   PaymentStatus(p.PaymentStatus),
		TrackingNumber:  p.TrackingNumber,
		CustomerNotes:   p.CustomerNotes,
		AdminNotes:      p.AdminNotes,
		Coupon:          copyCoupon(p.Coupon),
		PaidAt:          copyTime(p.PaidAt),
		ShippedAt:       copyTime(p.ShippedAt),
		DeliveredAt:     copyTime(p.DeliveredAt),
		CancelledAt:     copyTime(p.CancelledAt),
		RefundedAt:      copyTime(p.RefundedAt),
		CreatedAt:       copyTime(p.CreatedAt),
		UpdatedAt:       copyTime(p.UpdatedAt),
	}

	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentStatusPending
	}

	for _, item := range o.Items {
		o.ItemsCount += item.Quantity
	}

	o.TotalRefundable = o.TotalAmount - o.RefundAmount
	if o.TotalRefundable < 0 {
		o.TotalRefundable = 0
	}

	o.CanBeCancelled = (o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed) &&
		o.PaymentStatus != PaymentStatusRefunded

	o.CanBeRefunded = o.PaymentStatus == PaymentStatusPaid && o.RefundAmount < o.TotalAmount

	return o
}

// CanBeReturned reports whether a return may still be requested at the
// given instant: the order is delivered, the delivery timestamp is
// recorded, and no more than ReturnWindowDays have passed since delivery.
func (o *Order) CanBeReturned(now time.Time) bool {
	if o.Status != OrderStatusDelivered || o.DeliveredAt == nil {
		return false
	}
	return now.Sub(*o.DeliveredAt) <= ReturnWindow
}

// IsTerminal reports whether the order has reached a final state.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusCancelled, OrderStatusReturned, OrderStatusDelivered:
		return true
	}
	return false
}

// IsActive reports whether the order is moving through fulfilment.
func (o *Order) IsActive() bool {
	switch o.Status {
	case OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped:
		return true
	}
	return false
}

// Snapshot serializes the order back into a plain payload. The result
// shares no references with the order: reconstructing via NewOrder yields
// an identical entity, derived fields included.
func (o *Order) Snapshot() OrderPayload {
	return OrderPayload{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		CustomerInfo:    copyCustomerInfo(o.CustomerInfo),
		Items:           copyItems(o.Items),
		Subtotal:        o.Subtotal,
		ShippingCost:    o.ShippingCost,
		TaxAmount:       o.TaxAmount,
		DiscountAmount:  o.DiscountAmount,
		TotalAmount:     o.TotalAmount,
		RefundAmount:    o.RefundAmount,
		ShippingAddress: copyAddress(o.ShippingAddress),
		BillingAddress:  copyAddress(o.BillingAddress),
		ShippingMethod:  o.ShippingMethod,
		PaymentMethod:   string(o.PaymentMethod),
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		TrackingNumber:  o.TrackingNumber,
		CustomerNotes:   o.CustomerNotes,
		AdminNotes:      o.AdminNotes,
		Coupon:          copyCoupon(o.Coupon),
		PaidAt:          copyTime(o.PaidAt),
		ShippedAt:       copyTime(o.ShippedAt),
		DeliveredAt:     copyTime(o.DeliveredAt),
		CancelledAt:     copyTime(o.CancelledAt),
		RefundedAt:      copyTime(o.RefundedAt),
		CreatedAt:       copyTime(o.CreatedAt),
		UpdatedAt:       copyTime(o.UpdatedAt),
	}
}

// Clone returns a deep copy of the order. The copy is rebuilt through
// NewOrder so its derived fields stay consistent with its data.
func (o *Order) Clone() Order {
	return NewOrder(o.Snapshot())
}

func copyItems(items []OrderItem) []OrderItem {
	out := make([]OrderItem, len(items))
	for i, item := range items {
		out[i] = item
		if item.Attributes != nil {
			attrs := make(map[string]string, len(item.Attributes))
			for k, v := range item.Attributes {
				attrs[k] = v
			}
			out[i].Attributes = attrs
		}
	}
	return out
}

func copyAddress(a *Address) *Address {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

func copyCustomerInfo(c *CustomerInfo) *CustomerInfo {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func copyCoupon(c *Coupon) *Coupon {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
