package domain

import "time"

// TrackingEvent is one entry in a shipment timeline.
type TrackingEvent struct {
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// TrackingInfo is the shipment timeline for an order as the backend
// reports it. It stays a plain DTO: the tracking endpoint returns
// carrier data, not an order record.
type TrackingInfo struct {
	OrderID           string          `json:"orderId"`
	OrderNumber       string          `json:"orderNumber,omitempty"`
	Carrier           string          `json:"carrier,omitempty"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	Status            string          `json:"status"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	Events            []TrackingEvent `json:"events"`
}

// Clone returns a deep copy sharing no slices with the original.
func (t *TrackingInfo) Clone() TrackingInfo {
	cp := *t
	cp.EstimatedDelivery = copyTime(t.EstimatedDelivery)
	cp.Events = make([]TrackingEvent, len(t.Events))
	copy(cp.Events, t.Events)
	return cp
}

// Delivered reports whether the shipment has reached its final state.
func (t *TrackingInfo) Delivered() bool {
	return t.Status == string(OrderStatusDelivered)
}
