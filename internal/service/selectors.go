package service

import "github.com/JuanJosePl/new-killaVibe-sub001/internal/domain"

// OrderStats summarizes a set of orders for history views.
type OrderStats struct {
	Total      int
	ByStatus   map[domain.OrderStatus]int
	TotalSpent float64
}

// FilterByStatus returns the orders matching the given status, preserving
// input order. An empty status matches everything.
func FilterByStatus(orders []domain.Order, status domain.OrderStatus) []domain.Order {
	if status == "" {
		out := make([]domain.Order, len(orders))
		copy(out, orders)
		return out
	}
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// Stats computes counts per status and the total spent. Spending counts
// only paid orders that were neither cancelled nor returned.
func Stats(orders []domain.Order) OrderStats {
	stats := OrderStats{ByStatus: make(map[domain.OrderStatus]int)}
	for _, o := range orders {
		stats.Total++
		stats.ByStatus[o.Status]++
		if o.PaymentStatus == domain.PaymentStatusPaid &&
			o.Status != domain.OrderStatusCancelled &&
			o.Status != domain.OrderStatusReturned {
			stats.TotalSpent += o.TotalAmount
		}
	}
	return stats
}
