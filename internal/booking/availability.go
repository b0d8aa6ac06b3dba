package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/metrics"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type orderLister interface {
	ListNotCancelledByMachine(ctx context.Context, machineID string) ([]model.Order, error)
}

type paymentChecker interface {
	CompletedOrderIDs(ctx context.Context, orderIDs []string) (map[string]bool, error)
}

// AvailabilityChecker decides whether a requested slot collides with any
// confirmed reservation: an order that is not cancelled and whose payment has
// completed. Half-open intervals, so back-to-back slots touch without
// conflicting.
type AvailabilityChecker struct {
	orders   orderLister
	payments paymentChecker

	// failClosed flips the behavior on a permission-denied read: by default
	// the checker assumes the slot is free so the booking path stays live;
	// fail-closed reports the slot taken instead.
	failClosed bool
}

func NewAvailabilityChecker(orders orderLister, payments paymentChecker, failClosed bool) *AvailabilityChecker {
	return &AvailabilityChecker{orders: orders, payments: payments, failClosed: failClosed}
}

func (c *AvailabilityChecker) IsAvailable(ctx context.Context, machineID string, start, end time.Time) (bool, error) {
	orders, err := c.orders.ListNotCancelledByMachine(ctx, machineID)
	if err != nil {
		if docstore.IsPermissionDenied(err) {
			return c.degraded("orders", err), nil
		}
		return false, fmt.Errorf("failed to check machine availability: %w", err)
	}

	if len(orders) == 0 {
		return true, nil
	}

	orderIDs := make([]string, len(orders))
	for i, order := range orders {
		orderIDs[i] = order.ID
	}

	confirmed, err := c.payments.CompletedOrderIDs(ctx, orderIDs)
	if err != nil {
		if docstore.IsPermissionDenied(err) {
			return c.degraded("payments", err), nil
		}
		return false, fmt.Errorf("failed to check payment status: %w", err)
	}

	for _, order := range orders {
		if !confirmed[order.ID] {
			continue
		}
		// Orders with missing timestamps have HasSlot unset and never
		// conflict.
		if order.Overlaps(start, end) {
			return false, nil
		}
	}
	return true, nil
}

func (c *AvailabilityChecker) degraded(collection string, err error) bool {
	metrics.DegradedReadsTotal.WithLabelValues("permission_denied").Inc()
	if c.failClosed {
		log.Printf("WARN: permission denied reading %s, failing closed (slot reported taken): %v", collection, err)
		return false
	}
	log.Printf("WARN: permission denied reading %s, assuming slot available: %v", collection, err)
	return true
}
