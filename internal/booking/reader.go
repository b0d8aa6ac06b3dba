package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type orderReader interface {
	GetByID(ctx context.Context, id string) (model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)
	SetStatus(ctx context.Context, id, status string) error
}

type paymentGetter interface {
	GetByID(ctx context.Context, id string) (model.Payment, error)
}

// OrderDetail is an order with its payment attached, when one is linked and
// loadable.
type OrderDetail struct {
	model.Order
	Payment *model.Payment `json:"payment,omitempty"`
}

// Reader serves order lookups. Stored statuses only change on writes, so
// reads promote pending orders whose slot has started and active orders
// whose slot has ended before returning them. Promotions are written back
// best effort; a failed write-back never fails the read.
type Reader struct {
	orders   orderReader
	payments paymentGetter
	now      func() time.Time
}

func NewReader(orders orderReader, payments paymentGetter) *Reader {
	return &Reader{orders: orders, payments: payments, now: time.Now}
}

func (r *Reader) GetOrder(ctx context.Context, orderID string) (OrderDetail, error) {
	order, err := r.orders.GetByID(ctx, orderID)
	if err != nil {
		return OrderDetail{}, fmt.Errorf("get order %s: %w", orderID, err)
	}

	detail := OrderDetail{Order: r.promote(ctx, order)}
	if detail.PaymentID != "" {
		payment, err := r.payments.GetByID(ctx, detail.PaymentID)
		if err != nil {
			zap.L().Warn("payment lookup failed for order read",
				zap.String("order_id", orderID),
				zap.String("payment_id", detail.PaymentID),
				zap.Error(err))
		} else {
			detail.Payment = &payment
		}
	}
	return detail, nil
}

func (r *Reader) ListUserOrders(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := r.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders for user %s: %w", userID, err)
	}
	for i := range orders {
		orders[i] = r.promote(ctx, orders[i])
	}
	return orders, nil
}

func (r *Reader) promote(ctx context.Context, order model.Order) model.Order {
	if !order.HasSlot {
		return order
	}

	now := r.now()
	promoted := order.Status
	switch order.Status {
	case model.OrderStatusPending:
		if !order.StartTime.After(now) {
			promoted = model.OrderStatusActive
		}
		if !order.EndTime.After(now) {
			promoted = model.OrderStatusCompleted
		}
	case model.OrderStatusActive:
		if !order.EndTime.After(now) {
			promoted = model.OrderStatusCompleted
		}
	}
	if promoted == order.Status {
		return order
	}

	if err := r.orders.SetStatus(ctx, order.ID, promoted); err != nil {
		zap.L().Warn("order status write-back failed",
			zap.String("order_id", order.ID),
			zap.String("status", promoted),
			zap.Error(err))
	}
	order.Status = promoted
	return order
}
