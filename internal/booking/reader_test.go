package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
	"github.com/171k/ICT602-Laundroyale/internal/repository"
)

func TestReader_GetOrderPromotesStatus(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemStore()
	orders := repository.NewOrderRepo(store)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reader := NewReader(orders, repository.NewPaymentRepo(store))
	reader.now = func() time.Time { return now }

	tests := []struct {
		name   string
		status string
		start  time.Time
		end    time.Time
		want   string
	}{
		{"future slot stays pending", model.OrderStatusPending, now.Add(time.Hour), now.Add(2 * time.Hour), model.OrderStatusPending},
		{"started slot becomes active", model.OrderStatusPending, now.Add(-10 * time.Minute), now.Add(50 * time.Minute), model.OrderStatusActive},
		{"finished pending jumps to completed", model.OrderStatusPending, now.Add(-2 * time.Hour), now.Add(-time.Hour), model.OrderStatusCompleted},
		{"finished active becomes completed", model.OrderStatusActive, now.Add(-2 * time.Hour), now.Add(-time.Hour), model.OrderStatusCompleted},
		{"running active stays active", model.OrderStatusActive, now.Add(-10 * time.Minute), now.Add(50 * time.Minute), model.OrderStatusActive},
		{"cancelled is never promoted", model.OrderStatusCancelled, now.Add(-2 * time.Hour), now.Add(-time.Hour), model.OrderStatusCancelled},
		{"completed stays completed", model.OrderStatusCompleted, now.Add(-2 * time.Hour), now.Add(-time.Hour), model.OrderStatusCompleted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := orders.Create(ctx, model.Order{
				UserID: "u1", MachineID: "m1", Status: tc.status,
				StartTime: tc.start, EndTime: tc.end, CreatedAt: now,
			})
			require.NoError(t, err)

			order, err := reader.GetOrder(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tc.want, order.Status)

			// Promotions are written back to the store.
			stored, err := orders.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tc.want, stored.Status)
		})
	}
}

func TestReader_MissingTimestampsNotPromoted(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemStore()
	orders := repository.NewOrderRepo(store)
	reader := NewReader(orders, repository.NewPaymentRepo(store))

	id, err := store.Collection("orders").Add(ctx, map[string]interface{}{
		"user_id": "u1", "status": "pending",
	})
	require.NoError(t, err)

	order, err := reader.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
}

func TestReader_GetOrderAttachesPayment(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemStore()
	orders := repository.NewOrderRepo(store)
	payments := repository.NewPaymentRepo(store)
	reader := NewReader(orders, payments)

	paymentID, err := payments.Create(ctx, model.Payment{
		Amount: 10, Status: model.PaymentStatusPending,
	})
	require.NoError(t, err)
	orderID, err := orders.Create(ctx, model.Order{
		UserID: "u1", Status: model.OrderStatusPending, PaymentID: paymentID,
		StartTime: time.Now().Add(time.Hour), EndTime: time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)

	detail, err := reader.GetOrder(ctx, orderID)
	require.NoError(t, err)
	require.NotNil(t, detail.Payment)
	assert.Equal(t, paymentID, detail.Payment.ID)
	assert.Equal(t, 10.0, detail.Payment.Amount)

	// A dangling payment reference degrades to the bare order.
	orderID, err = orders.Create(ctx, model.Order{
		UserID: "u1", Status: model.OrderStatusPending, PaymentID: "missing",
		StartTime: time.Now().Add(time.Hour), EndTime: time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)

	detail, err = reader.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Nil(t, detail.Payment)
}

func TestReader_ListUserOrders(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemStore()
	store.RegisterIndex("orders", "created_at", "user_id")
	orders := repository.NewOrderRepo(store)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reader := NewReader(orders, repository.NewPaymentRepo(store))
	reader.now = func() time.Time { return now }

	_, err := orders.Create(ctx, model.Order{
		UserID: "u1", Status: model.OrderStatusPending,
		StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour),
		CreatedAt: now.Add(-3 * time.Hour),
	})
	require.NoError(t, err)
	_, err = orders.Create(ctx, model.Order{
		UserID: "u1", Status: model.OrderStatusPending,
		StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour),
		CreatedAt: now,
	})
	require.NoError(t, err)

	result, err := reader.ListUserOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, model.OrderStatusPending, result[0].Status, "newest first, future slot")
	assert.Equal(t, model.OrderStatusCompleted, result[1].Status, "past slot promoted on read")
}
