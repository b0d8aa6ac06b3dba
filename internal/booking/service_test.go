package booking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
	"github.com/171k/ICT602-Laundroyale/internal/repository"
)

type serviceFixture struct {
	store    *docstore.MemStore
	machines *repository.MachineRepo
	orders   *repository.OrderRepo
	payments *repository.PaymentRepo
	service  *Service
}

func newServiceFixture(t *testing.T) (*serviceFixture, string) {
	t.Helper()
	store := docstore.NewMemStore()
	machines := repository.NewMachineRepo(store)
	orders := repository.NewOrderRepo(store)
	payments := repository.NewPaymentRepo(store)

	machineID, err := machines.Create(context.Background(), model.Machine{
		Name: "Washer A", Type: model.MachineTypeWasher, Price: 6, Status: model.MachineStatusAvailable,
	})
	require.NoError(t, err)

	checker := NewAvailabilityChecker(orders, payments, false)
	f := &serviceFixture{
		store:    store,
		machines: machines,
		orders:   orders,
		payments: payments,
		service:  NewService(machines, orders, payments, checker),
	}
	return f, machineID
}

func TestService_CreateBooking(t *testing.T) {
	ctx := context.Background()
	f, machineID := newServiceFixture(t)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	end := start.Add(time.Hour)

	orderID, err := f.service.CreateBooking(ctx, "u1", machineID, "warm", start, end)
	require.NoError(t, err)
	require.NotEmpty(t, orderID)

	order, err := f.orders.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, machineID, order.MachineID)
	assert.Equal(t, "Washer A", order.MachineName)
	assert.Equal(t, model.OrderStatusPending, order.Status, "future slot starts pending")
	assert.Equal(t, 6.0, order.TotalAmount, "price per hour times one hour")
	require.NotEmpty(t, order.PaymentID)

	pmt, err := f.payments.GetByID(ctx, order.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, pmt.Status)
	assert.Equal(t, orderID, pmt.OrderID)
	assert.Equal(t, 6.0, pmt.Amount)
}

func TestService_CreateBookingStartsActiveWhenSlotBegan(t *testing.T) {
	ctx := context.Background()
	f, machineID := newServiceFixture(t)

	start := time.Now().UTC().Add(-5 * time.Minute)
	end := start.Add(time.Hour)

	orderID, err := f.service.CreateBooking(ctx, "u1", machineID, "hot", start, end)
	require.NoError(t, err)

	order, err := f.orders.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusActive, order.Status)
}

func TestService_CreateBookingDurationBounds(t *testing.T) {
	ctx := context.Background()
	f, machineID := newServiceFixture(t)

	start := time.Now().UTC().Add(24 * time.Hour)

	tests := []struct {
		name     string
		duration time.Duration
		wantErr  error
	}{
		{"below minimum", 29 * time.Minute, ErrInvalidDuration},
		{"minimum is allowed", 30 * time.Minute, nil},
		{"maximum is allowed", 180 * time.Minute, nil},
		{"above maximum", 181 * time.Minute, ErrInvalidDuration},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Shift each case to its own day to avoid slot conflicts.
			s := start.Add(tc.duration * 100)
			_, err := f.service.CreateBooking(ctx, "u1", machineID, "", s, s.Add(tc.duration))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_CreateBookingConflict(t *testing.T) {
	ctx := context.Background()
	f, machineID := newServiceFixture(t)

	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(time.Hour)

	orderID, err := f.service.CreateBooking(ctx, "u1", machineID, "", start, end)
	require.NoError(t, err)

	// The first booking is unpaid, so the slot is still winnable.
	secondID, err := f.service.CreateBooking(ctx, "u2", machineID, "", start, end)
	require.NoError(t, err)
	require.NotEqual(t, orderID, secondID)

	// Settle the second booking's payment; now the slot is held.
	second, err := f.orders.GetByID(ctx, secondID)
	require.NoError(t, err)
	require.NoError(t, f.payments.Complete(ctx, second.PaymentID, second.TotalAmount, "card", "TXN-1", time.Now().UTC()))

	_, err = f.service.CreateBooking(ctx, "u3", machineID, "", start, end)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestService_CreateBookingMachineChecks(t *testing.T) {
	ctx := context.Background()
	f, machineID := newServiceFixture(t)

	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(time.Hour)

	require.NoError(t, f.machines.Update(ctx, machineID, model.Machine{
		Name: "Washer A", Type: model.MachineTypeWasher, Price: 6, Status: model.MachineStatusMaintenance,
	}))

	_, err := f.service.CreateBooking(ctx, "u1", machineID, "", start, end)
	assert.ErrorIs(t, err, ErrMachineUnavailable)

	_, err = f.service.CreateBooking(ctx, "u1", "missing-machine", "", start, end)
	assert.True(t, docstore.IsNotFound(err))
}

// failingLinkOrders wraps the order repo and refuses the back-reference
// write.
type failingLinkOrders struct {
	*repository.OrderRepo
}

func (f failingLinkOrders) SetPaymentID(ctx context.Context, id, paymentID string) error {
	return errors.New("write refused")
}

func TestService_CreateBookingLinkIncomplete(t *testing.T) {
	ctx := context.Background()
	f, machineID := newServiceFixture(t)

	checker := NewAvailabilityChecker(f.orders, f.payments, false)
	service := NewService(f.machines, failingLinkOrders{f.orders}, f.payments, checker)

	start := time.Now().UTC().Add(24 * time.Hour)
	orderID, err := service.CreateBooking(ctx, "u1", machineID, "", start, start.Add(time.Hour))

	require.ErrorIs(t, err, ErrLinkIncomplete)
	require.NotEmpty(t, orderID, "the reservation stands despite the broken link")

	order, err := f.orders.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, order.PaymentID)
}

func TestService_ConcurrentBookingsSameSlot(t *testing.T) {
	ctx := context.Background()
	f, machineID := newServiceFixture(t)

	// Confirmed payments make every landed order hold its slot, so with the
	// per-machine lock at most one of the concurrent attempts may win.
	checker := NewAvailabilityChecker(f.orders, confirmAll{f.payments}, false)
	service := NewService(f.machines, f.orders, f.payments, checker)

	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(time.Hour)

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = service.CreateBooking(ctx, "u1", machineID, "", start, end)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		}
	}
	assert.Equal(t, 1, wins)
}

// confirmAll treats every order as paid.
type confirmAll struct {
	*repository.PaymentRepo
}

func (c confirmAll) CompletedOrderIDs(ctx context.Context, orderIDs []string) (map[string]bool, error) {
	confirmed := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		confirmed[id] = true
	}
	return confirmed, nil
}

// captureQueue records enqueued payloads.
type captureQueue struct {
	mu     sync.Mutex
	topics []string
	raw    [][]byte
}

func (q *captureQueue) Enqueue(ctx context.Context, topic string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.topics = append(q.topics, topic)
	q.raw = append(q.raw, raw)
	return nil
}

func TestService_CreateBookingPublishesEvent(t *testing.T) {
	ctx := context.Background()
	f, machineID := newServiceFixture(t)

	queue := &captureQueue{}
	f.service.WithEvents(queue, "events")

	start := time.Now().UTC().Add(24 * time.Hour)
	orderID, err := f.service.CreateBooking(ctx, "u1", machineID, "", start, start.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, queue.raw, 1)
	assert.Equal(t, []string{"events"}, queue.topics)

	var event struct {
		Event   string `json:"event"`
		OrderID string `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(queue.raw[0], &event))
	assert.Equal(t, "order_created", event.Event)
	assert.Equal(t, orderID, event.OrderID)
}
