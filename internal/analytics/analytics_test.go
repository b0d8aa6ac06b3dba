package analytics

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

func TestService_Build(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemStore()

	payments := repository.NewPaymentRepo(store)
	orders := repository.NewOrderRepo(store)
	users := repository.NewUserRepo(store)
	machines := repository.NewMachineRepo(store)

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	addPayment := func(amount float64, paidAt time.Time) {
		id, err := payments.Create(ctx, model.Payment{Amount: amount, Status: model.PaymentStatusPending})
		require.NoError(t, err)
		require.NoError(t, payments.Complete(ctx, id, amount, "card", "TXN-T", paidAt))
	}

	addPayment(10, now.Add(-time.Hour))            // this month
	addPayment(20, now.AddDate(0, -2, 0))          // this year, not this month
	addPayment(40, now.AddDate(-1, 0, 0))          // last year

	// A pending payment never counts toward revenue.
	_, err := payments.Create(ctx, model.Payment{Amount: 99, Status: model.PaymentStatusPending})
	require.NoError(t, err)

	_, err = orders.Create(ctx, model.Order{UserID: "u1", CreatedAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = orders.Create(ctx, model.Order{UserID: "u1", CreatedAt: now.AddDate(0, -3, 0)})
	require.NoError(t, err)

	_, err = users.Create(ctx, model.User{Username: "alice"}, "pw")
	require.NoError(t, err)
	_, err = users.Create(ctx, model.User{Username: "bob"}, "pw")
	require.NoError(t, err)

	_, err = machines.Create(ctx, model.Machine{Name: "W1", Type: model.MachineTypeWasher, Price: 5})
	require.NoError(t, err)
	_, err = machines.Create(ctx, model.Machine{Name: "W2", Type: model.MachineTypeWasher, Price: 5})
	require.NoError(t, err)
	_, err = machines.Create(ctx, model.Machine{Name: "D1", Type: model.MachineTypeDryer, Price: 4})
	require.NoError(t, err)

	service := NewService(payments, orders, users, machines)
	service.now = func() time.Time { return now }

	report, err := service.Build(ctx)
	require.NoError(t, err)

	assert.Equal(t, 70.0, report.TotalRevenue)
	assert.Equal(t, 30.0, report.YearlyRevenue)
	assert.Equal(t, 10.0, report.MonthlyRevenue)
	assert.Equal(t, 2, report.TotalOrders)
	assert.Equal(t, 1, report.MonthlyOrders)
	assert.Equal(t, 2, report.TotalUsers)
	assert.Equal(t, 2, report.WasherCount)
	assert.Equal(t, 1, report.DryerCount)
}

func TestService_BuildEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemStore()

	service := NewService(
		repository.NewPaymentRepo(store),
		repository.NewOrderRepo(store),
		repository.NewUserRepo(store),
		repository.NewMachineRepo(store),
	)

	report, err := service.Build(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.TotalRevenue)
	assert.Zero(t, report.TotalOrders)
	assert.Zero(t, report.TotalUsers)
}
