package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type paymentLister interface {
	ListCompleted(ctx context.Context) ([]model.Payment, error)
}

type orderCounter interface {
	CountAll(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}

type userCounter interface {
	Count(ctx context.Context) (int, error)
}

type machineCounter interface {
	CountByType(ctx context.Context, machineType string) (int, error)
}

type Report struct {
	TotalRevenue   float64 `json:"total_revenue"`
	MonthlyRevenue float64 `json:"monthly_revenue"`
	YearlyRevenue  float64 `json:"yearly_revenue"`
	TotalOrders    int     `json:"total_orders"`
	MonthlyOrders  int     `json:"monthly_orders"`
	TotalUsers     int     `json:"total_users"`
	WasherCount    int     `json:"washer_count"`
	DryerCount     int     `json:"dryer_count"`
}

type Service struct {
	payments paymentLister
	orders   orderCounter
	users    userCounter
	machines machineCounter
	now      func() time.Time
}

func NewService(payments paymentLister, orders orderCounter, users userCounter, machines machineCounter) *Service {
	return &Service{
		payments: payments,
		orders:   orders,
		users:    users,
		machines: machines,
		now:      time.Now,
	}
}

// Build aggregates revenue from completed payments and headline counts.
// Revenue buckets go by the payment's paid_at timestamp; payments completed
// before paid_at was recorded only count toward the total.
func (s *Service) Build(ctx context.Context) (Report, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	payments, err := s.payments.ListCompleted(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list completed payments: %w", err)
	}

	var report Report
	for _, p := range payments {
		report.TotalRevenue += p.Amount
		if p.PaidAt == nil {
			continue
		}
		if !p.PaidAt.Before(yearStart) {
			report.YearlyRevenue += p.Amount
		}
		if !p.PaidAt.Before(monthStart) {
			report.MonthlyRevenue += p.Amount
		}
	}

	if report.TotalOrders, err = s.orders.CountAll(ctx); err != nil {
		return Report{}, fmt.Errorf("count orders: %w", err)
	}
	if report.MonthlyOrders, err = s.orders.CountCreatedSince(ctx, monthStart); err != nil {
		return Report{}, fmt.Errorf("count monthly orders: %w", err)
	}
	if report.TotalUsers, err = s.users.Count(ctx); err != nil {
		return Report{}, fmt.Errorf("count users: %w", err)
	}
	if report.WasherCount, err = s.machines.CountByType(ctx, model.MachineTypeWasher); err != nil {
		return Report{}, fmt.Errorf("count washers: %w", err)
	}
	if report.DryerCount, err = s.machines.CountByType(ctx, model.MachineTypeDryer); err != nil {
		return Report{}, fmt.Errorf("count dryers: %w", err)
	}
	return report, nil
}
