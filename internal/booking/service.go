// Package booking owns the reservation workflow: slot validation, conflict
// detection and the order/payment pair that a reservation consists of.
package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/171k/ICT602-Laundroyale/internal/metrics"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type machineCatalog interface {
	GetByID(ctx context.Context, id string) (model.Machine, error)
}

type orderWriter interface {
	Create(ctx context.Context, order model.Order) (string, error)
	SetPaymentID(ctx context.Context, id, paymentID string) error
}

type paymentWriter interface {
	Create(ctx context.Context, payment model.Payment) (string, error)
}

// EventQueue persists a domain event for asynchronous publication. A nil
// queue is allowed; events are then dropped.
type EventQueue interface {
	Enqueue(ctx context.Context, topic string, payload interface{}) error
}

type availability interface {
	IsAvailable(ctx context.Context, machineID string, start, end time.Time) (bool, error)
}

type Service struct {
	machines machineCatalog
	orders   orderWriter
	payments paymentWriter
	checker  availability
	locks    *machineLocks

	events      EventQueue
	eventsTopic string
}

func NewService(machines machineCatalog, orders orderWriter, payments paymentWriter, checker availability) *Service {
	return &Service{
		machines: machines,
		orders:   orders,
		payments: payments,
		checker:  checker,
		locks:    newMachineLocks(),
	}
}

// WithEvents wires an outbox queue for order_created events.
func (s *Service) WithEvents(events EventQueue, topic string) *Service {
	s.events = events
	s.eventsTopic = topic
	return s
}

type orderCreatedEvent struct {
	Event       string    `json:"event"`
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	MachineID   string    `json:"machine_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	TotalAmount float64   `json:"total_amount"`
}

// CreateBooking reserves a slot on a machine and creates the pending payment
// for it. On success it returns the new order id. When everything but the
// final order→payment back-reference succeeded, it returns the order id
// together with ErrLinkIncomplete; the reservation stands either way.
func (s *Service) CreateBooking(ctx context.Context, userID, machineID, temperature string, start, end time.Time) (string, error) {
	machine, err := s.machines.GetByID(ctx, machineID)
	if err != nil {
		return "", fmt.Errorf("failed to load machine %s: %w", machineID, err)
	}

	duration := end.Sub(start)
	if duration < model.MinBookingDuration || duration > model.MaxBookingDuration {
		return "", ErrInvalidDuration
	}

	// The lock covers the availability read through the order write so two
	// in-process requests for the same machine cannot both pass the check
	// before either order lands.
	release := s.locks.acquire(machineID)
	defer release()

	available, err := s.checker.IsAvailable(ctx, machineID, start, end)
	if err != nil {
		return "", err
	}
	if !available {
		metrics.BookingConflictsTotal.Inc()
		return "", ErrSlotUnavailable
	}
	if !machine.Bookable() {
		return "", ErrMachineUnavailable
	}

	totalAmount := machine.Price * duration.Hours()
	now := time.Now().UTC()

	order := model.Order{
		UserID:      userID,
		MachineID:   machineID,
		MachineName: machine.Name,
		Temperature: temperature,
		StartTime:   start,
		EndTime:     end,
		Status:      model.StatusForStart(start, now),
		TotalAmount: totalAmount,
		CreatedAt:   now,
	}

	orderID, err := s.orders.Create(ctx, order)
	if err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}

	paymentID, err := s.payments.Create(ctx, model.Payment{
		OrderID: orderID,
		Amount:  totalAmount,
		Status:  model.PaymentStatusPending,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create payment for order %s: %w", orderID, err)
	}

	metrics.BookingsCreatedTotal.Inc()
	s.publishCreated(ctx, orderID, order)

	if err := s.orders.SetPaymentID(ctx, orderID, paymentID); err != nil {
		log.Printf("ERROR: failed to link payment %s to order %s: %v", paymentID, orderID, err)
		metrics.OperationErrorsTotal.WithLabelValues("booking_link_payment").Inc()
		return orderID, fmt.Errorf("%w: order %s payment %s", ErrLinkIncomplete, orderID, paymentID)
	}

	return orderID, nil
}

func (s *Service) publishCreated(ctx context.Context, orderID string, order model.Order) {
	if s.events == nil {
		return
	}
	event := orderCreatedEvent{
		Event:       "order_created",
		OrderID:     orderID,
		UserID:      order.UserID,
		MachineID:   order.MachineID,
		StartTime:   order.StartTime,
		EndTime:     order.EndTime,
		TotalAmount: order.TotalAmount,
	}
	if err := s.events.Enqueue(ctx, s.eventsTopic, event); err != nil {
		log.Printf("WARN: failed to enqueue order_created event for %s: %v", orderID, err)
	}
}
