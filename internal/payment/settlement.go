// Package payment implements the settlement workflow. Completing the payment
// record is the only step the caller is promised; the downstream order
// promotion and token mint are best-effort, with failures persisted as repair
// tasks instead of aborting an already-settled payment.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/171k/ICT602-Laundroyale/internal/metrics"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

// ErrAlreadySettled guards against double settlement: replaying a completed
// payment must not re-apply discounts or mint a second token.
var ErrAlreadySettled = errors.New("payment already settled")

type paymentStore interface {
	GetByID(ctx context.Context, id string) (model.Payment, error)
	Complete(ctx context.Context, id string, amount float64, method, transactionID string, paidAt time.Time) error
}

type orderStore interface {
	GetByID(ctx context.Context, id string) (model.Order, error)
	SetStatus(ctx context.Context, id, status string) error
	FirstByPaymentID(ctx context.Context, paymentID string) (model.Order, error)
}

type tokenMinter interface {
	Create(ctx context.Context, token model.Token) (string, error)
}

type voucherStore interface {
	GetByID(ctx context.Context, id string) (model.Voucher, error)
	MarkUsed(ctx context.Context, id, orderID string) error
}

// TaskQueue persists saga events and repair tasks for asynchronous delivery.
// A nil queue drops them.
type TaskQueue interface {
	Enqueue(ctx context.Context, topic string, payload interface{}) error
}

type Settler struct {
	payments paymentStore
	orders   orderStore
	tokens   tokenMinter
	vouchers voucherStore

	tasks       TaskQueue
	eventsTopic string
	repairTopic string
}

func NewSettler(payments paymentStore, orders orderStore, tokens tokenMinter, vouchers voucherStore) *Settler {
	return &Settler{
		payments: payments,
		orders:   orders,
		tokens:   tokens,
		vouchers: vouchers,
	}
}

// WithTasks wires the outbox: eventsTopic receives payment_completed events,
// repairTopic receives downstream-step failures for later reconciliation.
func (s *Settler) WithTasks(tasks TaskQueue, eventsTopic, repairTopic string) *Settler {
	s.tasks = tasks
	s.eventsTopic = eventsTopic
	s.repairTopic = repairTopic
	return s
}

type paymentCompletedEvent struct {
	Event         string    `json:"event"`
	PaymentID     string    `json:"payment_id"`
	OrderID       string    `json:"order_id,omitempty"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	TransactionID string    `json:"transaction_id"`
	PaidAt        time.Time `json:"paid_at"`
}

// RepairTask records a settlement step that failed after the payment itself
// committed, so an operator or consumer can resume from it.
type RepairTask struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id,omitempty"`
	Step      string `json:"step"`
	Error     string `json:"error"`
}

// Complete settles the payment: optional voucher discount, the completing
// update itself, then order promotion and token mint. voucherID may be empty.
func (s *Settler) Complete(ctx context.Context, paymentID, method, voucherID string) error {
	pmt, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to load payment %s: %w", paymentID, err)
	}
	if pmt.Status != model.PaymentStatusPending {
		return fmt.Errorf("payment %s has status %s: %w", paymentID, pmt.Status, ErrAlreadySettled)
	}

	amount := pmt.Amount
	if voucherID != "" {
		amount = s.applyVoucher(ctx, voucherID, pmt.OrderID, amount)
	}

	transactionID := "TXN-" + strings.ToUpper(uuid.NewString())
	paidAt := time.Now().UTC()

	if err := s.payments.Complete(ctx, paymentID, amount, method, transactionID, paidAt); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("payment_complete").Inc()
		return fmt.Errorf("failed to complete payment %s: %w", paymentID, err)
	}
	metrics.PaymentsSettledTotal.Inc()

	order, orderID, err := s.resolveOrder(ctx, pmt, paymentID)
	if err != nil {
		log.Printf("WARN: payment %s settled but no order found: %v", paymentID, err)
		return nil
	}

	s.publishCompleted(ctx, paymentID, orderID, amount, method, transactionID, paidAt)

	now := time.Now().UTC()
	status := model.StatusForStart(order.StartTime, now)
	if err := s.orders.SetStatus(ctx, orderID, status); err != nil {
		log.Printf("ERROR: failed to update order %s status after settlement: %v", orderID, err)
		metrics.OperationErrorsTotal.WithLabelValues("settlement_order_status").Inc()
		s.enqueueRepair(ctx, paymentID, orderID, "order_status", err)
	}

	if order.UserID == "" {
		log.Printf("ERROR: order %s has no user id, skipping token mint", orderID)
		return nil
	}

	if _, err := s.tokens.Create(ctx, model.Token{UserID: order.UserID, OrderID: orderID}); err != nil {
		log.Printf("ERROR: failed to mint token for user %s order %s: %v", order.UserID, orderID, err)
		metrics.OperationErrorsTotal.WithLabelValues("settlement_token_mint").Inc()
		s.enqueueRepair(ctx, paymentID, orderID, "token_mint", err)
		return nil
	}
	metrics.TokensMintedTotal.Inc()

	return nil
}

// applyVoucher subtracts the fixed discount when the voucher checks out.
// Every voucher problem is non-fatal; settlement proceeds at full price.
func (s *Settler) applyVoucher(ctx context.Context, voucherID, orderID string, amount float64) float64 {
	voucher, err := s.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		log.Printf("WARN: failed to load voucher %s, settling at full price: %v", voucherID, err)
		return amount
	}
	if !voucher.Valid(time.Now()) || voucher.Type != model.VoucherTypeRM5Off {
		return amount
	}

	discounted := amount - model.RM5DiscountAmount
	if discounted < 0 {
		discounted = 0
	}

	if err := s.vouchers.MarkUsed(ctx, voucherID, orderID); err != nil {
		log.Printf("ERROR: failed to mark voucher %s used: %v", voucherID, err)
	}
	return discounted
}

func (s *Settler) resolveOrder(ctx context.Context, pmt model.Payment, paymentID string) (model.Order, string, error) {
	if pmt.OrderID != "" {
		order, err := s.orders.GetByID(ctx, pmt.OrderID)
		if err != nil {
			return model.Order{}, "", err
		}
		return order, pmt.OrderID, nil
	}

	// Older payment records lack the order back-reference; fall back to the
	// reverse lookup.
	log.Printf("WARN: payment %s has no order id, querying orders by payment id", paymentID)
	order, err := s.orders.FirstByPaymentID(ctx, paymentID)
	if err != nil {
		return model.Order{}, "", err
	}
	return order, order.ID, nil
}

func (s *Settler) publishCompleted(ctx context.Context, paymentID, orderID string, amount float64, method, transactionID string, paidAt time.Time) {
	if s.tasks == nil {
		return
	}
	event := paymentCompletedEvent{
		Event:         "payment_completed",
		PaymentID:     paymentID,
		OrderID:       orderID,
		Amount:        amount,
		Method:        method,
		TransactionID: transactionID,
		PaidAt:        paidAt,
	}
	if err := s.tasks.Enqueue(ctx, s.eventsTopic, event); err != nil {
		log.Printf("WARN: failed to enqueue payment_completed event for %s: %v", paymentID, err)
	}
}

func (s *Settler) enqueueRepair(ctx context.Context, paymentID, orderID, step string, cause error) {
	if s.tasks == nil {
		return
	}
	task := RepairTask{
		PaymentID: paymentID,
		OrderID:   orderID,
		Step:      step,
		Error:     cause.Error(),
	}
	if err := s.tasks.Enqueue(ctx, s.repairTopic, task); err != nil {
		log.Printf("ERROR: failed to enqueue settlement repair task for payment %s: %v", paymentID, err)
	}
}
