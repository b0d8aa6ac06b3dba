package repository

import (
	"context"
	"time"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type PaymentRepo struct {
	col docstore.Collection
}

func NewPaymentRepo(store docstore.Store) *PaymentRepo {
	return &PaymentRepo{col: store.Collection(collectionPayments)}
}

func (r *PaymentRepo) Create(ctx context.Context, payment model.Payment) (string, error) {
	return r.col.Add(ctx, payment.Data())
}

func (r *PaymentRepo) GetByID(ctx context.Context, id string) (model.Payment, error) {
	doc, err := r.col.Get(ctx, id)
	if err != nil {
		return model.Payment{}, err
	}
	return model.PaymentFromDoc(doc), nil
}

// Complete writes the settlement fields in a single update.
func (r *PaymentRepo) Complete(ctx context.Context, id string, amount float64, method, transactionID string, paidAt time.Time) error {
	return r.col.Update(ctx, id, map[string]interface{}{
		"status":         model.PaymentStatusCompleted,
		"payment_method": method,
		"transaction_id": transactionID,
		"paid_at":        paidAt,
		"amount":         amount,
	})
}

// CompletedOrderIDs filters the given order ids down to those whose payment
// has completed.
func (r *PaymentRepo) CompletedOrderIDs(ctx context.Context, orderIDs []string) (map[string]bool, error) {
	q := docstore.Query{}.
		Where("order_id", docstore.OpIn, orderIDs).
		Where("status", docstore.OpEqual, model.PaymentStatusCompleted)

	docs, err := r.col.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	completed := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if orderID := model.PaymentFromDoc(doc).OrderID; orderID != "" {
			completed[orderID] = true
		}
	}
	return completed, nil
}

// ListCompleted returns every settled payment, for revenue aggregation.
func (r *PaymentRepo) ListCompleted(ctx context.Context) ([]model.Payment, error) {
	q := docstore.Query{}.Where("status", docstore.OpEqual, model.PaymentStatusCompleted)

	docs, err := r.col.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	payments := make([]model.Payment, 0, len(docs))
	for _, doc := range docs {
		payments = append(payments, model.PaymentFromDoc(doc))
	}
	return payments, nil
}
