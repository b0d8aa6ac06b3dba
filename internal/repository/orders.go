package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type OrderRepo struct {
	col docstore.Collection
}

func NewOrderRepo(store docstore.Store) *OrderRepo {
	return &OrderRepo{col: store.Collection(collectionOrders)}
}

func (r *OrderRepo) Create(ctx context.Context, order model.Order) (string, error) {
	return r.col.Add(ctx, order.Data())
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (model.Order, error) {
	doc, err := r.col.Get(ctx, id)
	if err != nil {
		return model.Order{}, err
	}
	return model.OrderFromDoc(doc), nil
}

func (r *OrderRepo) SetPaymentID(ctx context.Context, id, paymentID string) error {
	return r.col.Update(ctx, id, map[string]interface{}{"payment_id": paymentID})
}

func (r *OrderRepo) SetStatus(ctx context.Context, id, status string) error {
	return r.col.Update(ctx, id, map[string]interface{}{"status": status})
}

// ListNotCancelledByMachine returns every order on the machine that has not
// been cancelled, regardless of payment state. The availability checker
// narrows the set further.
func (r *OrderRepo) ListNotCancelledByMachine(ctx context.Context, machineID string) ([]model.Order, error) {
	q := docstore.Query{}.
		Where("machine_id", docstore.OpEqual, machineID).
		Where("status", docstore.OpNotEqual, model.OrderStatusCancelled)

	docs, err := r.col.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	orders := make([]model.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, model.OrderFromDoc(doc))
	}
	return orders, nil
}

// ListByUser returns the user's orders newest first, surviving a missing
// ordering index via the client-side fallback sort.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	q := docstore.Query{}.
		Where("user_id", docstore.OpEqual, userID).
		OrderBy("created_at", true)

	docs, err := findOrdered(ctx, r.col, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}

	orders := make([]model.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, model.OrderFromDoc(doc))
	}
	return orders, nil
}

// FirstByPaymentID is the settlement fallback used when a payment record
// predates the order_id back-reference.
func (r *OrderRepo) FirstByPaymentID(ctx context.Context, paymentID string) (model.Order, error) {
	q := docstore.Query{}.
		Where("payment_id", docstore.OpEqual, paymentID).
		WithLimit(1)

	docs, err := r.col.Find(ctx, q)
	if err != nil {
		return model.Order{}, err
	}
	if len(docs) == 0 {
		return model.Order{}, fmt.Errorf("no order for payment %s: %w", paymentID, docstore.ErrNotFound)
	}
	return model.OrderFromDoc(docs[0]), nil
}

func (r *OrderRepo) CountAll(ctx context.Context) (int, error) {
	return r.col.Count(ctx, docstore.Query{})
}

func (r *OrderRepo) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	q := docstore.Query{}.Where("created_at", docstore.OpGreaterOrEqual, since)
	return r.col.Count(ctx, q)
}
