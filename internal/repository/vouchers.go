package repository

import (
	"context"
	"fmt"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type VoucherRepo struct {
	col docstore.Collection
}

func NewVoucherRepo(store docstore.Store) *VoucherRepo {
	return &VoucherRepo{col: store.Collection(collectionVouchers)}
}

func (r *VoucherRepo) Create(ctx context.Context, voucher model.Voucher) (string, error) {
	return r.col.Add(ctx, voucher.Data())
}

func (r *VoucherRepo) GetByID(ctx context.Context, id string) (model.Voucher, error) {
	doc, err := r.col.Get(ctx, id)
	if err != nil {
		return model.Voucher{}, err
	}
	return model.VoucherFromDoc(doc), nil
}

// MarkUsed burns the voucher and records which order spent it.
func (r *VoucherRepo) MarkUsed(ctx context.Context, id, orderID string) error {
	return r.col.Update(ctx, id, map[string]interface{}{
		"used":     true,
		"order_id": orderID,
	})
}

// ListByUser returns the user's vouchers newest first, tolerating a missing
// ordering index.
func (r *VoucherRepo) ListByUser(ctx context.Context, userID string) ([]model.Voucher, error) {
	q := docstore.Query{}.
		Where("user_id", docstore.OpEqual, userID).
		OrderBy("created_at", true)

	docs, err := findOrdered(ctx, r.col, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list vouchers for user %s: %w", userID, err)
	}

	vouchers := make([]model.Voucher, 0, len(docs))
	for _, doc := range docs {
		vouchers = append(vouchers, model.VoucherFromDoc(doc))
	}
	return vouchers, nil
}
