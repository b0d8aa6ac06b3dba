package repository

import (
	"context"
	"errors"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

var ErrNoTokens = errors.New("no available tokens")

type TokenRepo struct {
	col docstore.Collection
}

func NewTokenRepo(store docstore.Store) *TokenRepo {
	return &TokenRepo{col: store.Collection(collectionTokens)}
}

func (r *TokenRepo) Create(ctx context.Context, token model.Token) (string, error) {
	return r.col.Add(ctx, token.Data())
}

func (r *TokenRepo) CountUnused(ctx context.Context, userID string) (int, error) {
	q := docstore.Query{}.
		Where("user_id", docstore.OpEqual, userID).
		Where("used", docstore.OpEqual, false)
	return r.col.Count(ctx, q)
}

// UseOne marks any single unused token of the user as used. No ordering
// guarantee; tokens are fungible.
func (r *TokenRepo) UseOne(ctx context.Context, userID string) error {
	q := docstore.Query{}.
		Where("user_id", docstore.OpEqual, userID).
		Where("used", docstore.OpEqual, false).
		WithLimit(1)

	docs, err := r.col.Find(ctx, q)
	if err != nil || len(docs) == 0 {
		return ErrNoTokens
	}
	return r.col.Update(ctx, docs[0].ID, map[string]interface{}{"used": true})
}

func (r *TokenRepo) ListByOrder(ctx context.Context, orderID string) ([]model.Token, error) {
	q := docstore.Query{}.Where("order_id", docstore.OpEqual, orderID)

	docs, err := r.col.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	tokens := make([]model.Token, 0, len(docs))
	for _, doc := range docs {
		tokens = append(tokens, model.TokenFromDoc(doc))
	}
	return tokens, nil
}
