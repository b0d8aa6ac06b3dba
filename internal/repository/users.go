package repository

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type UserRepo struct {
	col docstore.Collection
}

func NewUserRepo(store docstore.Store) *UserRepo {
	return &UserRepo{col: store.Collection(collectionUsers)}
}

func (r *UserRepo) Create(ctx context.Context, user model.User, password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	user.PasswordHash = string(hashed)
	return r.col.Add(ctx, user.Data())
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	doc, err := r.col.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	return model.UserFromDoc(doc), nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	q := docstore.Query{}.
		Where("username", docstore.OpEqual, username).
		WithLimit(1)

	docs, err := r.col.Find(ctx, q)
	if err != nil {
		return model.User{}, err
	}
	if len(docs) == 0 {
		return model.User{}, fmt.Errorf("user %s: %w", username, docstore.ErrNotFound)
	}
	return model.UserFromDoc(docs[0]), nil
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	docs, err := r.col.Find(ctx, docstore.Query{})
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, model.UserFromDoc(doc))
	}
	return users, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	return r.col.Count(ctx, docstore.Query{})
}

// ValidateUser checks basic-auth credentials against the stored bcrypt hash.
func (r *UserRepo) ValidateUser(ctx context.Context, username, password string) (bool, error) {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}
