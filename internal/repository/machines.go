package repository

import (
	"context"
	"fmt"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type MachineRepo struct {
	col docstore.Collection
}

func NewMachineRepo(store docstore.Store) *MachineRepo {
	return &MachineRepo{col: store.Collection(collectionMachines)}
}

// List returns the catalog, optionally filtered by machine type. A
// permission-denied read degrades to an empty catalog.
func (r *MachineRepo) List(ctx context.Context, machineType string) ([]model.Machine, error) {
	q := docstore.Query{}
	if machineType != "" {
		q = q.Where("type", docstore.OpEqual, machineType)
	}

	docs, err := findDegraded(ctx, r.col, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}

	machines := make([]model.Machine, 0, len(docs))
	for _, doc := range docs {
		machines = append(machines, model.MachineFromDoc(doc))
	}
	return machines, nil
}

func (r *MachineRepo) GetByID(ctx context.Context, id string) (model.Machine, error) {
	doc, err := r.col.Get(ctx, id)
	if err != nil {
		return model.Machine{}, err
	}
	return model.MachineFromDoc(doc), nil
}

func (r *MachineRepo) Create(ctx context.Context, machine model.Machine) (string, error) {
	return r.col.Add(ctx, machine.Data())
}

func (r *MachineRepo) Update(ctx context.Context, id string, machine model.Machine) error {
	return r.col.Update(ctx, id, machine.Data())
}

func (r *MachineRepo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func (r *MachineRepo) CountByType(ctx context.Context, machineType string) (int, error) {
	q := docstore.Query{}
	if machineType != "" {
		q = q.Where("type", docstore.OpEqual, machineType)
	}
	return r.col.Count(ctx, q)
}
