package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type countingRepo struct {
	machines map[string]model.Machine
	listCnt  int
	getCnt   int
}

func (r *countingRepo) List(_ context.Context, _ string) ([]model.Machine, error) {
	r.listCnt++
	out := make([]model.Machine, 0, len(r.machines))
	for _, m := range r.machines {
		out = append(out, m)
	}
	return out, nil
}

func (r *countingRepo) GetByID(_ context.Context, id string) (model.Machine, error) {
	r.getCnt++
	m, ok := r.machines[id]
	if !ok {
		return model.Machine{}, docstore.ErrNotFound
	}
	return m, nil
}

func TestMachineCache_WarmLoadServesWithoutRepo(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{machines: map[string]model.Machine{
		"m1": {ID: "m1", Name: "Washer 1", Type: model.MachineTypeWasher, Price: 5},
		"m2": {ID: "m2", Name: "Dryer 1", Type: model.MachineTypeDryer, Price: 4},
	}}

	c := NewMachineCache(repo)
	require.NoError(t, c.LoadInitialData(ctx))

	got, err := c.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Washer 1", got.Name)
	assert.Equal(t, 0, repo.getCnt, "warm cache should not hit the repository")
}

func TestMachineCache_MissFallsThroughAndPopulates(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{machines: map[string]model.Machine{
		"m1": {ID: "m1", Name: "Washer 1", Type: model.MachineTypeWasher, Price: 5},
	}}

	c := NewMachineCache(repo)

	_, err := c.GetByID(ctx, "m1")
	require.NoError(t, err)
	_, err = c.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.getCnt, "second read should be a cache hit")

	_, err = c.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestMachineCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{machines: map[string]model.Machine{
		"m1": {ID: "m1", Name: "Washer 1", Type: model.MachineTypeWasher, Price: 5},
	}}

	c := NewMachineCache(repo)
	require.NoError(t, c.LoadInitialData(ctx))

	repo.machines["m1"] = model.Machine{ID: "m1", Name: "Washer 1", Type: model.MachineTypeWasher, Price: 7}
	c.Invalidate("m1")

	got, err := c.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.Price)
	assert.Equal(t, 1, repo.getCnt)

	// Invalidating an unknown id is a no-op.
	c.Invalidate("missing")
}
