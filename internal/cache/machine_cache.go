package cache

import (
	"context"
	"log"
	"sync"

	"github.com/171k/ICT602-Laundroyale/internal/metrics"
	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type MachineRepository interface {
	List(ctx context.Context, machineType string) ([]model.Machine, error)
	GetByID(ctx context.Context, id string) (model.Machine, error)
}

// MachineCache fronts machine reads for the booking path. The catalog is
// small and read-mostly; misses fall through to the repository and populate
// the cache.
type MachineCache struct {
	mu    sync.RWMutex
	cache map[string]model.Machine
	repo  MachineRepository
}

func NewMachineCache(repo MachineRepository) *MachineCache {
	return &MachineCache{
		cache: make(map[string]model.Machine),
		repo:  repo,
	}
}

func (c *MachineCache) LoadInitialData(ctx context.Context) error {
	log.Println("Loading machine catalog into cache...")
	machines, err := c.repo.List(ctx, "")
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, machine := range machines {
		c.cache[machine.ID] = machine
	}
	metrics.MachineCacheItems.Set(float64(len(c.cache)))
	log.Printf("Loaded %d machines into cache.", len(c.cache))
	return nil
}

func (c *MachineCache) GetByID(ctx context.Context, id string) (model.Machine, error) {
	c.mu.RLock()
	machine, found := c.cache[id]
	c.mu.RUnlock()
	if found {
		return machine, nil
	}

	machine, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return model.Machine{}, err
	}
	c.Set(machine)
	return machine, nil
}

func (c *MachineCache) Set(machine model.Machine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[machine.ID] = machine
	metrics.MachineCacheItems.Set(float64(len(c.cache)))
}

// Invalidate drops a machine after a catalog mutation.
func (c *MachineCache) Invalidate(machineID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.cache[machineID]; found {
		delete(c.cache, machineID)
		metrics.MachineCacheItems.Set(float64(len(c.cache)))
	}
}
