package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore keeps collections in process memory, optionally snapshotted to a
// JSON file after every mutation. Ordered queries that combine a filter with
// ordering on a different field only succeed when a matching composite index
// has been registered, so callers exercise the same fallback path a hosted
// document store forces on them.
type MemStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
	indexes     map[string]bool
	denyReads   map[string]bool
	snapshot    string
}

func NewMemStore() *MemStore {
	return &MemStore{
		collections: make(map[string]map[string]map[string]interface{}),
		indexes:     make(map[string]bool),
		denyReads:   make(map[string]bool),
	}
}

// NewMemStoreWithSnapshot loads an existing snapshot file if present and
// persists every mutation back to it.
func NewMemStoreWithSnapshot(path string) (*MemStore, error) {
	s := NewMemStore()
	s.snapshot = path

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.collections); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return s, nil
}

// RegisterIndex declares a composite index for ordered queries on the
// collection: filter fields plus the order field.
func (s *MemStore) RegisterIndex(collection, orderField string, filterFields ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[indexKey(collection, orderField, filterFields)] = true
}

// DenyReads makes every read on the collection fail with ErrPermissionDenied
// until allowed again. Writes are unaffected.
func (s *MemStore) DenyReads(collection string, deny bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denyReads[collection] = deny
}

func (s *MemStore) Collection(name string) Collection {
	return &memCollection{store: s, name: name}
}

func (s *MemStore) persistLocked() {
	if s.snapshot == "" {
		return
	}
	raw, err := json.MarshalIndent(s.collections, "", "  ")
	if err != nil {
		log.Printf("ERROR: failed to marshal snapshot: %v", err)
		return
	}
	if err := os.WriteFile(s.snapshot, raw, 0644); err != nil {
		log.Printf("ERROR: failed to write snapshot %s: %v", s.snapshot, err)
	}
}

func indexKey(collection, orderField string, filterFields []string) string {
	fields := append([]string(nil), filterFields...)
	sort.Strings(fields)
	return collection + "(" + strings.Join(fields, ",") + ")/" + orderField
}

type memCollection struct {
	store *MemStore
	name  string
}

func (c *memCollection) Add(ctx context.Context, data map[string]interface{}) (string, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs, ok := c.store.collections[c.name]
	if !ok {
		docs = make(map[string]map[string]interface{})
		c.store.collections[c.name] = docs
	}

	id := uuid.NewString()
	docs[id] = NormalizeData(data)
	c.store.persistLocked()
	return id, nil
}

func (c *memCollection) Get(ctx context.Context, id string) (Doc, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	if c.store.denyReads[c.name] {
		return Doc{}, fmt.Errorf("collection %s: %w", c.name, ErrPermissionDenied)
	}

	data, ok := c.store.collections[c.name][id]
	if !ok {
		return Doc{}, fmt.Errorf("collection %s id %s: %w", c.name, id, ErrNotFound)
	}
	return Doc{ID: id, Data: copyData(data)}, nil
}

func (c *memCollection) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	data, ok := c.store.collections[c.name][id]
	if !ok {
		return fmt.Errorf("collection %s id %s: %w", c.name, id, ErrNotFound)
	}
	for k, v := range NormalizeData(fields) {
		data[k] = v
	}
	c.store.persistLocked()
	return nil
}

func (c *memCollection) Delete(ctx context.Context, id string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if _, ok := c.store.collections[c.name][id]; !ok {
		return fmt.Errorf("collection %s id %s: %w", c.name, id, ErrNotFound)
	}
	delete(c.store.collections[c.name], id)
	c.store.persistLocked()
	return nil
}

func (c *memCollection) Find(ctx context.Context, q Query) ([]Doc, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	if c.store.denyReads[c.name] {
		return nil, fmt.Errorf("collection %s: %w", c.name, ErrPermissionDenied)
	}

	if q.OrderField != "" && len(q.Filters) > 0 && !c.coveredByFilters(q) {
		fields := make([]string, 0, len(q.Filters))
		for _, f := range q.Filters {
			fields = append(fields, f.Field)
		}
		if !c.store.indexes[indexKey(c.name, q.OrderField, fields)] {
			return nil, fmt.Errorf("collection %s order by %s: %w", c.name, q.OrderField, ErrMissingIndex)
		}
	}

	var out []Doc
	for id, data := range c.store.collections[c.name] {
		if matchesAll(data, q.Filters) {
			out = append(out, Doc{ID: id, Data: copyData(data)})
		}
	}

	if q.OrderField != "" {
		sortDocs(out, q.OrderField, q.Desc)
	} else {
		// Map iteration order is random; keep results stable for callers.
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (c *memCollection) Count(ctx context.Context, q Query) (int, error) {
	q.OrderField = ""
	q.Limit = 0
	docs, err := c.Find(ctx, q)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (c *memCollection) coveredByFilters(q Query) bool {
	for _, f := range q.Filters {
		if f.Field == q.OrderField {
			return true
		}
	}
	return false
}

func matchesAll(data map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		if !matches(data[f.Field], f) {
			return false
		}
	}
	return true
}

func matches(value interface{}, f Filter) bool {
	switch f.Op {
	case OpEqual:
		return equalValues(value, f.Value)
	case OpNotEqual:
		// Absent fields do not satisfy inequality filters either, matching
		// hosted document store semantics.
		return value != nil && !equalValues(value, f.Value)
	case OpIn:
		for _, candidate := range toSlice(f.Value) {
			if equalValues(value, candidate) {
				return true
			}
		}
		return false
	case OpGreaterOrEqual:
		return compareValues(value, f.Value) >= 0
	default:
		return false
	}
}

func toSlice(v interface{}) []interface{} {
	switch vv := v.(type) {
	case []interface{}:
		return vv
	case []string:
		out := make([]interface{}, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	default:
		return []interface{}{v}
	}
}

func equalValues(a, b interface{}) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return normalizeValue(a) == normalizeValue(b)
}

// compareValues returns -1/0/1, or -2 when either side is missing or the
// values are not comparable.
func compareValues(a, b interface{}) int {
	if a == nil || b == nil {
		return -2
	}
	if at, aok := toTime(a); aok {
		bt, bok := toTime(b)
		if !bok {
			return -2
		}
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		default:
			return 0
		}
	}
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return -2
		}
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}
	return -2
}

// SortDocsByField orders docs descending (or ascending) by a field, with
// documents missing the field sorted last. Exported for the client-side
// fallback that runs after a missing-index failure.
func SortDocsByField(docs []Doc, field string, desc bool) {
	sortDocs(docs, field, desc)
}

func sortDocs(docs []Doc, field string, desc bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].Data[field], docs[j].Data[field]
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		cmp := compareValues(a, b)
		if cmp == -2 {
			return false
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

// NormalizeData mirrors what a JSON round trip through a remote store would
// do: timestamps become RFC3339 strings and integers become float64, so both
// backends hand identical shapes to the model layer.
func NormalizeData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case time.Time:
		return vv.UTC().Format(time.RFC3339Nano)
	case int:
		return float64(vv)
	case int32:
		return float64(vv)
	case int64:
		return float64(vv)
	case float32:
		return float64(vv)
	default:
		return v
	}
}

func copyData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
