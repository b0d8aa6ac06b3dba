package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("document not found")

	// ErrPermissionDenied and ErrMissingIndex are the two failure classes
	// callers are allowed to degrade on; everything else is unrecoverable.
	ErrPermissionDenied = errors.New("permission denied")
	ErrMissingIndex     = errors.New("query requires a missing index")
)

type Op string

const (
	OpEqual          Op = "=="
	OpNotEqual       Op = "!="
	OpIn             Op = "in"
	OpGreaterOrEqual Op = ">="
)

type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Query describes a filtered read over one collection. OrderField is applied
// descending when Desc is set; a zero Limit means no limit.
type Query struct {
	Filters    []Filter
	OrderField string
	Desc       bool
	Limit      int
}

func (q Query) Where(field string, op Op, value interface{}) Query {
	q.Filters = append(q.Filters, Filter{Field: field, Op: op, Value: value})
	return q
}

func (q Query) OrderBy(field string, desc bool) Query {
	q.OrderField = field
	q.Desc = desc
	return q
}

func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// Doc is a raw document as stored: generated id plus loosely typed fields.
// Backends are free to return numbers as float64 and timestamps as RFC3339
// strings; the model layer owns coercion.
type Doc struct {
	ID   string
	Data map[string]interface{}
}

type Collection interface {
	Add(ctx context.Context, data map[string]interface{}) (string, error)
	Get(ctx context.Context, id string) (Doc, error)
	// Update merges the given fields into an existing document.
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, q Query) ([]Doc, error)
	Count(ctx context.Context, q Query) (int, error)
}

type Store interface {
	Collection(name string) Collection
}

func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

func IsMissingIndex(err error) bool {
	return errors.Is(err, ErrMissingIndex)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
