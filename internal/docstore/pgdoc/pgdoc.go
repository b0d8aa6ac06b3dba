// Package pgdoc backs the document store contract with PostgreSQL: one JSONB
// table per collection, filters compiled onto the data column.
package pgdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/171k/ICT602-Laundroyale/internal/db"
	"github.com/171k/ICT602-Laundroyale/internal/docstore"
)

const pgCodeInsufficientPrivilege = "42501"

type Store struct {
	db db.DB
}

func New(database db.DB) *Store {
	return &Store{db: database}
}

func (s *Store) Collection(name string) docstore.Collection {
	return &collection{db: s.db, name: name}
}

type collection struct {
	db   db.DB
	name string
}

type docRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

func (c *collection) Add(ctx context.Context, data map[string]interface{}) (string, error) {
	payload, err := json.Marshal(docstore.NormalizeData(data))
	if err != nil {
		return "", fmt.Errorf("failed to encode document for %s: %w", c.name, err)
	}

	var id string
	query := fmt.Sprintf("INSERT INTO %s (id, data) VALUES (gen_random_uuid()::text, $1) RETURNING id", c.name)
	if err := c.db.ExecQueryRow(ctx, query, payload).Scan(&id); err != nil {
		return "", classify(c.name, err)
	}
	return id, nil
}

func (c *collection) Get(ctx context.Context, id string) (docstore.Doc, error) {
	var row docRow
	query := fmt.Sprintf("SELECT id, data FROM %s WHERE id = $1", c.name)
	if err := c.db.Get(ctx, &row, query, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return docstore.Doc{}, fmt.Errorf("collection %s id %s: %w", c.name, id, docstore.ErrNotFound)
		}
		return docstore.Doc{}, classify(c.name, err)
	}
	return decodeRow(c.name, row)
}

func (c *collection) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	payload, err := json.Marshal(docstore.NormalizeData(fields))
	if err != nil {
		return fmt.Errorf("failed to encode update for %s: %w", c.name, err)
	}

	query := fmt.Sprintf("UPDATE %s SET data = data || $2 WHERE id = $1", c.name)
	tag, err := c.db.Exec(ctx, query, id, payload)
	if err != nil {
		return classify(c.name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("collection %s id %s: %w", c.name, id, docstore.ErrNotFound)
	}
	return nil
}

func (c *collection) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", c.name)
	tag, err := c.db.Exec(ctx, query, id)
	if err != nil {
		return classify(c.name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("collection %s id %s: %w", c.name, id, docstore.ErrNotFound)
	}
	return nil
}

func (c *collection) Find(ctx context.Context, q docstore.Query) ([]docstore.Doc, error) {
	where, args := compileFilters(q.Filters)

	query := fmt.Sprintf("SELECT id, data FROM %s", c.name)
	if where != "" {
		query += " WHERE " + where
	}
	if q.OrderField != "" {
		direction := "ASC"
		if q.Desc {
			direction = "DESC"
		}
		args = append(args, q.OrderField)
		query += fmt.Sprintf(" ORDER BY data->>$%d %s NULLS LAST", len(args), direction)
	} else {
		query += " ORDER BY id"
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []docRow
	if err := c.db.Select(ctx, &rows, query, args...); err != nil {
		return nil, classify(c.name, err)
	}

	docs := make([]docstore.Doc, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(c.name, row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *collection) Count(ctx context.Context, q docstore.Query) (int, error) {
	where, args := compileFilters(q.Filters)

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.name)
	if where != "" {
		query += " WHERE " + where
	}

	var count int
	if err := c.db.ExecQueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, classify(c.name, err)
	}
	return count, nil
}

func compileFilters(filters []docstore.Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	place := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, f := range filters {
		field := place(f.Field)
		switch f.Op {
		case docstore.OpEqual:
			switch v := f.Value.(type) {
			case bool:
				clauses = append(clauses, fmt.Sprintf("(data->>%s)::boolean = %s", field, place(v)))
			case float64, int:
				clauses = append(clauses, fmt.Sprintf("(data->>%s)::numeric = %s", field, place(v)))
			default:
				clauses = append(clauses, fmt.Sprintf("data->>%s = %s", field, place(fmt.Sprintf("%v", v))))
			}
		case docstore.OpNotEqual:
			// The field must exist for the row to qualify, matching the
			// in-memory backend.
			clauses = append(clauses, fmt.Sprintf(
				"jsonb_exists(data, %s) AND data->>%s <> %s", field, field, place(fmt.Sprintf("%v", f.Value))))
		case docstore.OpIn:
			clauses = append(clauses, fmt.Sprintf("data->>%s = ANY(%s)", field, place(stringSlice(f.Value))))
		case docstore.OpGreaterOrEqual:
			if t, ok := f.Value.(time.Time); ok {
				clauses = append(clauses, fmt.Sprintf("(data->>%s)::timestamptz >= %s", field, place(t)))
			} else {
				clauses = append(clauses, fmt.Sprintf("(data->>%s)::numeric >= %s", field, place(f.Value)))
			}
		}
	}
	return strings.Join(clauses, " AND "), args
}

func stringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

func decodeRow(name string, row docRow) (docstore.Doc, error) {
	data := make(map[string]interface{})
	if err := json.Unmarshal(row.Data, &data); err != nil {
		return docstore.Doc{}, fmt.Errorf("failed to decode document %s/%s: %w", name, row.ID, err)
	}
	return docstore.Doc{ID: row.ID, Data: data}, nil
}

func classify(name string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgCodeInsufficientPrivilege {
		return fmt.Errorf("collection %s: %w", name, docstore.ErrPermissionDenied)
	}
	return fmt.Errorf("collection %s: %w", name, err)
}
