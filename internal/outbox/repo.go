package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/171k/ICT602-Laundroyale/internal/db"
)

var ErrTaskNotFound = errors.New("outbox task not found")

const maxFetchAttempts = 5

type Repo struct {
	database db.DB
}

func NewRepo(database db.DB) *Repo {
	return &Repo{database: database}
}

func (r *Repo) Create(ctx context.Context, task *Task) error {
	query := `
        INSERT INTO outbox_tasks (id, status, payload, topic, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	now := time.Now().UTC()
	_, err := r.database.Exec(ctx, query,
		task.ID,
		TaskStatusCreated,
		task.Payload,
		task.Topic,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox task: %w", err)
	}
	return nil
}

// GetProcessableTasks fetches tasks ready to publish: fresh ones plus failed
// ones still under the retry limit. Rows are locked so concurrent publishers
// do not pick up the same batch.
func (r *Repo) GetProcessableTasks(ctx context.Context, tx db.Tx, limit int) ([]*Task, error) {
	query := `
        SELECT id, status, payload, topic, attempts, last_error, created_at, updated_at, completed_at
        FROM outbox_tasks
        WHERE status = $1 OR (status = $2 AND attempts < $3)
        ORDER BY updated_at ASC
        LIMIT $4
        FOR UPDATE SKIP LOCKED
    `
	var tasks []*Task
	err := tx.Select(ctx, &tasks, query, TaskStatusCreated, TaskStatusFailed, maxFetchAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get processable outbox tasks: %w", err)
	}
	return tasks, nil
}

func (r *Repo) UpdateTaskStatusTx(ctx context.Context, tx db.Tx, id uuid.UUID, status TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	cmdTag, err := tx.Exec(ctx, updateStatusQuery, id, status, attempts, lastError, completedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update outbox task %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *Repo) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	cmdTag, err := r.database.Exec(ctx, updateStatusQuery, id, status, attempts, lastError, completedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update outbox task %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

const updateStatusQuery = `
    UPDATE outbox_tasks
    SET
        status = $2,
        attempts = $3,
        last_error = $4,
        completed_at = $5,
        updated_at = $6
    WHERE id = $1
`
