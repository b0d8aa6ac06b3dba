package outbox

import (
	"context"
	"encoding/json"
	"fmt"
)

type taskCreator interface {
	Create(ctx context.Context, task *Task) error
}

// Queue is the write side of the outbox: it marshals a payload and stores it
// as a CREATED task in the same database as the domain data. The publisher
// delivers it later.
type Queue struct {
	repo taskCreator
}

func NewQueue(repo taskCreator) *Queue {
	return &Queue{repo: repo}
}

func (q *Queue) Enqueue(ctx context.Context, topic string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}
	return q.repo.Create(ctx, &Task{Topic: topic, Payload: raw})
}
