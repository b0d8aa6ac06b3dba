package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "github.com/171k/ICT602-Laundroyale/internal/db/mocks"
)

type stubProducer struct {
	sent    []string
	sendErr error
}

func (p *stubProducer) SendMessage(_ context.Context, topic string, _, _ []byte) error {
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, topic)
	return nil
}

func (p *stubProducer) Close() error { return nil }

func TestPublisher_ProcessSingleTaskMarksDone(t *testing.T) {
	ctrl := gomock.NewController(t)
	database := mock_database.NewMockDB(ctrl)
	producer := &stubProducer{}
	publisher := NewPublisher(database, NewRepo(database), producer, PublisherConfig{MaxAttempts: 5})

	var gotArgs []interface{}
	database.EXPECT().
		Exec(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, args ...interface{}) (pgconn.CommandTag, error) {
			gotArgs = args
			return pgconn.CommandTag("UPDATE 1"), nil
		})

	task := &Task{
		ID:      uuid.New(),
		Topic:   "laundroyale.events",
		Payload: json.RawMessage(`{"event":"order_created"}`),
	}
	require.NoError(t, publisher.processSingleTask(context.Background(), task))

	assert.Equal(t, []string{"laundroyale.events"}, producer.sent)
	assert.Equal(t, TaskStatusDone, gotArgs[1])
	assert.NotNil(t, gotArgs[4], "completed_at must be set")
}

func TestPublisher_ProcessSingleTaskMarksFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	database := mock_database.NewMockDB(ctrl)
	producer := &stubProducer{sendErr: errors.New("broker unreachable")}
	publisher := NewPublisher(database, NewRepo(database), producer, PublisherConfig{MaxAttempts: 5})

	var gotArgs []interface{}
	database.EXPECT().
		Exec(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, args ...interface{}) (pgconn.CommandTag, error) {
			gotArgs = args
			return pgconn.CommandTag("UPDATE 1"), nil
		})

	task := &Task{ID: uuid.New(), Topic: "laundroyale.events", Attempts: 2}
	err := publisher.processSingleTask(context.Background(), task)
	require.Error(t, err)

	assert.Equal(t, TaskStatusFailed, gotArgs[1])
	assert.Equal(t, 3, gotArgs[2])
	errMsg, ok := gotArgs[3].(*string)
	require.True(t, ok)
	assert.Equal(t, "broker unreachable", *errMsg)
	assert.Empty(t, producer.sent)
}

func TestPublisher_ProcessBatchClaimsTasks(t *testing.T) {
	ctrl := gomock.NewController(t)
	database := mock_database.NewMockDB(ctrl)
	tx := mock_database.NewMockTx(ctrl)
	producer := &stubProducer{}
	publisher := NewPublisher(database, NewRepo(database), producer, PublisherConfig{BatchSize: 10, MaxAttempts: 5})

	task := &Task{ID: uuid.New(), Topic: "laundroyale.events", Payload: json.RawMessage(`{}`)}

	database.EXPECT().BeginTx(gomock.Any()).Return(tx, nil)
	tx.EXPECT().
		Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, dest interface{}, _ string, _ ...interface{}) error {
			*dest.(*[]*Task) = []*Task{task}
			return nil
		})
	tx.EXPECT().
		Exec(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, args ...interface{}) (pgconn.CommandTag, error) {
			assert.Equal(t, TaskStatusProcessing, args[1])
			return pgconn.CommandTag("UPDATE 1"), nil
		})
	tx.EXPECT().Commit(gomock.Any()).Return(nil)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	database.EXPECT().
		Exec(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(pgconn.CommandTag("UPDATE 1"), nil)

	require.NoError(t, publisher.processBatch(context.Background()))
	assert.Equal(t, []string{"laundroyale.events"}, producer.sent)
}
