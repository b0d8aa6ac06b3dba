package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "github.com/171k/ICT602-Laundroyale/internal/db/mocks"
)

func TestRepo_CreateAssignsID(t *testing.T) {
	ctrl := gomock.NewController(t)
	database := mock_database.NewMockDB(ctrl)
	repo := NewRepo(database)

	var gotArgs []interface{}
	database.EXPECT().
		Exec(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, args ...interface{}) (pgconn.CommandTag, error) {
			gotArgs = args
			return pgconn.CommandTag("INSERT 0 1"), nil
		})

	task := &Task{Topic: "laundroyale.events", Payload: json.RawMessage(`{"event":"order_created"}`)}
	require.NoError(t, repo.Create(context.Background(), task))

	assert.NotEqual(t, uuid.Nil, task.ID)
	require.Len(t, gotArgs, 6)
	assert.Equal(t, task.ID, gotArgs[0])
	assert.Equal(t, TaskStatusCreated, gotArgs[1])
	assert.Equal(t, "laundroyale.events", gotArgs[3])
}

func TestRepo_GetProcessableTasks(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewRepo(mock_database.NewMockDB(ctrl))
	tx := mock_database.NewMockTx(ctrl)

	want := &Task{ID: uuid.New(), Status: TaskStatusCreated, Topic: "laundroyale.events"}
	tx.EXPECT().
		Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, dest interface{}, _ string, args ...interface{}) error {
			assert.Equal(t, []interface{}{TaskStatusCreated, TaskStatusFailed, maxFetchAttempts, 10}, args)
			*dest.(*[]*Task) = []*Task{want}
			return nil
		})

	tasks, err := repo.GetProcessableTasks(context.Background(), tx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, want.ID, tasks[0].ID)
}

func TestRepo_UpdateTaskStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	database := mock_database.NewMockDB(ctrl)
	repo := NewRepo(database)

	id := uuid.New()
	completedAt := time.Now().UTC()

	database.EXPECT().
		Exec(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(pgconn.CommandTag("UPDATE 1"), nil)
	require.NoError(t, repo.UpdateTaskStatus(context.Background(), id, TaskStatusDone, 1, nil, &completedAt))

	database.EXPECT().
		Exec(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(pgconn.CommandTag("UPDATE 0"), nil)
	err := repo.UpdateTaskStatus(context.Background(), id, TaskStatusDone, 1, nil, &completedAt)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRepo_UpdateTaskStatusTx(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewRepo(mock_database.NewMockDB(ctrl))
	tx := mock_database.NewMockTx(ctrl)

	errMsg := "broker unreachable"
	tx.EXPECT().
		Exec(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, args ...interface{}) (pgconn.CommandTag, error) {
			assert.Equal(t, TaskStatusFailed, args[1])
			assert.Equal(t, 3, args[2])
			assert.Equal(t, &errMsg, args[3])
			return pgconn.CommandTag("UPDATE 1"), nil
		})

	err := repo.UpdateTaskStatusTx(context.Background(), tx, uuid.New(), TaskStatusFailed, 3, &errMsg, nil)
	require.NoError(t, err)
}
