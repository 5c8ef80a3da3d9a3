package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crombie/crombieversario/internal/dispatch"
	"github.com/crombie/crombieversario/internal/tasks"
	"github.com/crombie/crombieversario/pkg/job"
)

type runnerMock struct {
	mock.Mock
	dryRuns []bool
}

func (m *runnerMock) Run(ctx context.Context, today time.Time, opts ...dispatch.RunOption) (*dispatch.Report, error) {
	args := m.Called(ctx, today)
	m.dryRuns = append(m.dryRuns, len(opts) > 0)
	report, _ := args.Get(0).(*dispatch.Report)
	return report, args.Error(1)
}

func TestDaily(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)
	now := time.Date(2025, 7, 14, 9, 0, 0, 0, loc)

	r := &runnerMock{}
	r.On("Run", mock.Anything, now).Return(&dispatch.Report{Date: now, Sent: 2}, nil).Once()

	task := tasks.NewDaily(r, "CRON_TZ=America/Argentina/Buenos_Aires 0 9 * * *", func() time.Time { return now }, nil)
	assert.Equal(t, tasks.DailyTaskName, task.Name())
	assert.Equal(t, "CRON_TZ=America/Argentina/Buenos_Aires 0 9 * * *", task.Schedule())
	assert.Positive(t, task.UniqueFor())

	require.NoError(t, task.Handle(context.Background()))
	assert.Equal(t, []bool{false}, r.dryRuns)
	r.AssertExpectations(t)
}

func TestDaily_Abort(t *testing.T) {
	t.Parallel()

	boom := errors.New("directory unreachable")
	r := &runnerMock{}
	r.On("Run", mock.Anything, mock.Anything).Return(nil, boom)

	task := tasks.NewDaily(r, "0 9 * * *", nil, nil)
	require.ErrorIs(t, task.Handle(context.Background()), boom)
}

func TestBatch_Handle(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)

	t.Run("runs payload date", func(t *testing.T) {
		t.Parallel()
		day := time.Date(2025, 7, 14, 0, 0, 0, 0, loc)
		r := &runnerMock{}
		r.On("Run", mock.Anything, day).Return(&dispatch.Report{Date: day, DryRun: true}, nil).Once()

		task := tasks.NewBatch(r, loc, nil)
		require.NoError(t, task.Handle(context.Background(), tasks.BatchPayload{Date: "2025-07-14", DryRun: true}))
		r.AssertExpectations(t)
	})

	t.Run("invalid date is dropped", func(t *testing.T) {
		t.Parallel()
		r := &runnerMock{}
		task := tasks.NewBatch(r, loc, nil)
		require.NoError(t, task.Handle(context.Background(), tasks.BatchPayload{Date: "mañana"}))
		r.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})

	t.Run("abort is returned", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("db down")
		r := &runnerMock{}
		r.On("Run", mock.Anything, mock.Anything).Return(nil, boom)
		task := tasks.NewBatch(r, loc, nil)
		require.ErrorIs(t, task.Handle(context.Background(), tasks.BatchPayload{Date: "2025-07-14"}), boom)
	})
}

type enqueuerMock struct {
	mock.Mock
}

func (m *enqueuerMock) Enqueue(ctx context.Context, name string, payload any, opts ...job.EnqueueOption) (bool, error) {
	args := m.Called(ctx, name, payload, len(opts))
	return args.Bool(0), args.Error(1)
}

func TestQueue_EnqueueBatch(t *testing.T) {
	t.Parallel()

	jobs := &enqueuerMock{}
	jobs.On("Enqueue", mock.Anything, tasks.BatchTaskName,
		tasks.BatchPayload{Date: "2025-07-14", DryRun: true}, 3).Return(true, nil).Once()

	q := tasks.NewQueue(jobs, time.Minute)
	ok, err := q.EnqueueBatch(context.Background(), time.Date(2025, 7, 14, 15, 30, 0, 0, time.UTC), true)
	require.NoError(t, err)
	assert.True(t, ok)
	jobs.AssertExpectations(t)

	_, err = q.EnqueueBatch(context.Background(), time.Time{}, false)
	require.ErrorIs(t, err, tasks.ErrInvalidDate)
}
