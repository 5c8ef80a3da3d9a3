package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchPayload struct {
	Date   string `json:"date"`
	DryRun bool   `json:"dry_run"`
}

type recordingTask struct {
	got  batchPayload
	err  error
	runs int
}

func (t *recordingTask) Name() string { return "record" }

func (t *recordingTask) Handle(_ context.Context, p batchPayload) error {
	t.runs++
	t.got = p
	return t.err
}

type dailyTask struct{ expr string }

func (t dailyTask) Name() string                 { return "daily" }
func (t dailyTask) Schedule() string             { return t.expr }
func (t dailyTask) Handle(context.Context) error { return nil }

type uniqueDailyTask struct{ dailyTask }

func (uniqueDailyTask) UniqueFor() time.Duration { return 20 * time.Hour }

func TestTyped_Execute(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("decodes payload", func(t *testing.T) {
		t.Parallel()
		task := &recordingTask{}
		e := typed[batchPayload, *recordingTask]{task: task}
		require.NoError(t, e.Execute(ctx, json.RawMessage(`{"date":"2025-03-10","dry_run":true}`)))
		assert.Equal(t, batchPayload{Date: "2025-03-10", DryRun: true}, task.got)
	})

	t.Run("empty payload uses zero value", func(t *testing.T) {
		t.Parallel()
		task := &recordingTask{}
		e := typed[batchPayload, *recordingTask]{task: task}
		require.NoError(t, e.Execute(ctx, nil))
		require.NoError(t, e.Execute(ctx, json.RawMessage("null")))
		assert.Equal(t, 2, task.runs)
		assert.Equal(t, batchPayload{}, task.got)
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()
		task := &recordingTask{}
		e := typed[batchPayload, *recordingTask]{task: task}
		err := e.Execute(ctx, json.RawMessage(`{"date":`))
		require.ErrorIs(t, err, ErrInvalidPayload)
		assert.Zero(t, task.runs)
	})

	t.Run("handler error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		e := typed[batchPayload, *recordingTask]{task: &recordingTask{err: boom}}
		require.ErrorIs(t, e.Execute(ctx, nil), boom)
	})
}

func TestScheduled_IgnoresPayload(t *testing.T) {
	t.Parallel()

	called := false
	e := scheduled(func(context.Context) error { called = true; return nil })
	require.NoError(t, e.Execute(context.Background(), json.RawMessage(`{"ignored":1}`)))
	assert.True(t, called)
}

func TestOptions_Register(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	WithTask[batchPayload](&recordingTask{})(cfg)
	WithScheduledTask(dailyTask{expr: "0 9 * * *"})(cfg)
	WithQueue("mail", 4)(cfg)
	WithQueue("ignored", 0)(cfg)
	WithMaxWorkers(3)(cfg)
	WithLogger(nil)(cfg)

	_, ok := cfg.registry.get("record")
	assert.True(t, ok)
	require.Len(t, cfg.schedules, 1)
	assert.Equal(t, "0 9 * * *", cfg.schedules[0].expr)
	assert.Equal(t, map[string]int{"mail": 4}, cfg.queues)
	assert.Equal(t, 3, cfg.maxWorkers)
	assert.NotNil(t, cfg.logger)
}

func TestWithScheduledTask_UniqueFor(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	WithScheduledTask(dailyTask{expr: "0 9 * * *"})(cfg)
	WithScheduledTask(uniqueDailyTask{dailyTask{expr: "0 9 * * *"}})(cfg)
	require.Len(t, cfg.schedules, 2)
	assert.Zero(t, cfg.schedules[0].uniqueFor)
	assert.Equal(t, 20*time.Hour, cfg.schedules[1].uniqueFor)
}

func TestRegistry_Names(t *testing.T) {
	t.Parallel()

	r := newRegistry()
	assert.Empty(t, r.names())
	r.register("b", scheduled(nil))
	r.register("a", scheduled(nil))
	assert.Equal(t, []string{"a", "b"}, r.names())
}

func TestParseCronSchedule(t *testing.T) {
	t.Parallel()

	s, err := parseCronSchedule("0 9 * * *")
	require.NoError(t, err)
	from := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), s.Next(from))

	s, err = parseCronSchedule("CRON_TZ=America/Argentina/Buenos_Aires 0 9 * * *")
	require.NoError(t, err)
	next := s.Next(from)
	assert.Equal(t, 12, next.UTC().Hour())

	_, err = parseCronSchedule("every morning")
	require.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestBuildJobArgs(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	args, opts, err := buildJobArgs("record", batchPayload{Date: "2025-03-10"},
		InQueue("mail"), ScheduledAt(at), MaxAttempts(2), Priority(2), Tags("manual"), UniqueFor(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, "record", args.TaskName)
	assert.JSONEq(t, `{"date":"2025-03-10","dry_run":false}`, string(args.Payload))
	assert.Equal(t, "crombieversario:task", args.Kind())
	assert.Equal(t, "mail", opts.Queue)
	assert.Equal(t, at, opts.ScheduledAt)
	assert.Equal(t, 2, opts.MaxAttempts)
	assert.Equal(t, 2, opts.Priority)
	assert.Equal(t, []string{"manual"}, opts.Tags)
	assert.True(t, opts.UniqueOpts.ByArgs)
	assert.Equal(t, time.Minute, opts.UniqueOpts.ByPeriod)

	_, _, err = buildJobArgs("record", make(chan int))
	require.Error(t, err)
}

func TestNewManager_NilPool(t *testing.T) {
	t.Parallel()
	_, err := NewManager(nil)
	require.ErrorIs(t, err, ErrPoolRequired)
	require.ErrorIs(t, Migrate(context.Background(), nil, nil), ErrPoolRequired)
}

func TestHealthcheck_NotStarted(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, Healthcheck(nil)(context.Background()), ErrHealthcheckFailed)
	err := Healthcheck(&Manager{})(context.Background())
	require.ErrorIs(t, err, ErrNotStarted)
}
