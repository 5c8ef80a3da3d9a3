package stats_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crombie/crombieversario/internal/stats"
	"github.com/crombie/crombieversario/internal/store"
)

type sourceMock struct{ mock.Mock }

func (m *sourceMock) ListSentBetween(ctx context.Context, from, to time.Time) ([]store.SentLog, error) {
	args := m.Called(ctx, from, to)
	logs, _ := args.Get(0).([]store.SentLog)
	return logs, args.Error(1)
}

func (m *sourceMock) FirstSentAt(ctx context.Context) (time.Time, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func sentAt(y int, m time.Month, d int, opened bool) store.SentLog {
	return store.SentLog{SentAt: time.Date(y, m, d, 12, 0, 0, 0, time.UTC), Opened: opened}
}

var now = time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)

func newAggregator(src stats.Source) *stats.Aggregator {
	return stats.New(src, stats.WithClock(func() time.Time { return now }))
}

func TestParseGranularity(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"yearly", "monthly", "week"} {
		g, err := stats.ParseGranularity(s)
		require.NoError(t, err)
		assert.Equal(t, stats.Granularity(s), g)
	}
	_, err := stats.ParseGranularity("daily")
	require.ErrorIs(t, err, stats.ErrGranularity)
}

func TestCompute_MonthlyZeroFills(t *testing.T) {
	t.Parallel()

	src := &sourceMock{}
	src.On("ListSentBetween", mock.Anything,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	).Return([]store.SentLog{
		sentAt(2025, time.February, 3, true),
		sentAt(2025, time.February, 20, false),
		sentAt(2025, time.April, 1, true),
	}, nil)

	res, err := newAggregator(src).Compute(context.Background(), stats.Monthly, 0)
	require.NoError(t, err)
	require.NotNil(t, res.Year)
	assert.Equal(t, 2025, *res.Year)
	require.Len(t, res.Buckets, 12)
	assert.Equal(t, stats.Bucket{Period: "2025-02", Sent: 2, Opened: 1}, res.Buckets[1])
	assert.Equal(t, stats.Bucket{Period: "2025-03", Sent: 0, Opened: 0}, res.Buckets[2])
	assert.Equal(t, stats.Bucket{Period: "2025-04", Sent: 1, Opened: 1}, res.Buckets[3])
	assert.Equal(t, "2025-12", res.Buckets[11].Period)
}

func TestCompute_YearlyFromFirstLog(t *testing.T) {
	t.Parallel()

	src := &sourceMock{}
	src.On("FirstSentAt", mock.Anything).Return(time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC), true, nil)
	src.On("ListSentBetween", mock.Anything,
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	).Return([]store.SentLog{
		sentAt(2022, time.August, 1, true),
		sentAt(2024, time.May, 5, false),
	}, nil)

	res, err := newAggregator(src).Compute(context.Background(), stats.Yearly, 0)
	require.NoError(t, err)
	assert.Nil(t, res.Year)
	assert.Equal(t, []stats.Bucket{
		{Period: "2022", Sent: 1, Opened: 1},
		{Period: "2023"},
		{Period: "2024", Sent: 1},
		{Period: "2025"},
	}, res.Buckets)
}

func TestCompute_YearlyEmptyAndFiltered(t *testing.T) {
	t.Parallel()

	t.Run("no logs yet", func(t *testing.T) {
		t.Parallel()
		src := &sourceMock{}
		src.On("FirstSentAt", mock.Anything).Return(time.Time{}, false, nil)
		src.On("ListSentBetween", mock.Anything, mock.Anything, mock.Anything).Return([]store.SentLog(nil), nil)

		res, err := newAggregator(src).Compute(context.Background(), stats.Yearly, 0)
		require.NoError(t, err)
		assert.Equal(t, []stats.Bucket{{Period: "2025"}}, res.Buckets)
	})

	t.Run("year filter", func(t *testing.T) {
		t.Parallel()
		src := &sourceMock{}
		src.On("ListSentBetween", mock.Anything,
			time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		).Return([]store.SentLog{sentAt(2023, time.March, 3, true)}, nil)

		res, err := newAggregator(src).Compute(context.Background(), stats.Yearly, 2023)
		require.NoError(t, err)
		require.NotNil(t, res.Year)
		assert.Equal(t, []stats.Bucket{{Period: "2023", Sent: 1, Opened: 1}}, res.Buckets)
		src.AssertNotCalled(t, "FirstSentAt", mock.Anything)
	})
}

func TestCompute_ISOWeeks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to time.Time
		year     int
		weeks    int
	}{
		// 2020 starts on a Wednesday and has 53 ISO weeks.
		{year: 2020, weeks: 53, from: time.Date(2019, 12, 30, 0, 0, 0, 0, time.UTC), to: time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)},
		{year: 2025, weeks: 52, from: time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), to: time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		src := &sourceMock{}
		src.On("ListSentBetween", mock.Anything, tt.from, tt.to).Return([]store.SentLog{
			sentAt(tt.from.Year(), tt.from.Month(), tt.from.Day(), true),
			sentAt(tt.year, time.February, 12, false),
		}, nil)

		res, err := newAggregator(src).Compute(context.Background(), stats.Weekly, tt.year)
		require.NoError(t, err)
		require.Len(t, res.Buckets, tt.weeks)
		assert.Equal(t, stats.Bucket{Period: weekID(tt.year, 1), Sent: 1, Opened: 1}, res.Buckets[0])
		assert.Equal(t, weekID(tt.year, tt.weeks), res.Buckets[tt.weeks-1].Period)

		_, feb := time.Date(tt.year, time.February, 12, 0, 0, 0, 0, time.UTC).ISOWeek()
		assert.Equal(t, 1, res.Buckets[feb-1].Sent)
	}
}

func weekID(year, week int) string {
	return fmt.Sprintf("%d-W%02d", year, week)
}

func TestCompute_UsesLocation(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)

	src := &sourceMock{}
	// 02:00 UTC on 1 March is still 28 February in Buenos Aires.
	src.On("ListSentBetween", mock.Anything, mock.Anything, mock.Anything).Return([]store.SentLog{
		{SentAt: time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC)},
	}, nil)

	res, err := stats.New(src, stats.WithLocation(loc), stats.WithClock(func() time.Time { return now })).
		Compute(context.Background(), stats.Monthly, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Buckets[1].Sent)
	assert.Zero(t, res.Buckets[2].Sent)
}

func TestCompute_Errors(t *testing.T) {
	t.Parallel()

	src := &sourceMock{}
	src.On("ListSentBetween", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := newAggregator(src).Compute(context.Background(), stats.Monthly, 2025)
	require.Error(t, err)

	_, err = newAggregator(src).Compute(context.Background(), stats.Granularity("daily"), 0)
	require.ErrorIs(t, err, stats.ErrGranularity)

	_, err = newAggregator(src).Compute(context.Background(), stats.Monthly, -1)
	require.ErrorIs(t, err, stats.ErrYear)
}
