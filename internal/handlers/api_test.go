package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crombie/crombieversario/internal/auth"
	"github.com/crombie/crombieversario/internal/directory"
	"github.com/crombie/crombieversario/internal/handlers"
	"github.com/crombie/crombieversario/internal/stats"
	"github.com/crombie/crombieversario/internal/store"
	"github.com/crombie/crombieversario/internal/tracking"
)

type queueMock struct {
	mock.Mock
}

func (m *queueMock) EnqueueBatch(ctx context.Context, date time.Time, dryRun bool) (bool, error) {
	args := m.Called(ctx, date, dryRun)
	return args.Bool(0), args.Error(1)
}

func TestBatch(t *testing.T) {
	t.Parallel()

	t.Run("defaults to today", func(t *testing.T) {
		t.Parallel()
		q := &queueMock{}
		q.On("EnqueueBatch", mock.Anything, fixedNow, false).Return(true, nil).Once()
		app := newApp(handlers.NewBatch(q, today, apiKey()))

		rec := serve(t, app, jsonRequest(http.MethodPost, "/api/run-batch", ""))
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"date":"2025-07-10","dryRun":false,"enqueued":true}`, rec.Body.String())
		q.AssertExpectations(t)
	})

	t.Run("explicit date and dry run", func(t *testing.T) {
		t.Parallel()
		q := &queueMock{}
		want := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)
		q.On("EnqueueBatch", mock.Anything, want, true).Return(false, nil).Once()
		app := newApp(handlers.NewBatch(q, today, apiKey()))

		rec := serve(t, app, jsonRequest(http.MethodPost, "/api/run-batch?date=2025-07-14&dryRun=true", ""))
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"date":"2025-07-14","dryRun":true,"enqueued":false}`, rec.Body.String())
	})

	t.Run("invalid date", func(t *testing.T) {
		t.Parallel()
		q := &queueMock{}
		app := newApp(handlers.NewBatch(q, today, apiKey()))

		rec := serve(t, app, jsonRequest(http.MethodPost, "/api/run-batch?date=14/07/2025", ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		q.AssertNotCalled(t, "EnqueueBatch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid dry run flag", func(t *testing.T) {
		t.Parallel()
		q := &queueMock{}
		app := newApp(handlers.NewBatch(q, today, apiKey()))

		rec := serve(t, app, jsonRequest(http.MethodPost, "/api/run-batch?dryRun=maybe", ""))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_dryRun", decodeError(t, rec).Error.Code)
		q.AssertNotCalled(t, "EnqueueBatch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("queue down", func(t *testing.T) {
		t.Parallel()
		q := &queueMock{}
		q.On("EnqueueBatch", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("pool closed"))
		app := newApp(handlers.NewBatch(q, today, apiKey()))

		rec := serve(t, app, jsonRequest(http.MethodPost, "/api/run-batch", ""))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

type openerMock struct {
	mock.Mock
}

func (m *openerMock) Open(ctx context.Context, email, number string) (bool, error) {
	args := m.Called(ctx, email, number)
	return args.Bool(0), args.Error(1)
}

func TestTracking_AlwaysServesPixel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		target    string
		first     bool
		err       error
		wantOpens []bool
	}{
		{name: "first open", target: "/track/ana@crombie.dev/2", first: true, wantOpens: []bool{true}},
		{name: "repeat open", target: "/track/ana@crombie.dev/2", wantOpens: []bool{false}},
		{name: "malformed", target: "/track/nobody/x", err: tracking.ErrMalformed},
		{name: "store error", target: "/track/ana@crombie.dev/2", err: errors.New("db down")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			o := &openerMock{}
			o.On("Open", mock.Anything, mock.Anything, mock.Anything).Return(tc.first, tc.err).Once()

			var opens []bool
			app := newApp(handlers.NewTracking(o, func(first bool) { opens = append(opens, first) }))
			rec := serve(t, app, request{method: http.MethodGet, target: tc.target})

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tracking.ContentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
			assert.Equal(t, tracking.Pixel(), rec.Body.Bytes())
			assert.Equal(t, tc.wantOpens, opens)
		})
	}
}

func TestTracking_PassesPathValues(t *testing.T) {
	t.Parallel()

	o := &openerMock{}
	o.On("Open", mock.Anything, "ana@crombie.dev", "3").Return(true, nil).Once()
	app := newApp(handlers.NewTracking(o, nil))

	rec := serve(t, app, request{method: http.MethodGet, target: "/track/ana@crombie.dev/3"})
	assert.Equal(t, http.StatusOK, rec.Code)
	o.AssertExpectations(t)
}

type statsMock struct {
	mock.Mock
}

func (m *statsMock) Compute(ctx context.Context, g stats.Granularity, year int) (*stats.Result, error) {
	args := m.Called(ctx, g, year)
	res, _ := args.Get(0).(*stats.Result)
	return res, args.Error(1)
}

func TestStats_EmailStats(t *testing.T) {
	t.Parallel()

	year := 2025
	sm := &statsMock{}
	sm.On("Compute", mock.Anything, stats.Monthly, 2025).Return(&stats.Result{
		Year:        &year,
		Granularity: stats.Monthly,
		Buckets:     []stats.Bucket{{Period: "2025-01", Sent: 2, Opened: 1}},
	}, nil).Once()
	sm.On("Compute", mock.Anything, stats.Yearly, 0).Return(&stats.Result{Granularity: stats.Yearly, Buckets: []stats.Bucket{}}, nil).Once()
	sm.On("Compute", mock.Anything, stats.Weekly, 99999).Return(nil, stats.ErrYear).Once()
	app := newApp(handlers.NewStats(sm, &storeMock{}, nil))

	rec := serve(t, app, request{method: http.MethodGet, target: "/api/email-stats/monthly?year=2025"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"year":2025,"granularity":"monthly","buckets":[{"period":"2025-01","sent":2,"opened":1}]}`, rec.Body.String())

	rec = serve(t, app, request{method: http.MethodGet, target: "/api/email-stats/yearly"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"granularity":"yearly","buckets":[]}`, rec.Body.String())

	rec = serve(t, app, request{method: http.MethodGet, target: "/api/email-stats/week?year=99999"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, app, request{method: http.MethodGet, target: "/api/email-stats/daily"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, app, request{method: http.MethodGet, target: "/api/email-stats/monthly?year=last"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	sm.AssertExpectations(t)
}

func TestStats_FailedEmails(t *testing.T) {
	t.Parallel()

	s := &storeMock{}
	s.On("LatestFailed", mock.Anything, 100).Return(nil, nil).Once()
	s.On("LatestFailed", mock.Anything, 1000).Return([]store.FailedEmail{{EmployeeEmail: "ana@crombie.dev", AnniversaryYear: 2, ErrorMessage: "smtp: 550"}}, nil).Once()
	app := newApp(handlers.NewStats(&statsMock{}, s, nil))

	rec := serve(t, app, request{method: http.MethodGet, target: "/api/failed-emails"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"limit":100}`, rec.Body.String())

	rec = serve(t, app, request{method: http.MethodGet, target: "/api/failed-emails?limit=5000"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"smtp: 550"`)

	rec = serve(t, app, request{method: http.MethodGet, target: "/api/failed-emails?limit=ten"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.AssertExpectations(t)
}

func staticDirectory(employees []directory.Employee, err error) directory.Source {
	return directory.SourceFunc(func(context.Context) ([]directory.Employee, error) {
		return employees, err
	})
}

func TestDirectory_Upcoming(t *testing.T) {
	t.Parallel()

	src := staticDirectory([]directory.Employee{
		{Name: "Ana", Surname: "García", Email: "Ana@Crombie.dev", HireDate: "2023-07-15"},
		{Name: "Pedro", Surname: "López", Email: "pedro@crombie.dev", HireDate: "2024-01-10", BirthDate: "1990-07-12"},
		{Name: "Roto", Email: "roto@crombie.dev", HireDate: "not a date"},
	}, nil)
	app := newApp(handlers.NewDirectory(src, today, nil))

	rec := serve(t, app, request{method: http.MethodGet, target: "/api/upcoming-events?days=7"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"from": "2025-07-10",
		"days": 7,
		"events": [
			{"kind":"birthday","date":"2025-07-12","name":"Pedro","surname":"López","email":"pedro@crombie.dev","years":35,"daysUntil":2},
			{"kind":"anniversary","date":"2025-07-15","sendDate":"2025-07-14","name":"Ana","surname":"García","email":"ana@crombie.dev","years":2,"daysUntil":5}
		]
	}`, rec.Body.String())
}

func TestDirectory_Employees(t *testing.T) {
	t.Parallel()

	employees := []directory.Employee{{Name: "Ana", Email: "ana@crombie.dev", HireDate: "2023-07-15"}}
	app := newApp(handlers.NewDirectory(staticDirectory(employees, nil), today, nil))

	rec := serve(t, app, request{method: http.MethodGet, target: "/trabajadores"})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]directory.Employee](t, rec)
	assert.Equal(t, employees, got)

	down := newApp(handlers.NewDirectory(staticDirectory(nil, errors.New("timeout")), today, nil))
	rec = serve(t, down, request{method: http.MethodGet, target: "/trabajadores"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = serve(t, down, request{method: http.MethodGet, target: "/api/upcoming-events"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type authMock struct {
	mock.Mock
}

func (m *authMock) Login(ctx context.Context, email, password string) (*auth.Token, error) {
	args := m.Called(ctx, email, password)
	tok, _ := args.Get(0).(*auth.Token)
	return tok, args.Error(1)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	expires := time.Date(2025, 7, 10, 21, 0, 0, 0, time.UTC)
	a := &authMock{}
	a.On("Login", mock.Anything, "ana@crombie.dev", "correct horse").
		Return(&auth.Token{Token: "signed", ExpiresAt: expires, Role: store.RoleStaff}, nil)
	a.On("Login", mock.Anything, "ana@crombie.dev", "wrong").Return(nil, auth.ErrInvalidCredentials)
	a.On("Login", mock.Anything, "ana@gmail.com", mock.Anything).Return(nil, auth.ErrForbiddenDomain)
	a.On("Login", mock.Anything, "guest@crombie.dev", mock.Anything).Return(nil, auth.ErrForbiddenRole)
	app := newApp(handlers.NewLogin(a))

	rec := serve(t, app, jsonRequest(http.MethodPost, "/api/login", `{"email":"ana@crombie.dev","password":"correct horse"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"signed","expiresAt":"2025-07-10T21:00:00Z","role":"staff"}`, rec.Body.String())

	cases := []struct {
		body   string
		code   string
		status int
	}{
		{body: `{"email":"ana@crombie.dev","password":"wrong"}`, status: http.StatusUnauthorized, code: "invalid_credentials"},
		{body: `{"email":"ana@gmail.com","password":"whatever"}`, status: http.StatusForbidden, code: "forbidden_domain"},
		{body: `{"email":"guest@crombie.dev","password":"whatever"}`, status: http.StatusForbidden, code: "forbidden_role"},
	}
	for _, tc := range cases {
		rec := serve(t, app, jsonRequest(http.MethodPost, "/api/login", tc.body))
		assert.Equal(t, tc.status, rec.Code, tc.body)
		assert.Equal(t, tc.code, decodeError(t, rec).Error.Code, tc.body)
	}

	rec = serve(t, app, jsonRequest(http.MethodPost, "/api/login", `{"email":"ana@crombie.dev"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
