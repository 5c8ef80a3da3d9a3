package directory_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crombie/crombieversario/internal/anniversary"
	"github.com/crombie/crombieversario/internal/directory"
	"github.com/crombie/crombieversario/pkg/cache"
	"github.com/crombie/crombieversario/pkg/logger"
)

type sourceMock struct {
	mock.Mock
}

func (m *sourceMock) Employees(ctx context.Context) ([]directory.Employee, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]directory.Employee)
	return list, args.Error(1)
}

func TestHTTPSource(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"trabajadores":[{"name":"Ana","surname":"Pérez","email":"ana@crombie.dev","hireDate":"2023-07-15"}]}`))
	}))
	t.Cleanup(srv.Close)

	list, err := directory.NewHTTPSource(srv.URL, directory.WithToken("hr-token")).Employees(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ana@crombie.dev", list[0].Email)
	assert.Equal(t, "Bearer hr-token", gotAuth)
}

func TestHTTPSourceErrors(t *testing.T) {
	t.Parallel()

	t.Run("status", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)
		_, err := directory.NewHTTPSource(srv.URL).Employees(context.Background())
		require.ErrorIs(t, err, directory.ErrStatus)
	})

	t.Run("decode", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		t.Cleanup(srv.Close)
		_, err := directory.NewHTTPSource(srv.URL).Employees(context.Background())
		require.ErrorIs(t, err, directory.ErrDecode)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(func() { close(release); srv.Close() })
		_, err := directory.NewHTTPSource(srv.URL, directory.WithTimeout(20*time.Millisecond)).Employees(context.Background())
		require.ErrorIs(t, err, directory.ErrFetch)
	})
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"employees.yaml", "employees.json"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			list, err := directory.NewFileSource(filepath.Join("testdata", name)).Employees(context.Background())
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "2023-07-15", list[0].HireDate)
			assert.Equal(t, "1990-05-10", list[0].BirthDate)
			assert.Empty(t, list[1].BirthDate)
		})
	}

	_, err := directory.NewFileSource("testdata/missing.json").Employees(context.Background())
	require.ErrorIs(t, err, directory.ErrFetch)
}

func TestPeopleSkipsInvalid(t *testing.T) {
	t.Parallel()

	people := directory.People(context.Background(), []directory.Employee{
		{Name: "Ana", Email: "Ana@Crombie.dev", HireDate: "2023-07-15", BirthDate: "1990-05-10"},
		{Name: "Bad", Email: "bad@crombie.dev", HireDate: "15/07/2023"},
		{Name: "Badbirth", Email: "bb@crombie.dev", HireDate: "2023-07-15", BirthDate: "soon"},
		{Name: "Nomail", HireDate: "2023-07-15"},
		{Name: "Nohire", Email: "nohire@crombie.dev"},
	}, logger.NewNope())

	require.Len(t, people, 2)
	assert.Equal(t, "ana@crombie.dev", people[0].Email)
	assert.Equal(t, 2023, people[0].HireDate.Year())
	assert.Equal(t, time.May, people[0].BirthDate.Month())

	assert.Equal(t, "bb@crombie.dev", people[1].Email)
	assert.Equal(t, 2023, people[1].HireDate.Year())
	assert.True(t, people[1].BirthDate.IsZero())
}

func TestPersonInvalidBirthDateKeepsAnniversary(t *testing.T) {
	t.Parallel()

	p, err := directory.Employee{Email: "ana@crombie.dev", HireDate: "2023-07-15", BirthDate: "15/07/1990"}.Person()
	require.ErrorIs(t, err, directory.ErrInvalidBirthDate)
	assert.True(t, p.BirthDate.IsZero())

	ev, ok := anniversary.Evaluate(time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC), p.HireDate)
	require.True(t, ok)
	assert.True(t, ev.Due)
	assert.Equal(t, 2, ev.Number)
}

func TestFirstName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Ana", directory.Employee{Name: "  Ana María "}.FirstName())
	assert.Empty(t, directory.Employee{}.FirstName())
}

func TestCached(t *testing.T) {
	t.Parallel()

	employees := []directory.Employee{{Name: "Ana", Email: "ana@crombie.dev", HireDate: "2023-07-15"}}
	src := &sourceMock{}
	src.On("Employees", mock.Anything).Return(employees, nil).Once()

	mem := cache.NewMemory[[]directory.Employee]()
	t.Cleanup(func() { _ = mem.Close() })
	c := directory.NewCached(src, mem, time.Minute)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := c.Employees(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, employees, list)
		}()
	}
	wg.Wait()

	list, err := c.Employees(context.Background())
	require.NoError(t, err)
	assert.Equal(t, employees, list)
	src.AssertNumberOfCalls(t, "Employees", 1)
}

func TestCachedFreshAndErrors(t *testing.T) {
	t.Parallel()

	first := []directory.Employee{{Email: "a@crombie.dev"}}
	second := []directory.Employee{{Email: "b@crombie.dev"}}
	boom := errors.New("hr down")

	src := &sourceMock{}
	src.On("Employees", mock.Anything).Return(first, nil).Once()
	src.On("Employees", mock.Anything).Return(second, nil).Once()
	src.On("Employees", mock.Anything).Return(nil, boom).Once()

	mem := cache.NewMemory[[]directory.Employee]()
	t.Cleanup(func() { _ = mem.Close() })
	c := directory.NewCached(src, mem, time.Minute)

	list, err := c.Employees(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, list)

	list, err = c.Fresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second, list)

	list, err = c.Employees(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second, list, "fresh refills the cache")

	require.NoError(t, c.Invalidate(context.Background()))
	_, err = c.Employees(context.Background())
	require.ErrorIs(t, err, boom)
	src.AssertExpectations(t)
}
