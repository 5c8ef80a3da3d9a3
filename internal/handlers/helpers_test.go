package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crombie/crombieversario/internal/store"
	"github.com/crombie/crombieversario/internal/web"
	"github.com/crombie/crombieversario/middlewares"
	"github.com/crombie/crombieversario/pkg/storage"
)

const testAPIKey = "test-api-key"

func newApp(h ...web.Handler) http.Handler {
	return web.New(web.WithHandlers(h...))
}

func apiKey() web.Middleware { return middlewares.APIKey(testAPIKey) }

type request struct {
	header map[string]string
	body   io.Reader
	method string
	target string
}

func serve(t *testing.T, app http.Handler, r request) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(r.method, r.target, r.body)
	for k, v := range r.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) request {
	return request{
		method: method,
		target: target,
		body:   strings.NewReader(body),
		header: map[string]string{
			"Content-Type":           "application/json",
			middlewares.APIKeyHeader: testAPIKey,
		},
	}
}

type errorEnvelope struct {
	Error struct {
		Details json.RawMessage `json:"details"`
		Code    string          `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// storeMock covers every store view the handlers use.
type storeMock struct {
	mock.Mock
}

func (m *storeMock) GetConfig(ctx context.Context) (store.Config, error) {
	args := m.Called(ctx)
	return args.Get(0).(store.Config), args.Error(1)
}

func (m *storeMock) SaveConfig(ctx context.Context, cfg store.Config) (store.Config, error) {
	args := m.Called(ctx, cfg)
	return args.Get(0).(store.Config), args.Error(1)
}

func (m *storeMock) SetImage(ctx context.Context, img store.ImagePath) (store.Config, error) {
	args := m.Called(ctx, img)
	return args.Get(0).(store.Config), args.Error(1)
}

func (m *storeMock) RemoveImage(ctx context.Context, url string) (store.ImagePath, store.Config, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(store.ImagePath), args.Get(1).(store.Config), args.Error(2)
}

func (m *storeMock) LatestFailed(ctx context.Context, limit int) ([]store.FailedEmail, error) {
	args := m.Called(ctx, limit)
	items, _ := args.Get(0).([]store.FailedEmail)
	return items, args.Error(1)
}

// fakeS3 answers path-style object requests for bucket "bucket".
type fakeS3 struct {
	objects map[string][]byte
	deleted []string
	mu      sync.Mutex
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/bucket/")
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		f.deleted = append(f.deleted, key)
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeS3) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func newBucket(t *testing.T) (*storage.S3Storage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := storage.New(storage.Config{
		Bucket:    "bucket",
		AccessKey: "key",
		SecretKey: "secret",
		Endpoint:  srv.URL,
		PathStyle: true,
	})
	require.NoError(t, err)
	return s, fake
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartRequest builds an upload with data under field.
func multipartRequest(t *testing.T, target, field, filename string, data []byte) request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "no file"))
	}
	require.NoError(t, w.Close())
	return request{
		method: http.MethodPost,
		target: target,
		body:   &body,
		header: map[string]string{
			"Content-Type":           w.FormDataContentType(),
			middlewares.APIKeyHeader: testAPIKey,
		},
	}
}

var fixedNow = time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

func today() time.Time { return fixedNow }
