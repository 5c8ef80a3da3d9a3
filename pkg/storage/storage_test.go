package storage_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crombie/crombieversario/pkg/storage"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// fakeS3 answers path-style object requests from an in-memory map.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) object(key string) ([]byte, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[key], f.types[key]
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/bucket/")
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		f.types[key] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.types[key])
		_, _ = w.Write(data)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newStore(t *testing.T) (*storage.S3Storage, *fakeS3, string) {
	t.Helper()
	fake := newFakeS3()
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
	return s, fake, srv.URL
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := storage.New(storage.Config{})
	require.ErrorIs(t, err, storage.ErrInvalidConfig)

	_, err = storage.New(storage.Config{Bucket: "b", AccessKey: "a", SecretKey: "s", DefaultACL: "world"})
	require.ErrorIs(t, err, storage.ErrInvalidConfig)
}

func TestS3Storage_PutGetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, fake, base := newStore(t)

	info, err := storage.PutBytes(ctx, s, pngHeader, storage.WithKey("images/5.png"))
	require.NoError(t, err)
	assert.Equal(t, "images/5.png", info.Key)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, base+"/bucket/images/5.png", info.URL)
	stored, _ := fake.object("images/5.png")
	assert.Equal(t, pngHeader, stored)

	data, err := storage.ReadAll(ctx, s, "images/5.png")
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, s.Delete(ctx, "images/5.png"))

	_, err = storage.ReadAll(ctx, s, "images/5.png")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestS3Storage_GeneratedKey(t *testing.T) {
	t.Parallel()

	s, _, _ := newStore(t)
	info, err := s.Put(context.Background(), bytes.NewReader(pngHeader), int64(len(pngHeader)), storage.WithPrefix("images"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.Key, "images/"))
	assert.True(t, strings.HasSuffix(info.Key, ".png"))
}

func TestS3Storage_KeyFromURL(t *testing.T) {
	t.Parallel()

	s, _, base := newStore(t)

	key, err := s.KeyFromURL(base + "/bucket/images/3.jpg")
	require.NoError(t, err)
	assert.Equal(t, "images/3.jpg", key)

	key, err = s.KeyFromURL(base + "/bucket/images/3.jpg?X-Amz-Signature=abc")
	require.NoError(t, err)
	assert.Equal(t, "images/3.jpg", key)

	for _, raw := range []string{
		"https://elsewhere.example.com/bucket/images/3.jpg",
		base + "/other/images/3.jpg",
		base + "/bucket/",
		"not a url",
	} {
		_, err := s.KeyFromURL(raw)
		assert.ErrorIs(t, err, storage.ErrForeignURL, raw)
	}
}

func TestS3Storage_KeyFromURL_PublicPrefix(t *testing.T) {
	t.Parallel()

	s, err := storage.New(storage.Config{
		Bucket:    "bucket",
		AccessKey: "key",
		SecretKey: "secret",
		PublicURL: "https://cdn.crombie.dev/assets/",
	})
	require.NoError(t, err)

	u, err := s.URL(context.Background(), "images/1.png", storage.WithPublic())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.crombie.dev/assets/images/1.png", u)

	key, err := s.KeyFromURL(u)
	require.NoError(t, err)
	assert.Equal(t, "images/1.png", key)
}

func TestS3Storage_SignedURL(t *testing.T) {
	t.Parallel()

	s, _, base := newStore(t)
	u, err := s.URL(context.Background(), "images/1.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, base+"/bucket/images/1.png?"))
	assert.Contains(t, u, "X-Amz-Signature=")
}

func fileHeader(t *testing.T, field, name string, data []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File[field][0]
}

func TestPutFile_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, fake, _ := newStore(t)
	rules := storage.WithValidation(storage.NotEmpty(), storage.MaxSize(64), storage.ImageOnly())

	t.Run("accepts image", func(t *testing.T) {
		info, err := storage.PutFile(ctx, s, fileHeader(t, "image", "a.png", pngHeader), storage.WithKey("images/2.png"), rules)
		require.NoError(t, err)
		assert.Equal(t, "image/png", info.ContentType)
		_, ct := fake.object("images/2.png")
		assert.Equal(t, "image/png", ct)
	})

	t.Run("rejects text", func(t *testing.T) {
		_, err := storage.PutFile(ctx, s, fileHeader(t, "image", "a.png", []byte("hello world")), rules)
		var verr *storage.FileValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, storage.ErrCodeInvalidMIME, verr.Code)
	})

	t.Run("rejects oversized", func(t *testing.T) {
		big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 100)...)
		_, err := storage.PutFile(ctx, s, fileHeader(t, "image", "a.png", big), rules)
		var verr *storage.FileValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, storage.ErrCodeFileTooLarge, verr.Code)
	})

	t.Run("nil header", func(t *testing.T) {
		_, err := storage.PutFile(ctx, s, nil, rules)
		require.ErrorIs(t, err, storage.ErrEmptyFile)
	})
}

func TestExtFromMIME(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ".png", storage.ExtFromMIME("image/png"))
	assert.Equal(t, ".jpg", storage.ExtFromMIME("IMAGE/JPEG; charset=binary"))
	assert.Equal(t, "", storage.ExtFromMIME("application/pdf"))
	assert.True(t, storage.IsImageMIME("image/webp"))
	assert.False(t, storage.IsImageMIME("text/plain"))
}
