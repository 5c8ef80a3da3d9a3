package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/crombie/crombieversario/internal/store"
	"github.com/crombie/crombieversario/pkg/storage"
)

const maxImageSize = 10 << 20

// Image is a downloaded inline image.
type Image struct {
	ContentType string
	Data        []byte
}

// ImageFetcher downloads the configured anniversary image.
type ImageFetcher interface {
	Fetch(ctx context.Context, img store.ImagePath) (Image, error)
}

// Images reads uploaded images from object storage and falls back to a plain
// HTTP GET for entries without a bucket key.
type Images struct {
	storage storage.Storage
	client  *http.Client
}

// NewImages accepts a nil storage, in which case every image is fetched by URL.
func NewImages(s storage.Storage, client *http.Client) *Images {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Images{storage: s, client: client}
}

func (f *Images) Fetch(ctx context.Context, img store.ImagePath) (Image, error) {
	var (
		data []byte
		ct   string
		err  error
	)
	if img.Key != "" && f.storage != nil {
		data, err = storage.ReadAll(ctx, f.storage, img.Key)
	} else {
		data, ct, err = f.get(ctx, img.URL)
	}
	if err != nil {
		return Image{}, errors.Join(ErrImage, err)
	}
	if len(data) == 0 {
		return Image{}, ErrImageEmpty
	}
	if ct == "" {
		ct = mime.TypeByExtension(path.Ext(img.FileName()))
	}
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return Image{ContentType: ct, Data: data}, nil
}

func (f *Images) get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxImageSize {
		return nil, "", fmt.Errorf("image at %s exceeds %d bytes", url, maxImageSize)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// memoImages downloads each image once per batch. Failures are not kept.
type memoImages struct {
	next  ImageFetcher
	done  map[string]Image
	group singleflight.Group
	mu    sync.Mutex
}

func newMemoImages(next ImageFetcher) *memoImages {
	return &memoImages{next: next, done: map[string]Image{}}
}

func (m *memoImages) Fetch(ctx context.Context, img store.ImagePath) (Image, error) {
	m.mu.Lock()
	cached, ok := m.done[img.URL]
	m.mu.Unlock()
	if ok {
		return cached, nil
	}

	v, err, _ := m.group.Do(img.URL, func() (any, error) {
		got, err := m.next.Fetch(ctx, img)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.done[img.URL] = got
		m.mu.Unlock()
		return got, nil
	})
	if err != nil {
		return Image{}, err
	}
	return v.(Image), nil
}
