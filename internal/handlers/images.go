package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crombie/crombieversario/internal/store"
	"github.com/crombie/crombieversario/internal/web"
	"github.com/crombie/crombieversario/pkg/storage"
)

// DefaultMaxImageSize is the upload limit for anniversary images.
const DefaultMaxImageSize = 5 << 20

// multipart framing on top of the file itself
const multipartSlack = 64 << 10

const imagePrefix = "images/"

type ImageStore interface {
	GetConfig(ctx context.Context) (store.Config, error)
	SetImage(ctx context.Context, img store.ImagePath) (store.Config, error)
	RemoveImage(ctx context.Context, url string) (store.ImagePath, store.Config, error)
}

// Images uploads and deletes the per-anniversary images.
type Images struct {
	store   ImageStore
	files   storage.Storage
	protect web.Middleware
	maxSize int64
}

type ImagesOption func(*Images)

func WithMaxImageSize(n int64) ImagesOption {
	return func(h *Images) {
		if n > 0 {
			h.maxSize = n
		}
	}
}

// NewImages builds the image routes. files may be nil when no bucket is
// configured; uploads then answer 503.
func NewImages(s ImageStore, files storage.Storage, protect web.Middleware, opts ...ImagesOption) *Images {
	h := &Images{store: s, files: files, protect: guard(protect), maxSize: DefaultMaxImageSize}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Images) Routes(r web.Router) {
	r.POST("/api/upload-image/{anniversaryNumber}", h.upload, h.protect)
	r.DELETE("/api/delete-image", h.remove, h.protect)
}

type uploadResponse struct {
	Image  store.ImagePath `json:"image"`
	Config store.Config    `json:"config"`
}

func (h *Images) upload(c web.Context) error {
	if h.files == nil {
		return web.ErrServiceUnavailable("image storage is not configured")
	}
	n, ok := web.LookupParam[int](c, "anniversaryNumber")
	if !ok || n < 1 {
		return web.ErrBadRequest("anniversary number must be a positive integer", web.WithErrorCode("invalid_anniversary_number"))
	}

	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.maxSize+multipartSlack)
	_, fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return web.ErrPayloadTooLarge("image exceeds the upload limit", web.WithError(err))
		case errors.Is(err, http.ErrMissingFile):
			return web.ErrBadRequest("multipart field \"image\" is required", web.WithErrorCode("missing_image"))
		default:
			return web.ErrBadRequest("invalid multipart body", web.WithError(err))
		}
	}

	ext := storage.ExtFromMIME(storage.DetectMIME(fh))
	if ext == "" {
		return web.ErrUnprocessable("only image files are accepted", web.WithErrorCode(storage.ErrCodeInvalidMIME))
	}
	key := imagePrefix + strconv.Itoa(n) + ext

	var previous store.ImagePath
	if cfg, err := h.store.GetConfig(c); err == nil {
		for _, p := range cfg.ImagePaths {
			if p.AnniversaryYear == n {
				previous = p
			}
		}
	}

	info, err := storage.PutFile(c, h.files, fh,
		storage.WithKey(key),
		storage.WithACL(storage.ACLPublicRead),
		storage.WithValidation(storage.NotEmpty(), storage.MaxSize(h.maxSize), storage.ImageOnly()),
	)
	if err != nil {
		return uploadError(err)
	}

	img := store.ImagePath{AnniversaryYear: n, URL: info.URL, Key: info.Key}
	cfg, err := h.store.SetImage(c, img)
	if err != nil {
		return configError(err)
	}

	// A different extension leaves the old object behind.
	if previous.Key != "" && previous.Key != info.Key {
		h.deleteObject(c, previous.Key)
	}

	c.Logger().InfoContext(c, "anniversary image uploaded",
		slog.Int("anniversary", n),
		slog.String("key", info.Key),
		slog.Int64("size", info.Size),
	)
	return c.JSON(http.StatusCreated, uploadResponse{Image: img, Config: cfg})
}

type deleteImageRequest struct {
	ImageURL string `json:"imageUrl" validate:"required,url"`
}

func (h *Images) remove(c web.Context) error {
	var req deleteImageRequest
	verrs, err := c.BindJSON(&req)
	if err != nil {
		return web.ErrBadRequest("invalid request body", web.WithError(err))
	}
	if len(verrs) > 0 {
		return web.ErrUnprocessable("invalid request", web.WithDetails(verrs))
	}

	removed, cfg, err := h.store.RemoveImage(c, req.ImageURL)
	if err != nil {
		return configError(err)
	}
	if removed.Key != "" {
		h.deleteObject(c, removed.Key)
	}

	c.Logger().InfoContext(c, "anniversary image deleted",
		slog.Int("anniversary", removed.AnniversaryYear),
		slog.String("url", removed.URL),
	)
	return c.JSON(http.StatusOK, cfg)
}

// deleteObject removes key from the bucket. The config entry is already gone
// at this point, so failures only leave an orphaned object and are logged.
func (h *Images) deleteObject(c web.Context, key string) {
	if h.files == nil {
		return
	}
	if err := h.files.Delete(c, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		c.Logger().WarnContext(c, "could not delete image object",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
}

func uploadError(err error) error {
	var verr *storage.FileValidationError
	switch {
	case errors.As(err, &verr):
		if verr.Code == storage.ErrCodeFileTooLarge {
			return web.ErrPayloadTooLarge(verr.Message, web.WithErrorCode(verr.Code), web.WithDetails(verr.Details))
		}
		return web.ErrUnprocessable(verr.Message, web.WithErrorCode(verr.Code), web.WithDetails(verr.Details))
	case errors.Is(err, storage.ErrEmptyFile):
		return web.ErrUnprocessable("image is empty", web.WithErrorCode(storage.ErrCodeEmptyFile))
	default:
		return web.ErrInternal("could not store image", web.WithError(err))
	}
}
