package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/crombie/crombieversario/internal/store"
	"github.com/crombie/crombieversario/internal/web"
	"github.com/crombie/crombieversario/pkg/validator"
)

type ConfigStore interface {
	GetConfig(ctx context.Context) (store.Config, error)
	SaveConfig(ctx context.Context, cfg store.Config) (store.Config, error)
}

// Config reads and replaces the message template and image list.
type Config struct {
	store   ConfigStore
	protect web.Middleware
}

func NewConfig(s ConfigStore, protect web.Middleware) *Config {
	return &Config{store: s, protect: guard(protect)}
}

func (h *Config) Routes(r web.Router) {
	r.GET("/api/config", h.get, h.protect)
	r.PUT("/api/config", h.put, h.protect)
}

type configRequest struct {
	MessageTemplate string            `json:"messageTemplate" validate:"required,max=20000"`
	ImagePaths      []store.ImagePath `json:"imagePaths" validate:"dive"`
}

func (h *Config) get(c web.Context) error {
	cfg, err := h.store.GetConfig(c)
	if err != nil {
		return web.ErrInternal("could not load configuration", web.WithError(err))
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Config) put(c web.Context) error {
	var req configRequest
	verrs, err := c.BindJSON(&req)
	if err != nil {
		return web.ErrBadRequest("invalid request body", web.WithError(err))
	}
	if len(verrs) > 0 {
		return web.ErrUnprocessable("invalid configuration", web.WithDetails(verrs))
	}

	saved, err := h.store.SaveConfig(c, store.Config{
		MessageTemplate: req.MessageTemplate,
		ImagePaths:      req.ImagePaths,
	})
	if err != nil {
		return configError(err)
	}
	c.Logger().InfoContext(c, "configuration updated")
	return c.JSON(http.StatusOK, saved)
}

// configError maps store failures shared by the config and image routes.
func configError(err error) error {
	switch {
	case errors.Is(err, store.ErrInvalid):
		opts := []web.HTTPErrorOption{web.WithError(err)}
		if verrs := validator.ExtractValidationErrors(err); verrs != nil {
			opts = append(opts, web.WithDetails(verrs))
		}
		return web.ErrUnprocessable("invalid configuration", opts...)
	case errors.Is(err, store.ErrNotFound):
		return web.ErrNotFound("image not found", web.WithError(err))
	default:
		return web.ErrInternal("could not save configuration", web.WithError(err))
	}
}
